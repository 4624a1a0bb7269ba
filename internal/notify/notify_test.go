package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"jethotel/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
	mu   sync.Mutex
	sent []string
}

func (m *mockNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	err := m.Called(recipient, subject, body).Error(0)
	if err == nil {
		m.mu.Lock()
		m.sent = append(m.sent, recipient)
		m.mu.Unlock()
	}
	return err
}

func (m *mockNotifier) delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type mockTelegram struct {
	mock.Mock
}

func (m *mockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func fastConfig(retries int) DispatcherConfig {
	delays := make([]time.Duration, retries)
	for i := range delays {
		delays[i] = time.Millisecond
	}
	return DispatcherConfig{QueueSize: 8, Workers: 1, RetryDelays: delays}
}

func runDispatcher(t *testing.T, n Notifier, cfg DispatcherConfig) *Dispatcher {
	t.Helper()
	d := NewDispatcher(n, cfg, testLogger())
	d.Start(context.Background())
	return d
}

func TestDispatcherDelivers(t *testing.T) {
	n := &mockNotifier{}
	n.On("Send", "42", "Hello", "body").Return(nil).Once()

	d := runDispatcher(t, n, fastConfig(0))
	require.NoError(t, d.Enqueue("42", "Hello", "body"))
	d.Stop()

	n.AssertExpectations(t)
	assert.Equal(t, []string{"42"}, n.delivered())
}

func TestDispatcherSkipsEmptyRecipient(t *testing.T) {
	n := &mockNotifier{}
	d := runDispatcher(t, n, fastConfig(0))
	require.NoError(t, d.Enqueue("", "s", "b"))
	d.Stop()
	n.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	n := &mockNotifier{}
	n.On("Send", "42", "s", "b").Return(errors.New("timeout")).Twice()
	n.On("Send", "42", "s", "b").Return(nil).Once()

	d := runDispatcher(t, n, fastConfig(3))
	require.NoError(t, d.Enqueue("42", "s", "b"))
	d.Stop()

	n.AssertNumberOfCalls(t, "Send", 3)
	assert.Equal(t, []string{"42"}, n.delivered())
}

func TestDispatcherGivesUp(t *testing.T) {
	n := &mockNotifier{}
	n.On("Send", "42", "s", "b").Return(errors.New("down"))

	d := runDispatcher(t, n, fastConfig(2))
	require.NoError(t, d.Enqueue("42", "s", "b"))
	d.Stop()

	n.AssertNumberOfCalls(t, "Send", 3)
	assert.Empty(t, n.delivered())
}

func TestDispatcherDoesNotRetryBlockedUser(t *testing.T) {
	n := &mockNotifier{}
	n.On("Send", "42", "s", "b").Return(&TelegramError{Code: 403, Message: "bot was blocked by the user"})

	d := runDispatcher(t, n, fastConfig(3))
	require.NoError(t, d.Enqueue("42", "s", "b"))
	d.Stop()

	n.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcherDeliverClassifiesErrors(t *testing.T) {
	n := &mockNotifier{}
	n.On("Send", "bad", "s", "b").Return(&TelegramError{Code: 400, Message: "chat not found"})

	d := NewDispatcher(n, fastConfig(2), testLogger())
	err := d.deliver(context.Background(), Message{Recipient: "bad", Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, models.ErrDelivery)
}

func TestDispatcherQueueFull(t *testing.T) {
	n := &mockNotifier{}
	// Not started, so nothing drains the queue.
	d := NewDispatcher(n, DispatcherConfig{QueueSize: 1}, testLogger())

	require.NoError(t, d.Enqueue("1", "s", "b"))
	err := d.Enqueue("2", "s", "b")
	assert.ErrorIs(t, err, models.ErrDelivery)
}

func TestDispatcherStopped(t *testing.T) {
	d := runDispatcher(t, &mockNotifier{}, fastConfig(0))
	d.Stop()
	d.Stop()

	assert.ErrorIs(t, d.Enqueue("1", "s", "b"), models.ErrDelivery)
}

func TestRouter(t *testing.T) {
	tg := &mockNotifier{}
	tg.On("Send", "42", "s", "b").Return(nil)
	fallback := &mockNotifier{}
	fallback.On("Send", "guest@example.com", "s", "b").Return(nil)

	r := Router{Telegram: tg, Fallback: fallback}
	require.NoError(t, r.Send(context.Background(), "42", "s", "b"))
	require.NoError(t, r.Send(context.Background(), "guest@example.com", "s", "b"))

	tg.AssertExpectations(t)
	fallback.AssertExpectations(t)

	assert.Error(t, Router{}.Send(context.Background(), "x", "s", "b"))
}

func TestTelegramNotifierSend(t *testing.T) {
	client := &mockTelegram{}
	n := &TelegramNotifier{bot: client, logger: testLogger()}

	client.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 42 && msg.Text == "Subject\n\nBody"
	})).Return(nil).Once()
	require.NoError(t, n.Send(context.Background(), "42", "Subject", "Body"))

	client.On("Send", mock.Anything).Return(&tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
	}).Once()
	err := n.Send(context.Background(), "42", "", "again")
	tgErr, ok := IsTelegramError(err)
	require.True(t, ok)
	assert.Equal(t, 429, tgErr.Code)
	assert.Equal(t, 7, tgErr.RetryAfter)

	err = n.Send(context.Background(), "not-a-chat", "", "x")
	tgErr, ok = IsTelegramError(err)
	require.True(t, ok)
	assert.Equal(t, 400, tgErr.Code)

	client.AssertExpectations(t)
}

func TestTelegramNotifierDisabled(t *testing.T) {
	n, err := NewTelegramNotifier("", false, []int64{1}, testLogger())
	require.NoError(t, err)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Send(context.Background(), "42", "s", "b"))
	assert.NoError(t, n.SendDocument(context.Background(), "r.xlsx", bytes.NewReader(nil), "c"))
	assert.Equal(t, []string{"1"}, n.AdminRecipients())
}

func TestTelegramNotifierSendDocument(t *testing.T) {
	client := &mockTelegram{}
	n := &TelegramNotifier{bot: client, adminChatIDs: []int64{1, 2}, logger: testLogger()}

	client.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		doc, ok := c.(tgbotapi.DocumentConfig)
		return ok && doc.ChatID == 1 && doc.Caption == "report"
	})).Return(nil).Once()
	client.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		doc, ok := c.(tgbotapi.DocumentConfig)
		return ok && doc.ChatID == 2
	})).Return(errors.New("network")).Once()

	err := n.SendDocument(context.Background(), "report.xlsx", bytes.NewReader([]byte("xlsx")), "report")
	assert.Error(t, err)
	client.AssertExpectations(t)
}
