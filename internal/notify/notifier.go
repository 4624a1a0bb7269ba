package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Notifier delivers a message to a recipient address. How the address is
// interpreted is up to the implementation.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// DocumentSender delivers a file to the administrators.
type DocumentSender interface {
	SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error
}

// Message is one queued outbound delivery.
type Message struct {
	ID        string
	Recipient string
	Subject   string
	Body      string
}

// TelegramError represents an error from Telegram API.
type TelegramError struct {
	Code       int
	Message    string
	RetryAfter int // seconds to wait before retrying (for 429 errors)
}

func (e *TelegramError) Error() string {
	return fmt.Sprintf("telegram error %d: %s", e.Code, e.Message)
}

// IsTelegramError checks if the error is a TelegramError.
func IsTelegramError(err error) (*TelegramError, bool) {
	var tgErr *TelegramError
	if errors.As(err, &tgErr) {
		return tgErr, true
	}
	return nil, false
}

// Router sends numeric recipients (Telegram chat ids) through Telegram and
// everything else through Fallback.
type Router struct {
	Telegram Notifier
	Fallback Notifier
}

func (r Router) Send(ctx context.Context, recipient, subject, body string) error {
	if _, err := strconv.ParseInt(recipient, 10, 64); err == nil && r.Telegram != nil {
		return r.Telegram.Send(ctx, recipient, subject, body)
	}
	if r.Fallback == nil {
		return fmt.Errorf("no route for recipient %q", recipient)
	}
	return r.Fallback.Send(ctx, recipient, subject, body)
}
