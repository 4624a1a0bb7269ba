package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers messages as Telegram chat messages.
type TelegramNotifier struct {
	bot          telegramClient
	adminChatIDs []int64
	logger       *zerolog.Logger
}

// NewTelegramNotifier connects to the Bot API. An empty token yields a
// notifier with no bot, whose sends are skipped.
func NewTelegramNotifier(token string, debug bool, adminChatIDs []int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	l := logger.With().Str("component", "telegram").Logger()
	if token == "" {
		l.Warn().Msg("telegram bot token is empty, notifications disabled")
		return &TelegramNotifier{adminChatIDs: adminChatIDs, logger: &l}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = debug
	l.Info().Str("username", bot.Self.UserName).Msg("Authorized on telegram")

	return &TelegramNotifier{bot: bot, adminChatIDs: adminChatIDs, logger: &l}, nil
}

// Enabled reports whether a bot is connected.
func (n *TelegramNotifier) Enabled() bool {
	return n.bot != nil
}

// AdminRecipients returns the admin chat ids as recipient addresses.
func (n *TelegramNotifier) AdminRecipients() []string {
	out := make([]string, 0, len(n.adminChatIDs))
	for _, id := range n.adminChatIDs {
		out = append(out, strconv.FormatInt(id, 10))
	}
	return out
}

// Send posts subject and body to the chat whose id is recipient.
func (n *TelegramNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if n.bot == nil {
		n.logger.Debug().Str("recipient", recipient).Msg("notification skipped (bot disabled)")
		return nil
	}
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return &TelegramError{Code: 400, Message: fmt.Sprintf("invalid chat id %q", recipient)}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return toTelegramError(err)
	}
	return nil
}

// SendDocument uploads a file to every admin chat.
func (n *TelegramNotifier) SendDocument(ctx context.Context, filename string, data io.Reader, caption string) error {
	if n.bot == nil || len(n.adminChatIDs) == 0 {
		n.logger.Debug().Str("file", filename).Msg("document skipped (no bot or admin chats)")
		return nil
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	var errs []error
	for _, chatID := range n.adminChatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: content})
		doc.Caption = caption
		if _, err := n.bot.Send(doc); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("file", filename).Msg("failed to send document")
			errs = append(errs, toTelegramError(err))
		}
	}
	return errors.Join(errs...)
}

func toTelegramError(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &TelegramError{
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			RetryAfter: apiErr.RetryAfter,
		}
	}
	return err
}
