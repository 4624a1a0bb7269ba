package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes messages to the log instead of delivering them. It
// stands in for e-mail, which has no transport in this service.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	l := logger.With().Str("component", "log_notifier").Logger()
	return &LogNotifier{logger: &l}
}

func (n *LogNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.logger.Info().Str("recipient", recipient).Str("subject", subject).Str("body", body).Msg("notification")
	return nil
}
