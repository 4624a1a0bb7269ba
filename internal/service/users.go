package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"jethotel/internal/models"
)

// NewUser is the registration form.
type NewUser struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	ContactInfo    string `json:"contact_info"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

func (n NewUser) validate() error {
	if strings.TrimSpace(n.FullName) == "" {
		return fmt.Errorf("%w: full name is required", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(n.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", models.ErrValidation, n.Email)
	}
	return nil
}

// RegisterUser creates a guest account and sends the welcome message.
// Registration never grants admin rights. A taken e-mail is a conflict.
func (s *BookingService) RegisterUser(ctx context.Context, in NewUser) (*models.User, []string, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	u := &models.User{
		FullName:       strings.TrimSpace(in.FullName),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		ContactInfo:    in.ContactInfo,
		TelegramChatID: in.TelegramChatID,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, nil, err
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("user registered")

	var box outbox
	box.toUser(u, subjectWelcome, bodyWelcome(u))
	return u, s.flush(&box), nil
}
