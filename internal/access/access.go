// Package access resolves request identities and gates admin-only operations.
package access

import (
	"context"
	"errors"
	"fmt"

	"jethotel/internal/models"

	"github.com/rs/zerolog"
)

// Actor is the authenticated caller of a core operation. IsAdmin is always
// read from the users table, never taken from the client.
type Actor struct {
	UserID  int64
	IsAdmin bool
}

type actorKey struct{}

// WithActor stores the actor in ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// UserLookup loads users by id.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Service resolves user ids into actors.
type Service struct {
	users  UserLookup
	logger zerolog.Logger
}

// NewService creates a new access control service.
func NewService(users UserLookup, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		logger: logger.With().Str("component", "access").Logger(),
	}
}

// Resolve builds the actor for userID. Unknown users are denied.
func (s *Service) Resolve(ctx context.Context, userID int64) (Actor, error) {
	if userID <= 0 {
		return Actor{}, &AccessDeniedError{Reason: "missing user identity"}
	}
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Debug().Int64("user_id", userID).Msg("unknown user")
		return Actor{}, &AccessDeniedError{Reason: "unknown user"}
	}
	if err != nil {
		return Actor{}, fmt.Errorf("resolve user %d: %w", userID, err)
	}
	return Actor{UserID: u.ID, IsAdmin: u.IsAdmin}, nil
}

// RequireAdmin denies non-admin actors.
func RequireAdmin(a Actor) error {
	if !a.IsAdmin {
		return &AccessDeniedError{Reason: "admin access required"}
	}
	return nil
}

// RequireOwner denies actors that do not own the resource.
func RequireOwner(a Actor, ownerID int64) error {
	if a.UserID == 0 || a.UserID != ownerID {
		return &AccessDeniedError{Reason: "not the owner of this resource"}
	}
	return nil
}

// AccessDeniedError is returned when user access is denied.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

func (e *AccessDeniedError) Unwrap() error {
	return models.ErrForbidden
}

// IsAccessDenied checks if error is access denied.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}
