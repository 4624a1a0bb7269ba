package service

import (
	"context"
	"fmt"

	"jethotel/internal/access"
	"jethotel/internal/database"
	"jethotel/internal/models"
)

// Emit appends an in-app notification using q, which is normally the
// caller's transaction. A nil userID addresses the admin inbox.
func Emit(ctx context.Context, q database.Queries, userID *int64, message string) error {
	n := &models.Notification{UserID: userID, Message: message}
	if err := q.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// AdminInbox returns admin broadcasts, newest first. limit <= 0 means all.
func (s *BookingService) AdminInbox(ctx context.Context, actor access.Actor, limit int) ([]models.Notification, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.store.ListAdminNotifications(ctx, limit)
}

// UserInbox returns the actor's own notifications, newest first.
func (s *BookingService) UserInbox(ctx context.Context, actor access.Actor) ([]models.Notification, error) {
	if actor.UserID == 0 {
		return nil, &access.AccessDeniedError{Reason: "missing user identity"}
	}
	return s.store.ListUserNotifications(ctx, actor.UserID, 0)
}

// MarkRead flags a notification as read. Users may only mark their own;
// admin broadcasts can be marked by any admin.
func (s *BookingService) MarkRead(ctx context.Context, actor access.Actor, id int64) error {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.ForAdmin() {
		if err := access.RequireAdmin(actor); err != nil {
			return err
		}
	} else if err := access.RequireOwner(actor, *n.UserID); err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return s.store.MarkNotificationRead(ctx, id)
}
