package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jethotel/internal/models"
)

const notificationColumns = `id, user_id, message, is_read, created_at`

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n      models.Notification
		userID sql.NullInt64
	)
	if err := row.Scan(&n.ID, &userID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		n.UserID = &id
	}
	return &n, nil
}

func collectNotifications(rows *sql.Rows) ([]models.Notification, error) {
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// InsertNotification appends a notification. A nil UserID addresses admins.
func (s queries) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, message, is_read, created_at) VALUES (?, ?, 0, ?)`,
		n.UserID, n.Message, n.CreatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	n.ID, err = res.LastInsertId()
	return err
}

// ListAdminNotifications returns admin broadcasts, newest first. A limit of
// zero or less returns all of them.
func (s queries) ListAdminNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

// ListUserNotifications returns the notifications addressed to a user, newest first.
func (s queries) ListUserNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

// ListNotifications returns every notification in insertion order.
func (s queries) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func (s queries) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := scanNotification(s.q.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %d: %w", id, models.ErrNotFound)
	}
	return n, err
}

// MarkNotificationRead sets is_read. It is the only update a notification ever gets.
func (s queries) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %d: %w", id, models.ErrNotFound)
	}
	return nil
}
