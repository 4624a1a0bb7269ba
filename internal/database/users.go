package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jethotel/internal/models"
)

const userColumns = `id, full_name, email, contact_info, telegram_chat_id, is_admin, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.ContactInfo, &u.TelegramChatID, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return u, err
}

func (s queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", email, models.ErrNotFound)
	}
	return u, err
}

// CreateUser inserts a user. A taken e-mail yields ErrDuplicate.
func (s queries) CreateUser(ctx context.Context, u *models.User) error {
	u.CreatedAt = time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO users (full_name, email, contact_info, telegram_chat_id, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.FullName, u.Email, u.ContactInfo, u.TelegramChatID, u.IsAdmin, u.CreatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// EnsureAdmin makes sure a user with the given e-mail exists and has the
// admin flag set.
func (s queries) EnsureAdmin(ctx context.Context, email, fullName string) (*models.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, models.ErrNotFound):
		u = &models.User{FullName: fullName, Email: email, IsAdmin: true}
		if err := s.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	case err != nil:
		return nil, err
	}

	if !u.IsAdmin {
		if _, err := s.q.ExecContext(ctx, `UPDATE users SET is_admin = 1 WHERE id = ?`, u.ID); err != nil {
			return nil, err
		}
		u.IsAdmin = true
	}
	return u, nil
}

// ListAdmins returns every administrator.
func (s queries) ListAdmins(ctx context.Context) ([]models.User, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE is_admin = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
