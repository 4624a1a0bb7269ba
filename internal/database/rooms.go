package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jethotel/internal/models"
)

const roomColumns = `id, name, price_cents, description, image, available, created_at, updated_at`

func scanRoom(row rowScanner) (*models.Room, error) {
	var r models.Room
	if err := row.Scan(&r.ID, &r.Name, &r.PriceCents, &r.Description, &r.Image, &r.Available, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoom returns a room by id.
func (s queries) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	r, err := scanRoom(s.q.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %d: %w", id, models.ErrNotFound)
	}
	return r, err
}

// ListRooms returns all rooms ordered by id.
func (s queries) ListRooms(ctx context.Context) ([]models.Room, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *r)
	}
	return rooms, rows.Err()
}

// CreateRoom inserts a room and sets its ID.
func (s queries) CreateRoom(ctx context.Context, r *models.Room) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO rooms (name, price_cents, description, image, available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.PriceCents, r.Description, r.Image, r.Available, now, now,
	)
	if err != nil {
		return mapError(err)
	}
	r.ID, err = res.LastInsertId()
	r.CreatedAt, r.UpdatedAt = now, now
	return err
}

// UpdateRoom overwrites the editable fields of a room.
func (s queries) UpdateRoom(ctx context.Context, r *models.Room) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		UPDATE rooms
		SET name = ?, price_cents = ?, description = ?, image = ?, available = ?, updated_at = ?
		WHERE id = ?`,
		r.Name, r.PriceCents, r.Description, r.Image, r.Available, now, r.ID,
	)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %d: %w", r.ID, models.ErrNotFound)
	}
	r.UpdatedAt = now
	return nil
}

// DeleteRoom removes a room. Rooms that still have reservations are kept
// and ErrConflict is returned.
func (s queries) DeleteRoom(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// UpsertRoomByName creates the room or refreshes its catalogue fields.
// It reports whether a new row was created.
func (s queries) UpsertRoomByName(ctx context.Context, r *models.Room) (bool, error) {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		UPDATE rooms
		SET price_cents = ?, description = ?, image = ?, available = ?, updated_at = ?
		WHERE name = ?`,
		r.PriceCents, r.Description, r.Image, r.Available, now, r.Name,
	)
	if err != nil {
		return false, mapError(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if err := s.CreateRoom(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

// CountRooms returns the number of rooms.
func (s queries) CountRooms(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&n)
	return n, err
}
