package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jethotel/internal/models"
)

const reservationColumns = `r.id, r.user_id, r.room_id, COALESCE(rm.name, ''), r.check_in, r.check_out, r.status, r.created_at`

const reservationFrom = ` FROM reservations r LEFT JOIN rooms rm ON rm.id = r.room_id`

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var r models.Reservation
	var checkIn, checkOut, status string
	if err := row.Scan(&r.ID, &r.UserID, &r.RoomID, &r.RoomName, &checkIn, &checkOut, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.CheckIn, err = time.Parse(models.DateLayout, checkIn); err != nil {
		return nil, fmt.Errorf("reservation %d check_in: %w", r.ID, err)
	}
	if r.CheckOut, err = time.Parse(models.DateLayout, checkOut); err != nil {
		return nil, fmt.Errorf("reservation %d check_out: %w", r.ID, err)
	}
	r.Status = models.ReservationStatus(status)
	return &r, nil
}

func collectReservations(rows *sql.Rows) ([]models.Reservation, error) {
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ListLiveReservations returns reservations that end after from. An empty
// roomIDs means every room.
func (s queries) ListLiveReservations(ctx context.Context, roomIDs []int64, from time.Time) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + reservationFrom + ` WHERE r.check_out > ?`
	args := []any{from.Format(models.DateLayout)}

	if len(roomIDs) > 0 {
		query += ` AND r.room_id IN (?` + strings.Repeat(", ?", len(roomIDs)-1) + `)`
		for _, id := range roomIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY r.room_id, r.check_in`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListReservations returns every reservation, newest first.
func (s queries) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+reservationColumns+reservationFrom+` ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListUserReservations returns the reservations of a user, newest first.
func (s queries) ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+reservationColumns+reservationFrom+` WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (s queries) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := scanReservation(s.q.QueryRowContext(ctx, `SELECT `+reservationColumns+reservationFrom+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %d: %w", id, models.ErrNotFound)
	}
	return r, err
}

// InsertReservation stores a new reservation. An overlapping stay for the
// same room is rejected by the database with ErrNotAvailable.
func (s queries) InsertReservation(ctx context.Context, r *models.Reservation) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO reservations (user_id, room_id, check_in, check_out, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.RoomID, r.CheckIn.Format(models.DateLayout), r.CheckOut.Format(models.DateLayout), string(r.Status), r.CreatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s queries) SetReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) error {
	res, err := s.q.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s queries) DeleteReservation(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// CountReservations returns the number of live reservations.
func (s queries) CountReservations(ctx context.Context) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&n)
	return n, err
}
