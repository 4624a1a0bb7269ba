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

const transactionColumns = `t.id, t.reservation_id, t.amount_cents, t.status, t.paid_at, t.created_at, t.updated_at,
	COALESCE(r.user_id, 0), COALESCE(rm.name, '')`

const transactionFrom = ` FROM transactions t
	LEFT JOIN reservations r ON r.id = t.reservation_id
	LEFT JOIN rooms rm ON rm.id = r.room_id`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t             models.Transaction
		reservationID sql.NullInt64
		paidAt        sql.NullTime
		status        string
	)
	if err := row.Scan(&t.ID, &reservationID, &t.AmountCents, &status, &paidAt, &t.CreatedAt, &t.UpdatedAt,
		&t.UserID, &t.RoomName); err != nil {
		return nil, err
	}
	if reservationID.Valid {
		id := reservationID.Int64
		t.ReservationID = &id
	}
	if paidAt.Valid {
		at := paidAt.Time
		t.PaidAt = &at
	}
	t.Status = models.TransactionStatus(status)
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s queries) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(s.q.QueryRowContext(ctx, `SELECT `+transactionColumns+transactionFrom+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, models.ErrNotFound)
	}
	return t, err
}

func (s queries) GetTransactionByReservation(ctx context.Context, reservationID int64) (*models.Transaction, error) {
	t, err := scanTransaction(s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+transactionFrom+` WHERE t.reservation_id = ?`, reservationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction for reservation %d: %w", reservationID, models.ErrNotFound)
	}
	return t, err
}

func (s queries) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (reservation_id, amount_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ReservationID, t.AmountCents, string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// TransitionTransaction moves a transaction to status to, but only while its
// current status is one of from. ErrConcurrentModification is returned when
// no row matched. Reaching Paid stamps paid_at.
func (s queries) TransitionTransaction(ctx context.Context, id int64, from []models.TransactionStatus, to models.TransactionStatus, at time.Time) error {
	if len(from) == 0 {
		return fmt.Errorf("transaction %d: no source status for %q", id, to)
	}
	args := []any{string(to), at, string(to), string(models.TransactionPaid), at, id}
	for _, st := range from {
		args = append(args, string(st))
	}

	res, err := s.q.ExecContext(ctx, `
		UPDATE transactions
		SET status = ?, updated_at = ?,
			paid_at = CASE WHEN ? = ? AND paid_at IS NULL THEN ? ELSE paid_at END
		WHERE id = ? AND status IN (?`+strings.Repeat(", ?", len(from)-1)+`)`,
		args...,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, ErrConcurrentModification)
	}
	return nil
}

// DetachTransaction clears the reservation link so the reservation row can
// be deleted while the transaction stays as an audit record.
func (s queries) DetachTransaction(ctx context.Context, id int64, at time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE transactions SET reservation_id = NULL, updated_at = ? WHERE id = ?`, at, id)
	return err
}

// ListTransactions returns every transaction, newest first.
func (s queries) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+transactionColumns+transactionFrom+` ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// ListUserTransactions returns the transactions of a user's live
// reservations, newest first.
func (s queries) ListUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transactionColumns+transactionFrom+` WHERE r.user_id = ? ORDER BY t.created_at DESC, t.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

func (s queries) ListTransactionsByStatus(ctx context.Context, status models.TransactionStatus) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+transactionColumns+transactionFrom+` WHERE t.status = ? ORDER BY t.created_at, t.id`, string(status))
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// TotalRevenue sums every transaction that reached Paid. A paid stay that
// was cancelled later still counts.
func (s queries) TotalRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := s.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE status = ? OR (status = ? AND paid_at IS NOT NULL)`,
		string(models.TransactionPaid), string(models.TransactionCancelled),
	).Scan(&total)
	return total, err
}
