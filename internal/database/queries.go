package database

import (
	"context"
	"database/sql"
	"time"

	"jethotel/internal/models"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries is the set of statements the reservation and payment flows run
// inside a transaction. *DB satisfies it outside of one.
type Queries interface {
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	ListLiveReservations(ctx context.Context, roomIDs []int64, from time.Time) ([]models.Reservation, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	InsertReservation(ctx context.Context, r *models.Reservation) error
	SetReservationStatus(ctx context.Context, id int64, status models.ReservationStatus) error
	DeleteReservation(ctx context.Context, id int64) error

	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	GetTransactionByReservation(ctx context.Context, reservationID int64) (*models.Transaction, error)
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	TransitionTransaction(ctx context.Context, id int64, from []models.TransactionStatus, to models.TransactionStatus, at time.Time) error
	DetachTransaction(ctx context.Context, id int64, at time.Time) error

	InsertNotification(ctx context.Context, n *models.Notification) error
}

// queries implements Queries over either *sql.DB or *sql.Tx.
type queries struct {
	q querier
}

var _ Queries = queries{}

type rowScanner interface {
	Scan(dest ...any) error
}
