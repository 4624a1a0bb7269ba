package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jethotel/internal/models"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB represents the database connection.
type DB struct {
	*sql.DB
	queries
	path   string
	logger *zerolog.Logger
}

var (
	// ErrConcurrentModification is returned when a guarded UPDATE matched no row
	// because the row changed status under us.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrNotAvailable is raised by the overlap trigger on reservations.
	ErrNotAvailable = fmt.Errorf("%w: room is already reserved for the selected dates", models.ErrConflict)
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = fmt.Errorf("%w: already exists", models.ErrConflict)
)

const overlapTriggerMessage = "reservation overlap"

// NewDB opens the sqlite database at path and creates tables if they don't exist.
//
// Every transaction starts with BEGIN IMMEDIATE, so write transactions are
// serialised and a check-then-insert inside WithTx cannot interleave with
// another writer.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=1&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{
		DB:      db,
		queries: queries{q: db},
		path:    path,
		logger:  logger,
	}

	if err := instance.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			contact_info TEXT NOT NULL DEFAULT '',
			telegram_chat_id INTEGER NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price_cents INTEGER NOT NULL CHECK (price_cents > 0),
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			available BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		// check_in/check_out are YYYY-MM-DD text, so string comparison is date comparison.
		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			room_id INTEGER NOT NULL,
			check_in TEXT NOT NULL,
			check_out TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Pending',
			created_at DATETIME NOT NULL,
			CHECK (check_in < check_out),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (room_id) REFERENCES rooms(id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reservation_id INTEGER UNIQUE,
			amount_cents INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'Pending',
			paid_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (reservation_id) REFERENCES reservations(id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS reminders (
			reservation_id INTEGER PRIMARY KEY,
			sent_at DATETIME NOT NULL,
			FOREIGN KEY (reservation_id) REFERENCES reservations(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_room_dates ON reservations(room_id, check_in, check_out)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_check_in ON reservations(check_in)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_name ON rooms(name)`,

		// Last line of defence against double booking: no two live reservations
		// of a room may overlap on [check_in, check_out).
		`CREATE TRIGGER IF NOT EXISTS trg_reservations_no_overlap
		BEFORE INSERT ON reservations
		FOR EACH ROW
		WHEN EXISTS (
			SELECT 1 FROM reservations r
			WHERE r.room_id = NEW.room_id
			AND r.check_in < NEW.check_out
			AND r.check_out > NEW.check_in
		)
		BEGIN
			SELECT RAISE(ABORT, '` + overlapTriggerMessage + `');
		END`,
	}

	for _, query := range stmts {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", trimSQL(query), err)
		}
	}
	return nil
}

// WithTx runs fn inside a single write transaction. The transaction is rolled
// back when fn returns an error and committed otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(queries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// mapError translates sqlite constraint failures into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch {
		case strings.Contains(sqliteErr.Error(), overlapTriggerMessage):
			return ErrNotAvailable
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w (%s)", ErrDuplicate, sqliteErr.Error())
		case sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: record is still referenced", models.ErrConflict)
		}
	}
	return err
}

func trimSQL(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > 80 {
		return q[:80] + "..."
	}
	return q
}
