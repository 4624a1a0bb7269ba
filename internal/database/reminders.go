package database

import (
	"context"
	"time"

	"jethotel/internal/models"
)

// ListCheckInsWithoutReminder returns the reservations checking in on day
// that have not had a reminder yet.
func (db *DB) ListCheckInsWithoutReminder(ctx context.Context, day time.Time) ([]models.Reservation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+reservationColumns+reservationFrom+`
		WHERE r.check_in = ?
		AND NOT EXISTS (SELECT 1 FROM reminders rem WHERE rem.reservation_id = r.id)
		ORDER BY r.id`,
		day.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// MarkReminderSent records the reminder for a reservation. Marking twice is
// a no-op.
func (db *DB) MarkReminderSent(ctx context.Context, reservationID int64, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminders (reservation_id, sent_at) VALUES (?, ?)`,
		reservationID, at.UTC())
	return mapError(err)
}
