package database

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jethotel/internal/config"
	"jethotel/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "hotel.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	user *models.User
	room *models.Room
}

func seed(t *testing.T, db *DB) fixture {
	t.Helper()
	ctx := context.Background()

	u := &models.User{FullName: "Guest", Email: "guest@example.com"}
	require.NoError(t, db.CreateUser(ctx, u))

	r := &models.Room{Name: "Deluxe Room", PriceCents: 15000, Available: true}
	require.NoError(t, db.CreateRoom(ctx, r))

	return fixture{user: u, room: r}
}

func book(t *testing.T, db *DB, f fixture, in, out time.Time) (*models.Reservation, *models.Transaction) {
	t.Helper()
	ctx := context.Background()

	res := &models.Reservation{UserID: f.user.ID, RoomID: f.room.ID, CheckIn: in, CheckOut: out, Status: models.ReservationPending}
	require.NoError(t, db.InsertReservation(ctx, res))

	tx := &models.Transaction{ReservationID: &res.ID, AmountCents: int64(res.Nights()) * f.room.PriceCents, Status: models.TransactionPending}
	require.NoError(t, db.InsertTransaction(ctx, tx))
	return res, tx
}

func TestOverlapTrigger(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	book(t, db, f, day(2024, 1, 1), day(2024, 1, 3))

	tests := []struct {
		name    string
		in, out time.Time
		wantErr bool
	}{
		{"same range", day(2024, 1, 1), day(2024, 1, 3), true},
		{"inner", day(2024, 1, 2), day(2024, 1, 3), true},
		{"straddles start", day(2023, 12, 30), day(2024, 1, 2), true},
		{"touches checkout", day(2024, 1, 3), day(2024, 1, 5), false},
		{"touches checkin", day(2023, 12, 28), day(2024, 1, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.WithTx(ctx, func(q Queries) error {
				return q.InsertReservation(ctx, &models.Reservation{
					UserID: f.user.ID, RoomID: f.room.ID, CheckIn: tt.in, CheckOut: tt.out, Status: models.ReservationPending,
				})
			})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotAvailable)
				assert.ErrorIs(t, err, models.ErrConflict)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{FullName: "A", Email: "a@example.com"}))
	err := db.CreateUser(ctx, &models.User{FullName: "B", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestEnsureAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{FullName: "Boss", Email: "boss@example.com"}))

	u, err := db.EnsureAdmin(ctx, "boss@example.com", "Boss")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	again, err := db.EnsureAdmin(ctx, "boss@example.com", "Boss")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	admins, err := db.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestTransitionTransactionGuard(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	_, tx := book(t, db, f, day(2024, 1, 1), day(2024, 1, 3))
	now := time.Now().UTC()

	pending := []models.TransactionStatus{models.TransactionPending}
	require.NoError(t, db.TransitionTransaction(ctx, tx.ID, pending, models.TransactionPaymentConfirmed, now))

	err := db.TransitionTransaction(ctx, tx.ID, pending, models.TransactionPaymentConfirmed, now)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	got, err := db.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPaymentConfirmed, got.Status)
	assert.Nil(t, got.PaidAt)
	assert.Equal(t, f.user.ID, got.UserID)
	assert.Equal(t, "Deluxe Room", got.RoomName)

	require.NoError(t, db.TransitionTransaction(ctx, tx.ID,
		[]models.TransactionStatus{models.TransactionPaymentConfirmed}, models.TransactionPaid, now))
	got, err = db.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
}

func TestTotalRevenueCountsPaidEvenAfterCancel(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	now := time.Now().UTC()

	res, paid := book(t, db, f, day(2024, 1, 1), day(2024, 1, 3))
	book(t, db, f, day(2024, 2, 1), day(2024, 2, 4))
	_, cancelledUnpaid := book(t, db, f, day(2024, 3, 1), day(2024, 3, 2))

	require.NoError(t, db.TransitionTransaction(ctx, paid.ID,
		[]models.TransactionStatus{models.TransactionPending}, models.TransactionPaid, now))
	require.NoError(t, db.TransitionTransaction(ctx, cancelledUnpaid.ID,
		[]models.TransactionStatus{models.TransactionPending}, models.TransactionCancelled, now))

	total, err := db.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), total)

	// Cancelling the paid stay keeps its revenue.
	require.NoError(t, db.WithTx(ctx, func(q Queries) error {
		if err := q.TransitionTransaction(ctx, paid.ID,
			[]models.TransactionStatus{models.TransactionPaid}, models.TransactionCancelled, now); err != nil {
			return err
		}
		if err := q.DetachTransaction(ctx, paid.ID, now); err != nil {
			return err
		}
		return q.DeleteReservation(ctx, res.ID)
	}))

	total, err = db.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), total)

	got, err := db.GetTransaction(ctx, paid.ID)
	require.NoError(t, err)
	assert.True(t, got.Detached())
	assert.Equal(t, models.TransactionCancelled, got.Status)

	_, err = db.GetReservation(ctx, res.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(q Queries) error {
		if err := q.InsertReservation(ctx, &models.Reservation{
			UserID: f.user.ID, RoomID: f.room.ID, CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 2), Status: models.ReservationPending,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := db.CountReservations(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteRoomWithReservationsConflicts(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	book(t, db, f, day(2024, 1, 1), day(2024, 1, 3))

	err := db.DeleteRoom(ctx, f.room.ID)
	assert.ErrorIs(t, err, models.ErrConflict)

	free := &models.Room{Name: "Spare", PriceCents: 100, Available: true}
	require.NoError(t, db.CreateRoom(ctx, free))
	assert.NoError(t, db.DeleteRoom(ctx, free.ID))
	assert.ErrorIs(t, db.DeleteRoom(ctx, free.ID), models.ErrNotFound)
}

func TestUpsertRoomByName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.UpsertRoomByName(ctx, &models.Room{Name: "Suite", PriceCents: 25000, Available: true})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.UpsertRoomByName(ctx, &models.Room{Name: "Suite", PriceCents: 27000, Available: true})
	require.NoError(t, err)
	assert.False(t, created)

	rooms, err := db.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(27000), rooms[0].PriceCents)
}

func TestListLiveReservations(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	other := &models.Room{Name: "Suite", PriceCents: 25000, Available: true}
	require.NoError(t, db.CreateRoom(ctx, other))

	book(t, db, f, day(2024, 1, 1), day(2024, 1, 3))
	book(t, db, f, day(2024, 2, 1), day(2024, 2, 3))
	require.NoError(t, db.InsertReservation(ctx, &models.Reservation{
		UserID: f.user.ID, RoomID: other.ID, CheckIn: day(2024, 2, 1), CheckOut: day(2024, 2, 3), Status: models.ReservationPending,
	}))

	live, err := db.ListLiveReservations(ctx, []int64{f.room.ID}, day(2024, 1, 3))
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, day(2024, 2, 1), live[0].CheckIn)
	assert.Equal(t, "Deluxe Room", live[0].RoomName)

	all, err := db.ListLiveReservations(ctx, nil, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	require.NoError(t, db.InsertNotification(ctx, &models.Notification{Message: "admin 1"}))
	require.NoError(t, db.InsertNotification(ctx, &models.Notification{Message: "admin 2"}))
	userNote := &models.Notification{UserID: &f.user.ID, Message: "hello"}
	require.NoError(t, db.InsertNotification(ctx, userNote))

	admin, err := db.ListAdminNotifications(ctx, 1)
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, "admin 2", admin[0].Message)

	mine, err := db.ListUserNotifications(ctx, f.user.ID, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].IsRead)

	require.NoError(t, db.MarkNotificationRead(ctx, userNote.ID))
	got, err := db.GetNotification(ctx, userNote.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)

	assert.ErrorIs(t, db.MarkNotificationRead(ctx, 9999), models.ErrNotFound)
}

func TestGetTableData(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()
	book(t, db, f, day(2024, 1, 1), day(2024, 1, 3))

	tables, err := db.GetTableNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "transactions")

	rows, columns, err := db.GetTableData(ctx, "reservations")
	require.NoError(t, err)
	assert.Contains(t, columns, "check_in")
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-01", rows[0]["check_in"])

	_, _, err = db.GetTableData(ctx, "sqlite_master")
	assert.Error(t, err)
}

func TestPerformBackup(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	logger := zerolog.New(io.Discard)

	dir := filepath.Join(t.TempDir(), "backups")
	svc := NewBackupService(db, config.BackupConfig{Enabled: true, Path: dir, RetentionDays: 1}, &logger)

	path, err := svc.PerformBackup(context.Background())
	require.NoError(t, err)

	copyDB, err := NewDB(path, &logger)
	require.NoError(t, err)
	defer copyDB.Close()

	rooms, err := copyDB.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	old := filepath.Join(dir, "backup_old.db")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	past := time.Now().AddDate(0, 0, -3)
	require.NoError(t, os.Chtimes(old, past, past))

	svc.CleanupOldBackups()
	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestReminders(t *testing.T) {
	db := newTestDB(t)
	f := seed(t, db)
	ctx := context.Background()

	res, tx := book(t, db, f, day(2024, 3, 1), day(2024, 3, 4))
	book(t, db, f, day(2024, 3, 4), day(2024, 3, 5))

	due, err := db.ListCheckInsWithoutReminder(ctx, day(2024, 3, 1))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, res.ID, due[0].ID)

	require.NoError(t, db.MarkReminderSent(ctx, res.ID, time.Now()))
	require.NoError(t, db.MarkReminderSent(ctx, res.ID, time.Now()))

	due, err = db.ListCheckInsWithoutReminder(ctx, day(2024, 3, 1))
	require.NoError(t, err)
	assert.Empty(t, due)

	// Deleting the reservation drops its reminder row with it.
	require.NoError(t, db.DetachTransaction(ctx, tx.ID, time.Now()))
	require.NoError(t, db.DeleteReservation(ctx, res.ID))
	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reminders`).Scan(&n))
	assert.Zero(t, n)
}
