package availability

import (
	"testing"
	"time"

	"jethotel/internal/models"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestIsAvailable(t *testing.T) {
	room := &models.Room{ID: 1, Name: "Deluxe Room", PriceCents: 15000, Available: true}
	booked := []models.Reservation{
		{ID: 10, RoomID: 1, CheckIn: day(2026, 3, 10), CheckOut: day(2026, 3, 12)},
		{ID: 11, RoomID: 2, CheckIn: day(2026, 3, 1), CheckOut: day(2026, 3, 30)},
	}

	tests := []struct {
		name     string
		in, out  time.Time
		expected bool
	}{
		{"before, touching check-in", day(2026, 3, 8), day(2026, 3, 10), true},
		{"after, touching check-out", day(2026, 3, 12), day(2026, 3, 14), true},
		{"same range", day(2026, 3, 10), day(2026, 3, 12), false},
		{"overlaps start", day(2026, 3, 9), day(2026, 3, 11), false},
		{"overlaps end", day(2026, 3, 11), day(2026, 3, 13), false},
		{"covers", day(2026, 3, 1), day(2026, 3, 20), false},
		{"inside", day(2026, 3, 10), day(2026, 3, 11), false},
		{"far away", day(2026, 4, 1), day(2026, 4, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAvailable(room, booked, tt.in, tt.out))
		})
	}
}

func TestIsAvailable_RoomFlag(t *testing.T) {
	room := &models.Room{ID: 1, Available: false}
	assert.False(t, IsAvailable(room, nil, day(2026, 3, 1), day(2026, 3, 2)))
	assert.False(t, IsAvailable(nil, nil, day(2026, 3, 1), day(2026, 3, 2)))
}

// The batch search must agree with the single-room check for every room.
func TestAvailableRoomsForDates_MatchesSingleCheck(t *testing.T) {
	rooms := []models.Room{
		{ID: 1, Available: true},
		{ID: 2, Available: true},
		{ID: 3, Available: false},
		{ID: 4, Available: true},
	}
	reservations := []models.Reservation{
		{RoomID: 1, CheckIn: day(2026, 5, 1), CheckOut: day(2026, 5, 4)},
		{RoomID: 2, CheckIn: day(2026, 5, 4), CheckOut: day(2026, 5, 6)},
		{RoomID: 4, CheckIn: day(2026, 4, 28), CheckOut: day(2026, 5, 2)},
	}

	ranges := [][2]time.Time{
		{day(2026, 5, 1), day(2026, 5, 4)},
		{day(2026, 5, 4), day(2026, 5, 5)},
		{day(2026, 5, 2), day(2026, 5, 3)},
		{day(2026, 6, 1), day(2026, 6, 2)},
	}

	for _, rg := range ranges {
		got := AvailableRoomsForDates(rooms, reservations, rg[0], rg[1])
		ids := map[int64]bool{}
		for _, r := range got {
			ids[r.ID] = true
		}
		for i := range rooms {
			assert.Equal(t, IsAvailable(&rooms[i], reservations, rg[0], rg[1]), ids[rooms[i].ID],
				"room %d range %s..%s", rooms[i].ID, rg[0].Format(models.DateLayout), rg[1].Format(models.DateLayout))
		}
	}

	got := AvailableRoomsForDates(rooms, reservations, day(2026, 5, 4), day(2026, 5, 5))
	if assert.Len(t, got, 2) {
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(4), got[1].ID)
	}
}

func TestCurrentlyOccupied(t *testing.T) {
	reservations := []models.Reservation{
		{RoomID: 1, CheckIn: day(2026, 1, 14), CheckOut: day(2026, 1, 16)},
	}

	assert.True(t, CurrentlyOccupied(1, reservations, day(2026, 1, 14)))
	assert.True(t, CurrentlyOccupied(1, reservations, day(2026, 1, 15)))
	assert.False(t, CurrentlyOccupied(1, reservations, day(2026, 1, 16)))
	assert.False(t, CurrentlyOccupied(2, reservations, day(2026, 1, 15)))
}

func TestBookedUntil(t *testing.T) {
	reservations := []models.Reservation{
		{RoomID: 1, CheckIn: day(2026, 1, 14), CheckOut: day(2026, 1, 16)},
		{RoomID: 1, CheckIn: day(2026, 2, 1), CheckOut: day(2026, 2, 5)},
		{RoomID: 2, CheckIn: day(2026, 3, 1), CheckOut: day(2026, 3, 9)},
	}

	until, ok := BookedUntil(1, reservations)
	assert.True(t, ok)
	assert.Equal(t, day(2026, 2, 5), until)

	_, ok = BookedUntil(3, reservations)
	assert.False(t, ok)
}
