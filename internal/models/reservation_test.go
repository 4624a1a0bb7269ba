package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     [2]time.Time
		expected bool
	}{
		{"identical", [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, true},
		{"adjacent after", [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, [2]time.Time{day(2026, 1, 12), day(2026, 1, 14)}, false},
		{"adjacent before", [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, [2]time.Time{day(2026, 1, 8), day(2026, 1, 10)}, false},
		{"starts during", [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, [2]time.Time{day(2026, 1, 11), day(2026, 1, 14)}, true},
		{"ends during", [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, [2]time.Time{day(2026, 1, 8), day(2026, 1, 11)}, true},
		{"contained", [2]time.Time{day(2026, 1, 10), day(2026, 1, 20)}, [2]time.Time{day(2026, 1, 12), day(2026, 1, 13)}, true},
		{"contains", [2]time.Time{day(2026, 1, 12), day(2026, 1, 13)}, [2]time.Time{day(2026, 1, 10), day(2026, 1, 20)}, true},
		{"disjoint", [2]time.Time{day(2026, 1, 10), day(2026, 1, 12)}, [2]time.Time{day(2026, 2, 1), day(2026, 2, 3)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.a[0], tt.a[1], tt.b[0], tt.b[1]))
			// symmetric
			assert.Equal(t, tt.expected, Overlaps(tt.b[0], tt.b[1], tt.a[0], tt.a[1]))
		})
	}
}

func TestReservation_OverlapsWith(t *testing.T) {
	existing := Reservation{CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 3)}

	assert.True(t, existing.OverlapsWith(&Reservation{CheckIn: day(2024, 1, 2), CheckOut: day(2024, 1, 5)}))
	assert.False(t, existing.OverlapsWith(&Reservation{CheckIn: day(2024, 1, 3), CheckOut: day(2024, 1, 5)}))
	assert.False(t, existing.OverlapsRange(day(2023, 12, 30), day(2024, 1, 1)))
}

func TestReservation_OccupiedOn(t *testing.T) {
	r := Reservation{CheckIn: day(2026, 1, 15), CheckOut: day(2026, 1, 17)}

	assert.False(t, r.OccupiedOn(day(2026, 1, 14)))
	assert.True(t, r.OccupiedOn(day(2026, 1, 15)))
	assert.True(t, r.OccupiedOn(time.Date(2026, 1, 16, 23, 30, 0, 0, time.UTC)))
	assert.False(t, r.OccupiedOn(day(2026, 1, 17)))
}

func TestReservation_Nights(t *testing.T) {
	r := Reservation{CheckIn: day(2024, 1, 1), CheckOut: day(2024, 1, 3)}
	assert.Equal(t, 2, r.Nights())
	assert.Equal(t, 31, Nights(day(2024, 1, 1), day(2024, 2, 1)))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-01-03")
	assert.NoError(t, err)
	assert.Equal(t, day(2024, 1, 3), d)

	_, err = ParseDay("03-01-2024")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestReservation_MarshalJSON(t *testing.T) {
	r := Reservation{ID: 7, RoomID: 1, CheckIn: day(2026, 1, 15), CheckOut: day(2026, 1, 17), Status: ReservationPending}
	data, err := json.Marshal(r)
	assert.NoError(t, err)

	var got map[string]any
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2026-01-15", got["check_in"])
	assert.Equal(t, "2026-01-17", got["check_out"])
	assert.Equal(t, float64(2), got["nights"])
	assert.Equal(t, "Pending", got["status"])

	var back Reservation
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.CheckIn, back.CheckIn)
	assert.Equal(t, r.CheckOut, back.CheckOut)
	assert.Equal(t, int64(7), back.ID)
}
