// Package availability decides whether rooms can be booked for a stay.
//
// Every decision goes through IsAvailable so that single-room checks, batch
// searches and the booking path agree on the same predicate.
package availability

import (
	"time"

	"jethotel/internal/models"
)

// IsAvailable reports whether room can be booked for [checkIn, checkOut).
// The room must be administratively available and no live reservation of the
// same room may overlap the range. Reservations of other rooms are ignored.
func IsAvailable(room *models.Room, reservations []models.Reservation, checkIn, checkOut time.Time) bool {
	if room == nil || !room.Available {
		return false
	}
	for i := range reservations {
		r := &reservations[i]
		if r.RoomID != room.ID {
			continue
		}
		if r.OverlapsRange(checkIn, checkOut) {
			return false
		}
	}
	return true
}

// AvailableRoomsForDates filters rooms with IsAvailable.
func AvailableRoomsForDates(rooms []models.Room, reservations []models.Reservation, checkIn, checkOut time.Time) []models.Room {
	byRoom := GroupByRoom(reservations)
	available := make([]models.Room, 0, len(rooms))
	for i := range rooms {
		if IsAvailable(&rooms[i], byRoom[rooms[i].ID], checkIn, checkOut) {
			available = append(available, rooms[i])
		}
	}
	return available
}

// CurrentlyOccupied reports whether any live reservation of roomID covers today.
// It is a display helper and never used to accept or reject a booking.
func CurrentlyOccupied(roomID int64, reservations []models.Reservation, today time.Time) bool {
	for i := range reservations {
		if reservations[i].RoomID == roomID && reservations[i].OccupiedOn(today) {
			return true
		}
	}
	return false
}

// BookedUntil returns the latest check-out among the room's reservations.
func BookedUntil(roomID int64, reservations []models.Reservation) (time.Time, bool) {
	var latest time.Time
	found := false
	for i := range reservations {
		r := &reservations[i]
		if r.RoomID != roomID {
			continue
		}
		if !found || r.CheckOut.After(latest) {
			latest = r.CheckOut
			found = true
		}
	}
	return latest, found
}

// GroupByRoom indexes reservations by room id.
func GroupByRoom(reservations []models.Reservation) map[int64][]models.Reservation {
	out := make(map[int64][]models.Reservation)
	for _, r := range reservations {
		out[r.RoomID] = append(out[r.RoomID], r)
	}
	return out
}
