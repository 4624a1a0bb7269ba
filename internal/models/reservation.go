package models

import (
	"encoding/json"
	"time"
)

// ReservationStatus is the lifecycle state of a live reservation.
// Cancelled reservations are deleted, so there is no cancelled status.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationConfirmed ReservationStatus = "Confirmed"
)

// Reservation holds a room for the half-open stay [CheckIn, CheckOut).
type Reservation struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	RoomID    int64             `json:"room_id"`
	RoomName  string            `json:"room_name,omitempty"`
	CheckIn   time.Time         `json:"check_in"`
	CheckOut  time.Time         `json:"check_out"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// Nights returns the length of the stay.
func (r *Reservation) Nights() int {
	return Nights(r.CheckIn, r.CheckOut)
}

// OverlapsRange reports whether the stay intersects [checkIn, checkOut).
func (r *Reservation) OverlapsRange(checkIn, checkOut time.Time) bool {
	return Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut)
}

// OverlapsWith reports whether two stays intersect.
func (r *Reservation) OverlapsWith(other *Reservation) bool {
	return r.OverlapsRange(other.CheckIn, other.CheckOut)
}

// OccupiedOn reports whether the guest is in the room on the given day,
// i.e. CheckIn <= day < CheckOut.
func (r *Reservation) OccupiedOn(day time.Time) bool {
	d := Day(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// MarshalJSON writes stay dates as YYYY-MM-DD.
func (r Reservation) MarshalJSON() ([]byte, error) {
	type plain Reservation
	return json.Marshal(struct {
		plain
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
		Nights   int    `json:"nights"`
	}{
		plain:    plain(r),
		CheckIn:  r.CheckIn.Format(DateLayout),
		CheckOut: r.CheckOut.Format(DateLayout),
		Nights:   r.Nights(),
	})
}

func (r *Reservation) UnmarshalJSON(data []byte) error {
	type plain Reservation
	aux := struct {
		*plain
		CheckIn  string `json:"check_in"`
		CheckOut string `json:"check_out"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if aux.CheckIn != "" {
		if r.CheckIn, err = ParseDay(aux.CheckIn); err != nil {
			return err
		}
	}
	if aux.CheckOut != "" {
		if r.CheckOut, err = ParseDay(aux.CheckOut); err != nil {
			return err
		}
	}
	return nil
}
