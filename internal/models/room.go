package models

import "time"

// Room is a bookable unit of the hotel inventory.
type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PriceCents  int64     `json:"price_cents"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomStatus values shown on the admin dashboard.
const (
	RoomStatusBooked      = "booked"
	RoomStatusAvailable   = "available"
	RoomStatusUnavailable = "unavailable"
)

// Validate checks fields an administrator can edit.
func (r *Room) Validate() error {
	if r.Name == "" {
		return wrapValidation("room name is required")
	}
	if r.PriceCents <= 0 {
		return wrapValidation("room price must be positive")
	}
	return nil
}
