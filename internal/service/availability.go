package service

import (
	"context"
	"fmt"
	"time"

	"jethotel/internal/availability"
	"jethotel/internal/models"

	"github.com/rs/zerolog"
)

// Availability answers room searches from the store.
type Availability struct {
	store  Store
	cache  RoomCache
	logger *zerolog.Logger
	now    func() time.Time
}

// RoomListing is a room as shown on the home page.
type RoomListing struct {
	models.Room
	IsAvailable bool `json:"is_available"`
}

// RoomStatus is the dashboard view of one room.
type RoomStatus struct {
	Room        models.Room `json:"room"`
	Status      string      `json:"status"`
	BookedUntil string      `json:"booked_until,omitempty"`
}

// IsAvailable reports whether roomID can be booked for [checkIn, checkOut).
func (a *Availability) IsAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	room, err := a.store.GetRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	live, err := a.store.ListLiveReservations(ctx, []int64{roomID}, checkIn)
	if err != nil {
		return false, fmt.Errorf("list reservations: %w", err)
	}
	return availability.IsAvailable(room, live, checkIn, checkOut), nil
}

// AvailableRooms returns the rooms that can be booked for the range.
// Results are cached until the next booking write. The result is stored
// under the cache generation seen before the store was read, so a booking
// that commits in between makes it unreachable.
func (a *Availability) AvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]models.Room, error) {
	version := int64(-1)
	if a.cache != nil {
		rooms, v, ok := a.cache.Get(ctx, checkIn, checkOut)
		if ok {
			return rooms, nil
		}
		version = v
	}

	rooms, err := a.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	live, err := a.store.ListLiveReservations(ctx, nil, checkIn)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	available := availability.AvailableRoomsForDates(rooms, live, checkIn, checkOut)

	if a.cache != nil {
		a.cache.Set(ctx, version, checkIn, checkOut, available)
	}
	return available, nil
}

// HomeListing lists every room with an availability flag. With no dates a
// room is available when it is open and nobody is staying in it today.
// With dates the range predicate is used; past or inverted ranges are
// rejected.
func (a *Availability) HomeListing(ctx context.Context, checkIn, checkOut *time.Time) ([]RoomListing, error) {
	rooms, err := a.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	today := models.Day(a.now())

	if checkIn == nil || checkOut == nil {
		live, err := a.store.ListLiveReservations(ctx, nil, today)
		if err != nil {
			return nil, fmt.Errorf("list reservations: %w", err)
		}
		out := make([]RoomListing, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, RoomListing{
				Room:        r,
				IsAvailable: r.Available && !availability.CurrentlyOccupied(r.ID, live, today),
			})
		}
		return out, nil
	}

	in, out := models.Day(*checkIn), models.Day(*checkOut)
	if err := validateStay(in, out, today); err != nil {
		return nil, err
	}
	available, err := a.AvailableRooms(ctx, in, out)
	if err != nil {
		return nil, err
	}
	free := make(map[int64]bool, len(available))
	for _, r := range available {
		free[r.ID] = true
	}
	listing := make([]RoomListing, 0, len(rooms))
	for _, r := range rooms {
		listing = append(listing, RoomListing{Room: r, IsAvailable: free[r.ID]})
	}
	return listing, nil
}

// RoomStatuses classifies every room for the dashboard. A room with any
// reservation that has not ended yet is booked until its last check-out;
// otherwise it is available or unavailable by its admin flag.
func (a *Availability) RoomStatuses(ctx context.Context, today time.Time) ([]RoomStatus, error) {
	rooms, err := a.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	live, err := a.store.ListLiveReservations(ctx, nil, models.Day(today))
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	byRoom := availability.GroupByRoom(live)

	out := make([]RoomStatus, 0, len(rooms))
	for _, r := range rooms {
		st := RoomStatus{Room: r}
		switch {
		case len(byRoom[r.ID]) > 0:
			st.Status = models.RoomStatusBooked
			if until, ok := availability.BookedUntil(r.ID, byRoom[r.ID]); ok {
				st.BookedUntil = until.Format(models.DateLayout)
			}
		case r.Available:
			st.Status = models.RoomStatusAvailable
		default:
			st.Status = models.RoomStatusUnavailable
		}
		out = append(out, st)
	}
	return out, nil
}

// validateStay rejects check-ins before today and empty or inverted ranges.
func validateStay(checkIn, checkOut, today time.Time) error {
	if checkIn.Before(today) {
		return fmt.Errorf("%w: check-in date cannot be in the past", models.ErrValidation)
	}
	if !checkOut.After(checkIn) {
		return fmt.Errorf("%w: check-out date must be after check-in date", models.ErrValidation)
	}
	return nil
}
