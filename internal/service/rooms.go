package service

import (
	"context"
	"errors"
	"fmt"

	"jethotel/internal/access"
	"jethotel/internal/config"
	"jethotel/internal/events"
	"jethotel/internal/models"
)

// Rooms lists the catalogue.
func (s *BookingService) Rooms(ctx context.Context) ([]models.Room, error) {
	return s.store.ListRooms(ctx)
}

// AddRoom creates a room. Admin only.
func (s *BookingService) AddRoom(ctx context.Context, actor access.Actor, room *models.Room) error {
	if err := access.RequireAdmin(actor); err != nil {
		return err
	}
	if err := room.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Msg("room added")
	s.roomsChanged(ctx, room.ID)
	return nil
}

// UpdateRoom replaces the editable fields of a room. Admin only.
func (s *BookingService) UpdateRoom(ctx context.Context, actor access.Actor, room *models.Room) error {
	if err := access.RequireAdmin(actor); err != nil {
		return err
	}
	if err := room.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return err
	}
	s.roomsChanged(ctx, room.ID)
	return nil
}

// DeleteRoom removes a room that has no reservations. Admin only.
func (s *BookingService) DeleteRoom(ctx context.Context, actor access.Actor, id int64) error {
	if err := access.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteRoom(ctx, id); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("%w: room %d has reservations", models.ErrConflict, id)
		}
		return err
	}
	s.logger.Info().Int64("room_id", id).Msg("room deleted")
	s.roomsChanged(ctx, id)
	return nil
}

// SyncRooms upserts the catalogue by name. Rooms missing from the file are
// left alone since they may carry reservations.
func (s *BookingService) SyncRooms(ctx context.Context, cfg *config.RoomsConfig) error {
	rooms, err := cfg.Models()
	if err != nil {
		return err
	}
	created := 0
	for i := range rooms {
		ok, err := s.store.UpsertRoomByName(ctx, &rooms[i])
		if err != nil {
			return fmt.Errorf("sync room %q: %w", rooms[i].Name, err)
		}
		if ok {
			created++
		}
	}
	s.logger.Info().Int("rooms", len(rooms)).Int("created", created).Msg("room catalogue synced")
	s.roomsChanged(ctx, 0)
	return nil
}

func (s *BookingService) roomsChanged(ctx context.Context, roomID int64) {
	s.invalidateRooms(ctx)
	s.publish(events.Event{Type: events.RoomsChanged, RoomID: roomID})
}
