package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jethotel/internal/access"
	"jethotel/internal/availability"
	"jethotel/internal/database"
	"jethotel/internal/events"
	"jethotel/internal/metrics"
	"jethotel/internal/models"
	"jethotel/internal/payment"
)

// ReservationResult is what a successful booking returns.
type ReservationResult struct {
	Reservation *models.Reservation `json:"reservation"`
	Transaction *models.Transaction `json:"transaction"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// CreateReservation books roomID for [checkIn, checkOut) on behalf of actor.
// The reservation, its Pending transaction and both notifications are
// written in one transaction.
func (s *BookingService) CreateReservation(ctx context.Context, actor access.Actor, roomID int64, checkIn, checkOut time.Time) (*ReservationResult, error) {
	if actor.UserID == 0 {
		return nil, &access.AccessDeniedError{Reason: "missing user identity"}
	}
	in, out := models.Day(checkIn), models.Day(checkOut)
	if err := validateStay(in, out, s.today()); err != nil {
		metrics.IncReservation("invalid")
		return nil, err
	}

	var (
		res  *models.Reservation
		tx   *models.Transaction
		room *models.Room
		box  outbox
	)
	err := s.store.WithTx(ctx, func(q database.Queries) error {
		var err error
		room, err = q.GetRoom(ctx, roomID)
		if err != nil {
			return err
		}
		user, err := q.GetUser(ctx, actor.UserID)
		if err != nil {
			return err
		}

		live, err := q.ListLiveReservations(ctx, []int64{roomID}, in)
		if err != nil {
			return fmt.Errorf("list reservations: %w", err)
		}
		if !availability.IsAvailable(room, live, in, out) {
			if !room.Available {
				return fmt.Errorf("%w: room %s is not available for booking", models.ErrConflict, room.Name)
			}
			return database.ErrNotAvailable
		}

		now := s.clock()
		res = &models.Reservation{
			UserID:    user.ID,
			RoomID:    room.ID,
			RoomName:  room.Name,
			CheckIn:   in,
			CheckOut:  out,
			Status:    models.ReservationPending,
			CreatedAt: now,
		}
		if err := q.InsertReservation(ctx, res); err != nil {
			return err
		}

		resID := res.ID
		tx = &models.Transaction{
			ReservationID: &resID,
			AmountCents:   int64(res.Nights()) * room.PriceCents,
			Status:        models.TransactionPending,
			CreatedAt:     now,
			UpdatedAt:     now,
			UserID:        user.ID,
			RoomName:      room.Name,
		}
		if err := q.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := Emit(ctx, q, nil, msgReservationCreatedAdmin(res, user, tx.AmountCents)); err != nil {
			return err
		}
		if err := Emit(ctx, q, &user.ID, msgReservationCreatedUser(room, res, tx.AmountCents)); err != nil {
			return err
		}

		box.toUser(user, subjectReservationCreated, bodyReservationCreated(user, room, res, tx.AmountCents))
		box.toAdmins("New Reservation", msgReservationCreatedAdmin(res, user, tx.AmountCents))
		return nil
	})
	if err != nil {
		s.countReservationFailure(err)
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", res.ID).
		Int64("room_id", roomID).
		Int64("user_id", actor.UserID).
		Str("amount", models.FormatCents(tx.AmountCents)).
		Msg("reservation created")

	s.invalidateRooms(ctx)
	s.publish(events.Event{
		Type:          events.ReservationCreated,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		ReservationID: res.ID,
		TransactionID: tx.ID,
		AmountCents:   tx.AmountCents,
		Status:        string(tx.Status),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
	})

	return &ReservationResult{Reservation: res, Transaction: tx, Warnings: s.flush(&box)}, nil
}

func (s *BookingService) countReservationFailure(err error) {
	switch {
	case errors.Is(err, models.ErrConflict):
		metrics.IncReservation("conflict")
	case errors.Is(err, models.ErrNotFound):
		metrics.IncReservation("not_found")
	default:
		metrics.IncReservation("error")
	}
}

// CancelReservation removes a reservation. The linked transaction is
// cancelled and detached so it survives as an audit record. Admin only.
func (s *BookingService) CancelReservation(ctx context.Context, actor access.Actor, reservationID int64) ([]string, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		res *models.Reservation
		tx  *models.Transaction
		box outbox
	)
	err := s.store.WithTx(ctx, func(q database.Queries) error {
		var err error
		res, err = q.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		now := s.clock()

		tx, err = q.GetTransactionByReservation(ctx, res.ID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			tx = nil
		case err != nil:
			return err
		default:
			if tx.Status != models.TransactionCancelled {
				err := q.TransitionTransaction(ctx, tx.ID, s.fsm.Sources(payment.ActionCancel), models.TransactionCancelled, now)
				if err != nil {
					return fmt.Errorf("cancel transaction: %w", err)
				}
				tx.Status = models.TransactionCancelled
			}
			if err := q.DetachTransaction(ctx, tx.ID, now); err != nil {
				return fmt.Errorf("detach transaction: %w", err)
			}
			tx.ReservationID = nil
		}

		if err := Emit(ctx, q, &res.UserID, msgReservationCancelledUser(res)); err != nil {
			return err
		}
		if err := Emit(ctx, q, nil, msgReservationCancelledAdmin(res)); err != nil {
			return err
		}

		if err := q.DeleteReservation(ctx, res.ID); err != nil {
			return err
		}

		if user, err := q.GetUser(ctx, res.UserID); err == nil {
			box.toUser(user, subjectReservationCancelled, msgReservationCancelledUser(res))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("reservation_id", res.ID).Int64("admin_id", actor.UserID).Msg("reservation cancelled")

	ev := events.Event{
		Type:          events.ReservationCancelled,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		ReservationID: res.ID,
		Status:        string(models.TransactionCancelled),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
	}
	if tx != nil {
		ev.TransactionID = tx.ID
		ev.AmountCents = tx.AmountCents
	}
	s.invalidateRooms(ctx)
	s.publish(ev)

	return s.flush(&box), nil
}

// UserReservations lists the actor's reservations, newest first.
func (s *BookingService) UserReservations(ctx context.Context, actor access.Actor) ([]models.Reservation, error) {
	if actor.UserID == 0 {
		return nil, &access.AccessDeniedError{Reason: "missing user identity"}
	}
	return s.store.ListUserReservations(ctx, actor.UserID)
}

func (s *BookingService) invalidateRooms(ctx context.Context) {
	if s.Availability.cache == nil {
		return
	}
	if err := s.Availability.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("invalidate availability cache")
	}
}
