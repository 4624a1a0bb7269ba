package service

import (
	"context"
	"errors"
	"fmt"

	"jethotel/internal/access"
	"jethotel/internal/database"
	"jethotel/internal/events"
	"jethotel/internal/metrics"
	"jethotel/internal/models"
	"jethotel/internal/payment"
)

// PaymentResult is what a successful payment transition returns.
type PaymentResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// ConfirmPayment records that the guest has paid. Only the owner of the
// reservation may confirm, and only while the transaction is Pending.
func (s *BookingService) ConfirmPayment(ctx context.Context, actor access.Actor, txID int64) (*PaymentResult, error) {
	var (
		tx  *models.Transaction
		res *models.Reservation
		box outbox
	)
	err := s.store.WithTx(ctx, func(q database.Queries) error {
		var err error
		tx, err = q.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if tx.Detached() {
			return &access.AccessDeniedError{Reason: "reservation no longer exists"}
		}
		res, err = q.GetReservation(ctx, *tx.ReservationID)
		if err != nil {
			return err
		}
		if err := access.RequireOwner(actor, res.UserID); err != nil {
			return err
		}

		if err := s.transition(ctx, q, tx, payment.ActionConfirm); err != nil {
			return err
		}

		user, err := q.GetUser(ctx, res.UserID)
		if err != nil {
			return err
		}
		room, err := q.GetRoom(ctx, res.RoomID)
		if err != nil {
			return err
		}
		if err := Emit(ctx, q, nil, msgPaymentConfirmedAdmin(user, tx)); err != nil {
			return err
		}
		if err := Emit(ctx, q, &user.ID, msgPaymentConfirmedUser(tx)); err != nil {
			return err
		}
		box.toUser(user, subjectPaymentConfirmed, bodyPaymentConfirmed(user, room, res, tx.AmountCents))
		box.toAdmins("Payment Confirmed", msgPaymentConfirmedAdmin(user, tx))
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment("confirm")
	s.logger.Info().Int64("transaction_id", tx.ID).Int64("user_id", actor.UserID).Msg("payment confirmed")
	s.publish(events.Event{
		Type:          events.PaymentConfirmed,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		ReservationID: res.ID,
		TransactionID: tx.ID,
		AmountCents:   tx.AmountCents,
		Status:        string(tx.Status),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
	})

	return &PaymentResult{Transaction: tx, Warnings: s.flush(&box)}, nil
}

// ApprovePayment marks the transaction Paid and confirms the reservation.
// Admin only. Only a payment the guest has confirmed can be approved.
func (s *BookingService) ApprovePayment(ctx context.Context, actor access.Actor, txID int64) (*PaymentResult, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		tx  *models.Transaction
		res *models.Reservation
		box outbox
	)
	err := s.store.WithTx(ctx, func(q database.Queries) error {
		var err error
		tx, err = q.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if tx.Detached() {
			if err := s.fsm.Check(tx.Status, payment.ActionApprove); err != nil {
				return err
			}
			return fmt.Errorf("%w: reservation for transaction %d no longer exists", models.ErrConflict, tx.ID)
		}
		res, err = q.GetReservation(ctx, *tx.ReservationID)
		if err != nil {
			return err
		}

		if err := s.transition(ctx, q, tx, payment.ActionApprove); err != nil {
			return err
		}
		if err := q.SetReservationStatus(ctx, res.ID, models.ReservationConfirmed); err != nil {
			return fmt.Errorf("confirm reservation: %w", err)
		}
		res.Status = models.ReservationConfirmed

		if err := Emit(ctx, q, &res.UserID, msgPaymentApprovedUser(res)); err != nil {
			return err
		}
		if err := Emit(ctx, q, nil, msgPaymentApprovedAdmin(tx, res)); err != nil {
			return err
		}

		user, err := q.GetUser(ctx, res.UserID)
		if err != nil {
			return err
		}
		room, err := q.GetRoom(ctx, res.RoomID)
		if err != nil {
			return err
		}
		box.toUser(user, subjectPaymentApproved, bodyPaymentApproved(user, room, res, tx.AmountCents))
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment("approve")
	s.logger.Info().Int64("transaction_id", tx.ID).Int64("admin_id", actor.UserID).Msg("payment approved")
	s.publish(events.Event{
		Type:          events.PaymentApproved,
		UserID:        res.UserID,
		RoomID:        res.RoomID,
		ReservationID: res.ID,
		TransactionID: tx.ID,
		AmountCents:   tx.AmountCents,
		Status:        string(tx.Status),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
	})
	s.refreshRevenue(ctx)

	return &PaymentResult{Transaction: tx, Warnings: s.flush(&box)}, nil
}

// transition applies action to tx with a guarded UPDATE and updates tx in
// place. A lost race is reported as ErrAlreadyProcessed.
func (s *BookingService) transition(ctx context.Context, q database.Queries, tx *models.Transaction, action payment.Action) error {
	if err := s.fsm.Check(tx.Status, action); err != nil {
		return err
	}
	to, _ := s.fsm.Target(action)
	now := s.clock()

	err := q.TransitionTransaction(ctx, tx.ID, s.fsm.Sources(action), to, now)
	if errors.Is(err, database.ErrConcurrentModification) {
		return fmt.Errorf("%w: transaction %d changed concurrently", models.ErrAlreadyProcessed, tx.ID)
	}
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	tx.Status = to
	tx.UpdatedAt = now
	if to == models.TransactionPaid && tx.PaidAt == nil {
		tx.PaidAt = &now
	}
	return nil
}

// TotalRevenue sums every transaction that reached Paid, including paid
// stays that were later cancelled.
func (s *BookingService) TotalRevenue(ctx context.Context) (int64, error) {
	total, err := s.store.TotalRevenue(ctx)
	if err != nil {
		return 0, fmt.Errorf("total revenue: %w", err)
	}
	metrics.SetRevenue(total)
	return total, nil
}

func (s *BookingService) refreshRevenue(ctx context.Context) {
	if _, err := s.TotalRevenue(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("refresh revenue gauge")
	}
}

// UserTransactions lists the actor's transactions, newest first.
func (s *BookingService) UserTransactions(ctx context.Context, actor access.Actor) ([]models.Transaction, error) {
	if actor.UserID == 0 {
		return nil, &access.AccessDeniedError{Reason: "missing user identity"}
	}
	return s.store.ListUserTransactions(ctx, actor.UserID)
}
