// Package payment holds the transaction status machine.
package payment

import (
	"fmt"

	"jethotel/internal/models"
)

// Action names the actor-driven events that move a transaction.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionApprove Action = "approve"
	ActionCancel  Action = "cancel"
)

// FSM validates transaction status transitions.
type FSM struct {
	transitions map[models.TransactionStatus][]models.TransactionStatus
	targets     map[Action]models.TransactionStatus
}

// NewFSM creates the machine with the hotel's payment transitions.
//
//	Pending           -> Payment Confirmed (guest confirms)
//	Payment Confirmed -> Paid              (admin approves)
//	any but Cancelled -> Cancelled         (admin cancels the reservation)
func NewFSM() *FSM {
	return &FSM{
		transitions: map[models.TransactionStatus][]models.TransactionStatus{
			models.TransactionPending: {
				models.TransactionPaymentConfirmed,
				models.TransactionCancelled,
			},
			models.TransactionPaymentConfirmed: {
				models.TransactionPaid,
				models.TransactionCancelled,
			},
			models.TransactionPaid: {
				models.TransactionCancelled,
			},
			models.TransactionCancelled: {},
		},
		targets: map[Action]models.TransactionStatus{
			ActionConfirm: models.TransactionPaymentConfirmed,
			ActionApprove: models.TransactionPaid,
			ActionCancel:  models.TransactionCancelled,
		},
	}
}

// CanTransition checks if moving from one status to another is allowed.
func (f *FSM) CanTransition(from, to models.TransactionStatus) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Target returns the status an action leads to.
func (f *FSM) Target(action Action) (models.TransactionStatus, bool) {
	to, ok := f.targets[action]
	return to, ok
}

// Sources lists every status from which action is permitted. The result is
// used as the guard of the conditional UPDATE that applies the action.
func (f *FSM) Sources(action Action) []models.TransactionStatus {
	to, ok := f.targets[action]
	if !ok {
		return nil
	}
	var from []models.TransactionStatus
	for _, s := range []models.TransactionStatus{
		models.TransactionPending,
		models.TransactionPaymentConfirmed,
		models.TransactionPaid,
		models.TransactionCancelled,
	} {
		if f.CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}

// Check returns ErrAlreadyProcessed when action is not allowed from the
// current status. That includes approving a payment the guest has not
// confirmed yet.
func (f *FSM) Check(current models.TransactionStatus, action Action) error {
	to, ok := f.targets[action]
	if !ok {
		return fmt.Errorf("unknown payment action %q", action)
	}
	if !f.CanTransition(current, to) {
		return fmt.Errorf("%w: transaction is %s", models.ErrAlreadyProcessed, current)
	}
	return nil
}
