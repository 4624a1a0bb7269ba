package payment

import (
	"testing"

	"jethotel/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        models.TransactionStatus
		to          models.TransactionStatus
		shouldAllow bool
	}{
		{"pending to confirmed", models.TransactionPending, models.TransactionPaymentConfirmed, true},
		{"confirmed to paid", models.TransactionPaymentConfirmed, models.TransactionPaid, true},
		{"pending to cancelled", models.TransactionPending, models.TransactionCancelled, true},
		{"confirmed to cancelled", models.TransactionPaymentConfirmed, models.TransactionCancelled, true},
		{"paid to cancelled", models.TransactionPaid, models.TransactionCancelled, true},
		// Invalid transitions
		{"confirmed to confirmed", models.TransactionPaymentConfirmed, models.TransactionPaymentConfirmed, false},
		{"pending to paid", models.TransactionPending, models.TransactionPaid, false},
		{"paid to paid", models.TransactionPaid, models.TransactionPaid, false},
		{"paid to pending", models.TransactionPaid, models.TransactionPending, false},
		{"cancelled to paid", models.TransactionCancelled, models.TransactionPaid, false},
		{"unknown from", models.TransactionStatus("Refunded"), models.TransactionPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shouldAllow, fsm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestFSMSources(t *testing.T) {
	fsm := NewFSM()

	assert.Equal(t, []models.TransactionStatus{models.TransactionPending}, fsm.Sources(ActionConfirm))
	assert.Equal(t, []models.TransactionStatus{models.TransactionPaymentConfirmed}, fsm.Sources(ActionApprove))
	assert.Equal(t, []models.TransactionStatus{
		models.TransactionPending,
		models.TransactionPaymentConfirmed,
		models.TransactionPaid,
	}, fsm.Sources(ActionCancel))
	assert.Nil(t, fsm.Sources(Action("refund")))
}

func TestFSMCheck(t *testing.T) {
	fsm := NewFSM()

	assert.NoError(t, fsm.Check(models.TransactionPending, ActionConfirm))
	assert.ErrorIs(t, fsm.Check(models.TransactionPaymentConfirmed, ActionConfirm), models.ErrAlreadyProcessed)
	assert.NoError(t, fsm.Check(models.TransactionPaymentConfirmed, ActionApprove))
	assert.ErrorIs(t, fsm.Check(models.TransactionPending, ActionApprove), models.ErrAlreadyProcessed)
	assert.ErrorIs(t, fsm.Check(models.TransactionPaid, ActionApprove), models.ErrAlreadyProcessed)
	assert.ErrorIs(t, fsm.Check(models.TransactionCancelled, ActionApprove), models.ErrAlreadyProcessed)
	assert.Error(t, fsm.Check(models.TransactionPending, Action("refund")))
}
