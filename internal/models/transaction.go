package models

import "time"

// TransactionStatus is the payment state of a Transaction.
type TransactionStatus string

const (
	TransactionPending          TransactionStatus = "Pending"
	TransactionPaymentConfirmed TransactionStatus = "Payment Confirmed"
	TransactionPaid             TransactionStatus = "Paid"
	TransactionCancelled        TransactionStatus = "Cancelled"
)

// Transaction is the payment record of a reservation. ReservationID becomes
// nil when the reservation is cancelled; the row is kept for audit.
type Transaction struct {
	ID            int64             `json:"id"`
	ReservationID *int64            `json:"reservation_id"`
	AmountCents   int64             `json:"amount_cents"`
	Status        TransactionStatus `json:"status"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Filled by listing queries that join the reservation.
	UserID   int64  `json:"user_id,omitempty"`
	RoomName string `json:"room_name,omitempty"`
}

// Detached reports whether the reservation link has been severed.
func (t *Transaction) Detached() bool {
	return t.ReservationID == nil
}
