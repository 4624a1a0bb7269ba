package service

import (
	"fmt"
	"strings"

	"jethotel/internal/models"
)

// stayDetails renders the reservation block shared by the guest messages.
func stayDetails(room *models.Room, res *models.Reservation, amountCents int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\n", room.Name)
	fmt.Fprintf(&b, "Check-in: %s\n", res.CheckIn.Format(models.DateLayout))
	fmt.Fprintf(&b, "Check-out: %s\n", res.CheckOut.Format(models.DateLayout))
	fmt.Fprintf(&b, "Nights: %d\n", res.Nights())
	fmt.Fprintf(&b, "Price per night: %s\n", models.FormatCents(room.PriceCents))
	fmt.Fprintf(&b, "Total Amount: %s", models.FormatCents(amountCents))
	return b.String()
}

func msgReservationCreatedAdmin(res *models.Reservation, user *models.User, amountCents int64) string {
	return fmt.Sprintf("New reservation #%d created by User %s - %s (Pending Payment)",
		res.ID, user.FullName, models.FormatCents(amountCents))
}

func msgReservationCreatedUser(room *models.Room, res *models.Reservation, amountCents int64) string {
	return fmt.Sprintf("Your reservation for %s is pending payment. Check-in: %s, Check-out: %s. Total: %s. Please proceed to payment.",
		room.Name, res.CheckIn.Format(models.DateLayout), res.CheckOut.Format(models.DateLayout), models.FormatCents(amountCents))
}

const subjectReservationCreated = "Reservation Created - Payment Pending"

func bodyReservationCreated(user *models.User, room *models.Room, res *models.Reservation, amountCents int64) string {
	return fmt.Sprintf("Hello %s,\n\nYour reservation has been created and is pending payment confirmation.\n\n%s\n\n"+
		"Please confirm your payment on the transactions page.\nYou can pay over the counter or online.",
		user.FullName, stayDetails(room, res, amountCents))
}

func msgPaymentConfirmedAdmin(user *models.User, tx *models.Transaction) string {
	return fmt.Sprintf("User %s has confirmed payment for Transaction #%d - %s",
		user.FullName, tx.ID, models.FormatCents(tx.AmountCents))
}

func msgPaymentConfirmedUser(tx *models.Transaction) string {
	return fmt.Sprintf("You have confirmed payment for Transaction #%d. Waiting for admin approval.", tx.ID)
}

const subjectPaymentConfirmed = "Payment Confirmation Received - Pending Admin Approval"

func bodyPaymentConfirmed(user *models.User, room *models.Room, res *models.Reservation, amountCents int64) string {
	return fmt.Sprintf("Hello %s,\n\nWe have received your payment confirmation for the following reservation:\n\n%s\n\n"+
		"Your payment confirmation has been sent to our admin team for approval.",
		user.FullName, stayDetails(room, res, amountCents))
}

func msgPaymentApprovedUser(res *models.Reservation) string {
	return fmt.Sprintf("Your payment for Reservation #%d has been approved. Your reservation is now confirmed!", res.ID)
}

func msgPaymentApprovedAdmin(tx *models.Transaction, res *models.Reservation) string {
	return fmt.Sprintf("Payment approved for Transaction #%d - Reservation #%d", tx.ID, res.ID)
}

const subjectPaymentApproved = "Payment Approved - Reservation Confirmed"

func bodyPaymentApproved(user *models.User, room *models.Room, res *models.Reservation, amountCents int64) string {
	return fmt.Sprintf("Hello %s,\n\nYour payment has been approved and your reservation is now confirmed!\n\n%s\n\n"+
		"Thank you for choosing our hotel!",
		user.FullName, stayDetails(room, res, amountCents))
}

func msgReservationCancelledUser(res *models.Reservation) string {
	return fmt.Sprintf("Your reservation #%d has been cancelled by admin.", res.ID)
}

func msgReservationCancelledAdmin(res *models.Reservation) string {
	return fmt.Sprintf("Reservation #%d cancelled successfully.", res.ID)
}

const subjectReservationCancelled = "Reservation Cancelled"

const subjectWelcome = "Welcome to Our Hotel!"

func bodyWelcome(user *models.User) string {
	return fmt.Sprintf("Hello %s,\n\nThank you for registering at our hotel reservation system.\nYou can now book rooms.\n\nBest regards,\nHotel Management",
		user.FullName)
}
