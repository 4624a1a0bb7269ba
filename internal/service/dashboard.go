package service

import (
	"context"
	"fmt"

	"jethotel/internal/access"
	"jethotel/internal/audit"
	"jethotel/internal/models"
)

const dashboardNotifications = 5

// Dashboard is the admin overview.
type Dashboard struct {
	TotalBookings       int                   `json:"total_bookings"`
	TotalRevenueCents   int64                 `json:"total_revenue_cents"`
	TotalRevenue        string                `json:"total_revenue"`
	AvailableRooms      int                   `json:"available_rooms"`
	Reservations        []models.Reservation  `json:"reservations"`
	Rooms               []RoomStatus          `json:"rooms"`
	Notifications       []models.Notification `json:"notifications"`
	PendingTransactions []models.Transaction  `json:"pending_transactions"`
	Today               string                `json:"today"`
}

// Dashboard builds the admin overview. Admin only.
func (s *BookingService) Dashboard(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	if err := access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	today := s.today()

	reservations, err := s.store.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	statuses, err := s.Availability.RoomStatuses(ctx, today)
	if err != nil {
		return nil, err
	}
	revenue, err := s.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.store.ListAdminNotifications(ctx, dashboardNotifications)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	pending, err := s.pendingApprovals(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalBookings:       len(reservations),
		TotalRevenueCents:   revenue,
		TotalRevenue:        models.FormatCents(revenue),
		Reservations:        reservations,
		Rooms:               statuses,
		Notifications:       notes,
		PendingTransactions: pending,
		Today:               today.Format(models.DateLayout),
	}
	for _, st := range statuses {
		if st.Status == models.RoomStatusAvailable {
			d.AvailableRooms++
		}
	}
	return d, nil
}

// pendingApprovals returns transactions waiting for an admin, skipping
// ones whose reservation is gone.
func (s *BookingService) pendingApprovals(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactionsByStatus(ctx, models.TransactionPaymentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	out := txs[:0]
	for _, t := range txs {
		if !t.Detached() {
			out = append(out, t)
		}
	}
	return out, nil
}

// ReportSummary feeds the monthly audit report.
func (s *BookingService) ReportSummary(ctx context.Context) (audit.Summary, error) {
	rooms, err := s.store.CountRooms(ctx)
	if err != nil {
		return audit.Summary{}, fmt.Errorf("count rooms: %w", err)
	}
	reservations, err := s.store.CountReservations(ctx)
	if err != nil {
		return audit.Summary{}, fmt.Errorf("count reservations: %w", err)
	}
	revenue, err := s.TotalRevenue(ctx)
	if err != nil {
		return audit.Summary{}, err
	}
	pending, err := s.pendingApprovals(ctx)
	if err != nil {
		return audit.Summary{}, err
	}
	return audit.Summary{
		Rooms:            rooms,
		Reservations:     reservations,
		RevenueCents:     revenue,
		PendingApprovals: len(pending),
		GeneratedAt:      s.clock(),
	}, nil
}
