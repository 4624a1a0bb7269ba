// Package service implements the hotel booking core: availability search,
// the reservation lifecycle, the payment state machine and notifications.
package service

import (
	"context"
	"time"

	"jethotel/internal/database"
	"jethotel/internal/events"
	"jethotel/internal/models"
	"jethotel/internal/payment"

	"github.com/rs/zerolog"
)

// Store is the persistence the core needs. *database.DB implements it.
type Store interface {
	database.Queries
	WithTx(ctx context.Context, fn func(database.Queries) error) error

	ListRooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, r *models.Room) error
	UpdateRoom(ctx context.Context, r *models.Room) error
	DeleteRoom(ctx context.Context, id int64) error
	UpsertRoomByName(ctx context.Context, r *models.Room) (bool, error)
	CountRooms(ctx context.Context) (int, error)

	CreateUser(ctx context.Context, u *models.User) error

	ListReservations(ctx context.Context) ([]models.Reservation, error)
	ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error)
	CountReservations(ctx context.Context) (int, error)

	ListUserTransactions(ctx context.Context, userID int64) ([]models.Transaction, error)
	ListTransactionsByStatus(ctx context.Context, status models.TransactionStatus) ([]models.Transaction, error)
	TotalRevenue(ctx context.Context) (int64, error)

	ListAdminNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	ListUserNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error)
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// EventPublisher receives events after a write has committed.
type EventPublisher interface {
	Publish(event events.Event)
}

// Deliverer hands outbound messages to an asynchronous transport. Enqueue
// must not block; a refusal is reported as ErrDelivery.
type Deliverer interface {
	Enqueue(recipient, subject, body string) error
}

// RoomCache caches availability searches by date range.
type RoomCache interface {
	Get(ctx context.Context, checkIn, checkOut time.Time) ([]models.Room, int64, bool)
	Set(ctx context.Context, version int64, checkIn, checkOut time.Time, rooms []models.Room)
	Invalidate(ctx context.Context) error
}

// Deps groups the collaborators of BookingService. Only Store is required.
type Deps struct {
	Store           Store
	Events          EventPublisher
	Delivery        Deliverer
	Cache           RoomCache
	AdminRecipients []string
	Logger          *zerolog.Logger
}

// BookingService runs the reservation, payment and notification operations.
// Each write runs in one store transaction; events and deliveries happen
// only after it commits.
type BookingService struct {
	store           Store
	events          EventPublisher
	delivery        Deliverer
	adminRecipients []string
	fsm             *payment.FSM
	logger          *zerolog.Logger
	now             func() time.Time

	Availability *Availability
}

func NewBookingService(deps Deps) *BookingService {
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "booking").Logger()

	s := &BookingService{
		store:           deps.Store,
		events:          deps.Events,
		delivery:        deps.Delivery,
		adminRecipients: deps.AdminRecipients,
		fsm:             payment.NewFSM(),
		logger:          &l,
		now:             func() time.Time { return time.Now().UTC() },
	}
	s.Availability = &Availability{store: deps.Store, cache: deps.Cache, logger: &l, now: s.clock}
	return s
}

// SetClock replaces the time source. Used by tests and by replays.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *BookingService) clock() time.Time {
	return s.now()
}

func (s *BookingService) today() time.Time {
	return models.Day(s.now())
}

func (s *BookingService) publish(e events.Event) {
	if s.events == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.events.Publish(e)
}

// outbox collects deliveries decided inside a transaction. They are sent
// only once the transaction has committed.
type outbox struct {
	messages []outboundMessage
}

type outboundMessage struct {
	recipient string
	subject   string
	body      string
	toAdmins  bool
}

func (o *outbox) toUser(u *models.User, subject, body string) {
	if u == nil {
		return
	}
	o.messages = append(o.messages, outboundMessage{recipient: u.DeliveryAddress(), subject: subject, body: body})
}

func (o *outbox) toAdmins(subject, body string) {
	o.messages = append(o.messages, outboundMessage{subject: subject, body: body, toAdmins: true})
}

// DeliveryWarning is reported to the caller when an outbound message could
// not be handed off. The operation itself has succeeded.
const DeliveryWarning = "saved, but some notifications could not be delivered"

// flush enqueues the collected messages. Delivery problems never fail the
// operation; they come back as a warning for the caller.
func (s *BookingService) flush(o *outbox) []string {
	if s.delivery == nil || o == nil {
		return nil
	}
	failed := false
	enqueue := func(recipient, subject, body string) {
		if err := s.delivery.Enqueue(recipient, subject, body); err != nil {
			s.logger.Warn().Err(err).Str("recipient", recipient).Msg("notification not delivered")
			failed = true
		}
	}
	for _, m := range o.messages {
		if !m.toAdmins {
			enqueue(m.recipient, m.subject, m.body)
			continue
		}
		for _, r := range s.adminRecipients {
			enqueue(r, m.subject, m.body)
		}
	}
	if failed {
		return []string{DeliveryWarning}
	}
	return nil
}
