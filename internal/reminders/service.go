// Package reminders tells guests about their stay the day before check-in.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jethotel/internal/models"

	"github.com/rs/zerolog"
)

// Store provides the reservations that are due a reminder.
type Store interface {
	ListCheckInsWithoutReminder(ctx context.Context, day time.Time) ([]models.Reservation, error)
	MarkReminderSent(ctx context.Context, reservationID int64, at time.Time) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Deliverer queues an outbound message.
type Deliverer interface {
	Enqueue(recipient, subject, body string) error
}

// Config holds configuration for the reminder service.
type Config struct {
	// CheckInterval is how often to look for upcoming check-ins.
	// Default: 15 minutes.
	CheckInterval time.Duration

	// DaysBefore is how many days ahead of check-in the reminder goes out.
	// Default: 1.
	DaysBefore int
}

const subjectReminder = "Upcoming Stay"

// Service sends check-in reminders on a timer.
type Service struct {
	config   Config
	store    Store
	delivery Deliverer
	logger   *zerolog.Logger
	now      func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewService(cfg Config, store Store, delivery Deliverer, logger *zerolog.Logger) *Service {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 15 * time.Minute
	}
	if cfg.DaysBefore <= 0 {
		cfg.DaysBefore = 1
	}
	l := logger.With().Str("component", "reminders").Logger()
	return &Service{
		config:   cfg,
		store:    store,
		delivery: delivery,
		logger:   &l,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
	}
}

// Start begins the check loop. It runs one check immediately.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Int("days_before", s.config.DaysBefore).
		Msg("Reminder service started")
}

// Stop waits for a running check to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info().Msg("Reminder service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	s.runCheck()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runCheck()
		}
	}
}

func (s *Service) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if _, err := s.CheckNow(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Reminder check failed")
	}
}

// CheckNow queues a reminder for every reservation checking in DaysBefore
// days from today and returns how many were queued. A reservation whose
// message the queue refuses is retried on the next check.
func (s *Service) CheckNow(ctx context.Context) (int, error) {
	day := models.Day(s.now()).AddDate(0, 0, s.config.DaysBefore)

	due, err := s.store.ListCheckInsWithoutReminder(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("list check-ins: %w", err)
	}

	sent := 0
	for i := range due {
		r := &due[i]
		u, err := s.store.GetUser(ctx, r.UserID)
		if err != nil {
			s.logger.Error().Err(err).Int64("reservation_id", r.ID).Msg("Failed to load guest")
			continue
		}
		if err := s.delivery.Enqueue(u.DeliveryAddress(), subjectReminder, reminderBody(u, r)); err != nil {
			s.logger.Warn().Err(err).Int64("reservation_id", r.ID).Msg("Reminder not queued")
			continue
		}
		if err := s.store.MarkReminderSent(ctx, r.ID, s.now()); err != nil {
			// The message is already queued; a repeat on the next check is the lesser evil.
			s.logger.Error().Err(err).Int64("reservation_id", r.ID).Msg("Failed to mark reminder as sent")
			continue
		}
		sent++
		s.logger.Info().Int64("reservation_id", r.ID).Int64("user_id", u.ID).Msg("Reminder queued")
	}
	return sent, nil
}

func reminderBody(u *models.User, r *models.Reservation) string {
	body := fmt.Sprintf("Dear %s,\n\nThis is a reminder that your stay in %s starts on %s and ends on %s (%d night(s)).",
		u.FullName, r.RoomName, r.CheckIn.Format(models.DateLayout), r.CheckOut.Format(models.DateLayout), r.Nights())
	if r.Status != models.ReservationConfirmed {
		body += "\n\nYour payment has not been approved yet. Please complete it before arrival."
	}
	return body + "\n\nWe look forward to welcoming you."
}
