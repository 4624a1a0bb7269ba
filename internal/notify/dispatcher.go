package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"jethotel/internal/metrics"
	"jethotel/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DispatcherConfig holds queue, rate and retry settings.
type DispatcherConfig struct {
	QueueSize     int
	Workers       int
	RatePerSecond float64
	Burst         int
	RetryDelays   []time.Duration
}

// Dispatcher delivers messages on background workers so callers never wait
// on the Notifier. Sends are rate limited and retried with backoff.
type Dispatcher struct {
	notifier Notifier
	limiter  *rate.Limiter
	delays   []time.Duration
	workers  int
	queue    chan Message
	logger   *zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(notifier Notifier, cfg DispatcherConfig, logger *zerolog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	l := logger.With().Str("component", "dispatcher").Logger()
	return &Dispatcher{
		notifier: notifier,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		delays:   cfg.RetryDelays,
		workers:  cfg.Workers,
		queue:    make(chan Message, cfg.QueueSize),
		logger:   &l,
	}
}

// Start launches the workers. They exit once Stop drains the queue or ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.logger.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("Dispatcher started")
}

// Stop closes the queue and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info().Msg("Dispatcher stopped")
}

// Enqueue schedules a delivery. It never blocks: a full or stopped queue
// returns ErrDelivery and the message is dropped.
func (d *Dispatcher) Enqueue(recipient, subject, body string) error {
	if recipient == "" {
		return nil
	}
	msg := Message{ID: uuid.NewString(), Recipient: recipient, Subject: subject, Body: body}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.IncNotification("dropped")
		return fmt.Errorf("%w: dispatcher stopped", models.ErrDelivery)
	}

	select {
	case d.queue <- msg:
		return nil
	default:
		metrics.IncNotification("dropped")
		d.logger.Warn().Str("message_id", msg.ID).Str("recipient", recipient).Msg("notification queue full, message dropped")
		return fmt.Errorf("%w: notification queue full", models.ErrDelivery)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-d.queue:
			if !ok {
				return
			}
			if err := d.deliver(ctx, msg); err != nil {
				metrics.IncNotification("failed")
				d.logger.Error().Err(err).
					Str("message_id", msg.ID).
					Str("recipient", msg.Recipient).
					Msg("notification delivery failed")
				continue
			}
			metrics.IncNotification("sent")
		}
	}
}

// deliver sends msg, retrying transient failures. A 429 waits for the
// server supplied delay; 400 and 403 are not retried.
func (d *Dispatcher) deliver(ctx context.Context, msg Message) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= len(d.delays); attempt++ {
		err := d.notifier.Send(ctx, msg.Recipient, msg.Subject, msg.Body)
		if err == nil {
			return nil
		}
		lastErr = err

		if tgErr, ok := IsTelegramError(err); ok && (tgErr.Code == 400 || tgErr.Code == 403) {
			return fmt.Errorf("%w: %v", models.ErrDelivery, err)
		}
		if attempt == len(d.delays) {
			break
		}

		wait := d.delays[attempt]
		if tgErr, ok := IsTelegramError(err); ok && tgErr.Code == 429 && tgErr.RetryAfter > 0 {
			wait = time.Duration(tgErr.RetryAfter) * time.Second
		}

		d.logger.Debug().Err(err).
			Str("message_id", msg.ID).
			Int("attempt", attempt+1).
			Dur("delay", wait).
			Msg("retrying notification")
		metrics.IncNotification("retried")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: max retries exceeded: %v", models.ErrDelivery, lastErr)
}
