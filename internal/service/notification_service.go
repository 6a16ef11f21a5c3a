package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nicolaananda/barber-pos-sub000/internal/domain"
	"github.com/nicolaananda/barber-pos-sub000/internal/metrics"
	"github.com/nicolaananda/barber-pos-sub000/internal/ports"
	"github.com/nicolaananda/barber-pos-sub000/internal/repository"
)

const (
	outboxLockKey   = "barberpos:outbox-dispatcher"
	outboxLease     = 2 * time.Minute
	outboxBatchSize = 20
	backoffBase     = 30 * time.Second
	backoffMax      = time.Hour
)

// OutboxService queues WhatsApp messages and delivers them through the
// Notifier. Failed deliveries are retried with exponential backoff.
type OutboxService struct {
	Store       OutboxStore
	Notifier    ports.Notifier
	Locker      ports.Locker
	Logger      *slog.Logger
	MaxAttempts int
	Interval    time.Duration
	Now         func() time.Time
}

// Delivery reports the outcome of an immediate send.
type Delivery struct {
	MessageID int64  `json:"messageId"`
	Queued    bool   `json:"queued"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

func (s *OutboxService) Enqueue(ctx context.Context, kind, phone, message string) (*domain.OutboxMessage, error) {
	m, err := s.Store.Enqueue(ctx, repository.EnqueueInput{Kind: kind, Phone: phone, Message: message})
	if err != nil {
		return nil, domain.PersistenceError("queue message", err)
	}
	return m, nil
}

// SendNow queues the message and tries to deliver it right away. A delivery
// failure is reported in the result; the message stays queued for retry.
func (s *OutboxService) SendNow(ctx context.Context, kind, phone, message string) (Delivery, error) {
	m, err := s.Store.Enqueue(ctx, repository.EnqueueInput{Kind: kind, Phone: phone, Message: message, Delay: outboxLease})
	if err != nil {
		return Delivery{}, domain.PersistenceError("queue message", err)
	}
	res := Delivery{MessageID: m.ID, Queued: true}
	if err := s.attempt(ctx, *m); err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Delivered = true
	return res, nil
}

// Get lets a client poll the delivery state of a queued message.
func (s *OutboxService) Get(ctx context.Context, id int64) (*domain.OutboxMessage, error) {
	m, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError("Message not found")
		}
		return nil, domain.PersistenceError("load outbox message", err)
	}
	return m, nil
}

func (s *OutboxService) List(ctx context.Context, status string, limit int) ([]domain.OutboxMessage, error) {
	items, err := s.Store.List(ctx, status, limit)
	if err != nil {
		return nil, domain.PersistenceError("list outbox", err)
	}
	return items, nil
}

// Run dispatches due messages every Interval until ctx is cancelled.
func (s *OutboxService) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger().Warn("outbox dispatch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DispatchOnce claims one batch of due messages and attempts each of them.
// It returns the number of messages attempted.
func (s *OutboxService) DispatchOnce(ctx context.Context) (int, error) {
	if s.Locker != nil {
		lease, err := s.Locker.Obtain(ctx, outboxLockKey, outboxLease)
		switch {
		case errors.Is(err, ports.ErrLockNotObtained):
			return 0, nil
		case err != nil:
			s.logger().Warn("outbox lock unavailable; dispatching without lock", "error", err)
		default:
			defer func() {
				if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
					s.logger().Warn("release outbox lock", "error", err)
				}
			}()
		}
	}

	msgs, err := s.Store.ClaimDue(ctx, outboxBatchSize, outboxLease)
	if err != nil {
		return 0, err
	}
	for _, m := range msgs {
		if err := s.attempt(ctx, m); err != nil {
			s.logger().Info("outbox delivery failed", "id", m.ID, "kind", m.Kind, "attempt", m.Attempts+1, "error", err)
		}
	}
	return len(msgs), nil
}

func (s *OutboxService) attempt(ctx context.Context, m domain.OutboxMessage) error {
	sendErr := s.Notifier.Send(ctx, m.Phone, m.Message)
	// Bookkeeping must survive a cancelled request.
	bg := context.WithoutCancel(ctx)
	if sendErr == nil {
		metrics.OutboxDeliveries.WithLabelValues("sent").Inc()
		if err := s.Store.MarkSent(bg, m.ID); err != nil {
			s.logger().Error("mark outbox message sent", "id", m.ID, "error", err)
		}
		return nil
	}

	attempts := m.Attempts + 1
	giveUp := attempts >= s.maxAttempts()
	result := "retry"
	if giveUp {
		result = "failed"
	}
	metrics.OutboxDeliveries.WithLabelValues(result).Inc()
	if err := s.Store.MarkFailed(bg, m.ID, sendErr.Error(), s.now().Add(Backoff(attempts)), giveUp); err != nil {
		s.logger().Error("mark outbox message failed", "id", m.ID, "error", err)
	}
	return domain.UpstreamError("whatsapp delivery failed", sendErr)
}

// Backoff returns the wait before retry number attempt (1-based).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= backoffMax {
			return backoffMax
		}
	}
	return d
}

func (s *OutboxService) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return 5
	}
	return s.MaxAttempts
}

func (s *OutboxService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OutboxService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
