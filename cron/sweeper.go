package cron

import (
	"context"
	"fmt"
	"time"

	bookingRepo "therapia/database/repository/booking"
	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"
	"therapia/services/booking"
	"therapia/services/notification"
	"therapia/services/payment"
	"therapia/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	cronv3 "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepBatchSize = 200

// Locker elects a single sweep runner per cycle across instances.
type Locker interface {
	// Acquire returns a release func when this instance won the lock, or
	// ok=false when another instance holds it.
	Acquire(ctx context.Context, name string) (release func(), ok bool)
}

// RedisLocker backs Locker with a SetNX lease.
type RedisLocker struct {
	Client *redis.Client
	TTL    time.Duration
	id     string
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{Client: client, TTL: utils.SweepLockTTL, id: uuid.NewString()}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string) (func(), bool) {
	key := utils.SweepLockPrefix + name
	ok, err := l.Client.SetNX(ctx, key, l.id, l.TTL).Result()
	if err != nil || !ok {
		return nil, false
	}
	return func() {
		l.Client.Del(context.Background(), key)
	}, true
}

// Sweeper runs the periodic deadline and escrow sweeps. Each sweep is
// guarded by a leader lock so overlapping schedules across instances do a
// single pass, and each row failure is isolated from the rest of the batch.
type Sweeper struct {
	Bookings   bookingRepo.BookingRepository
	Therapists therapistRepo.TherapistRepository
	BookingSvc booking.Service
	Payments   payment.Service
	Events     notification.Service
	Locks      Locker
	Logger     *zap.Logger

	// EscrowDelay is the hold period after session end before funds release.
	EscrowDelay time.Duration

	DeadlineSpec string
	EscrowSpec   string
}

// Start schedules both sweeps and returns the running scheduler.
func (s *Sweeper) Start() (*cronv3.Cron, error) {
	c := cronv3.New()
	if _, err := c.AddFunc(s.DeadlineSpec, func() {
		if err := s.RunDeadlineSweep(context.Background()); err != nil {
			s.Logger.Error("deadline sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid deadline sweep spec %q: %w", s.DeadlineSpec, err)
	}
	if _, err := c.AddFunc(s.EscrowSpec, func() {
		if err := s.RunEscrowSweep(context.Background()); err != nil {
			s.Logger.Error("escrow sweep failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid escrow sweep spec %q: %w", s.EscrowSpec, err)
	}
	c.Start()
	return c, nil
}

// RunDeadlineSweep cancels and refunds bookings stuck past their acceptance
// deadline.
func (s *Sweeper) RunDeadlineSweep(ctx context.Context) error {
	release, ok := s.Locks.Acquire(ctx, "deadline")
	if !ok {
		return nil
	}
	defer release()

	expired, err := s.BookingSvc.ExpireOverdueAcceptances(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.Logger.Info("deadline sweep expired bookings", zap.Int("count", expired))
	}
	return nil
}

// RunEscrowSweep releases held funds for completed sessions past the hold
// period: the optional organization transfer first, then a conditional
// stamp of escrowReleasedAt that makes the release at-most-once even under
// concurrent runs.
func (s *Sweeper) RunEscrowSweep(ctx context.Context) error {
	release, ok := s.Locks.Acquire(ctx, "escrow")
	if !ok {
		return nil
	}
	defer release()

	cutoff := time.Now().UTC().Add(-s.EscrowDelay)
	due, err := s.Bookings.FindEscrowDue(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to find escrow-due bookings: %w", err)
	}

	released := 0
	for i := range due {
		b := &due[i]
		if err := s.releaseEscrow(ctx, b); err != nil {
			s.Logger.Error("escrow release failed",
				zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		released++
	}
	if released > 0 {
		s.Logger.Info("escrow sweep released bookings", zap.Int("count", released))
	}
	return nil
}

func (s *Sweeper) releaseEscrow(ctx context.Context, b *models.Booking) error {
	if b.OrganizationAmount > 0 && b.OrganizationID != "" {
		org, err := s.Therapists.GetOrganization(ctx, b.OrganizationID)
		if err != nil {
			return fmt.Errorf("failed to resolve organization %s: %w", b.OrganizationID, err)
		}
		if err := s.Payments.TransferOrganizationShare(ctx, b, org.PayoutAccountID); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	stamped, err := s.Bookings.MarkEscrowReleased(ctx, b.ID, now)
	if err != nil {
		return err
	}
	if !stamped {
		// Another run already released this booking.
		return nil
	}

	s.Events.Publish(ctx, models.Event{
		Type:        models.EventEscrowReleased,
		BookingID:   b.ID,
		PatientID:   b.PatientID,
		TherapistID: b.TherapistID,
		Data: map[string]string{
			"therapistAmount": fmt.Sprintf("%.2f", b.TherapistAmount),
		},
	})
	return nil
}
