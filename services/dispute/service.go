package dispute

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	bookingRepo "therapia/database/repository/booking"
	disputeRepo "therapia/database/repository/dispute"
	"therapia/models"
	"therapia/services/notification"
	"therapia/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotCompleted is returned when the disputed booking never completed.
	ErrNotCompleted = errors.New("only completed sessions can be disputed")
	// ErrWindowClosed is returned when the dispute window has passed.
	ErrWindowClosed = errors.New("the dispute window for this session has closed")
	// ErrAlreadyDisputed is returned when the booking already has a dispute.
	ErrAlreadyDisputed = errors.New("a dispute already exists for this booking")
	// ErrNotParticipant is returned when the raiser is not party to the booking.
	ErrNotParticipant = errors.New("only a participant can dispute a session")
	// ErrNotOpen is returned when resolving a dispute that is not open.
	ErrNotOpen = errors.New("dispute is not open")
)

// Service handles contests of completed sessions and the admin resolution
// flow, including dispute-driven refunds.
type Service interface {
	Raise(ctx context.Context, actor models.Actor, req models.RaiseDisputeRequest) (*models.SessionDispute, error)
	Resolve(ctx context.Context, actor models.Actor, disputeID string, req models.ResolveDisputeRequest) (*models.SessionDispute, error)
	Close(ctx context.Context, actor models.Actor, disputeID, resolution string) (*models.SessionDispute, error)
	Get(ctx context.Context, disputeID string) (*models.SessionDispute, error)
	List(ctx context.Context, q models.ListDisputesQuery) ([]models.SessionDispute, error)
}

// DefaultService is the production dispute service.
type DefaultService struct {
	Disputes disputeRepo.DisputeRepository
	Bookings bookingRepo.BookingRepository
	Payments payment.Service
	Events   notification.Service
	Logger   *zap.Logger

	// Window is how long after the session end a dispute can be raised.
	Window time.Duration
}

func (s *DefaultService) Raise(ctx context.Context, actor models.Actor, req models.RaiseDisputeRequest) (*models.SessionDispute, error) {
	b, err := s.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", req.BookingID, err)
	}
	if !b.IsParticipant(actor) {
		return nil, ErrNotParticipant
	}
	if b.Status != models.StatusCompleted {
		return nil, ErrNotCompleted
	}

	now := time.Now().UTC()
	if now.After(b.EndDateTime.Add(s.Window)) {
		return nil, ErrWindowClosed
	}

	d := &models.SessionDispute{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		RaisedBy:  actor.ID,
		Reason:    req.Reason,
		Status:    models.DisputeOpen,
		CreatedAt: now,
	}
	if err := s.Disputes.Create(ctx, d); err != nil {
		if errors.Is(err, disputeRepo.ErrDuplicate) {
			return nil, ErrAlreadyDisputed
		}
		return nil, fmt.Errorf("failed to create dispute: %w", err)
	}

	s.Events.Publish(ctx, models.Event{
		Type:        models.EventDisputeFiled,
		BookingID:   b.ID,
		PatientID:   b.PatientID,
		TherapistID: b.TherapistID,
		Data:        map[string]string{"disputeId": d.ID},
	})
	return d, nil
}

func (s *DefaultService) Resolve(ctx context.Context, actor models.Actor, disputeID string, req models.ResolveDisputeRequest) (*models.SessionDispute, error) {
	if actor.Role != models.RoleAdmin {
		return nil, errors.New("only admins can resolve disputes")
	}

	d, err := s.Disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dispute %s: %w", disputeID, err)
	}
	if d.Status != models.DisputeOpen {
		return nil, ErrNotOpen
	}

	b, err := s.Bookings.GetByID(ctx, d.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", d.BookingID, err)
	}

	amount := 0.0
	switch req.RefundType {
	case "full":
		amount = b.RefundableRemainder()
	case "partial":
		amount = math.Round(req.RefundAmount*100) / 100
	}

	if amount > 0 {
		// A failed refund must not hold the resolution hostage; it is logged
		// for manual follow-up.
		if err := s.Payments.RefundBooking(ctx, b, amount, "dispute resolution"); err != nil {
			s.Logger.Error("dispute refund failed",
				zap.String("disputeID", d.ID),
				zap.String("bookingID", b.ID),
				zap.Float64("amount", amount),
				zap.Error(err))
			amount = 0
		} else if uerr := s.Bookings.Update(ctx, b); uerr != nil {
			s.Logger.Error("failed to persist dispute refund",
				zap.String("bookingID", b.ID), zap.Error(uerr))
		}
	}

	now := time.Now().UTC()
	d.Status = models.DisputeResolved
	d.Resolution = req.Resolution
	d.ResolvedBy = actor.ID
	d.RefundIssued = amount > 0
	d.RefundAmount = amount
	d.ResolvedAt = &now
	if err := s.Disputes.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update dispute %s: %w", d.ID, err)
	}

	s.Events.Publish(ctx, models.Event{
		Type:        models.EventDisputeResolved,
		BookingID:   b.ID,
		PatientID:   b.PatientID,
		TherapistID: b.TherapistID,
		Data: map[string]string{
			"disputeId":    d.ID,
			"refundAmount": fmt.Sprintf("%.2f", amount),
		},
	})
	return d, nil
}

func (s *DefaultService) Close(ctx context.Context, actor models.Actor, disputeID, resolution string) (*models.SessionDispute, error) {
	if actor.Role != models.RoleAdmin {
		return nil, errors.New("only admins can close disputes")
	}

	d, err := s.Disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dispute %s: %w", disputeID, err)
	}
	if d.Status != models.DisputeOpen {
		return nil, ErrNotOpen
	}

	now := time.Now().UTC()
	d.Status = models.DisputeClosed
	d.Resolution = resolution
	d.ResolvedBy = actor.ID
	d.ResolvedAt = &now
	if err := s.Disputes.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to update dispute %s: %w", d.ID, err)
	}
	return d, nil
}

func (s *DefaultService) Get(ctx context.Context, disputeID string) (*models.SessionDispute, error) {
	return s.Disputes.GetByID(ctx, disputeID)
}

func (s *DefaultService) List(ctx context.Context, q models.ListDisputesQuery) ([]models.SessionDispute, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	return s.Disputes.List(ctx, models.DisputeStatus(q.Status), q.Page, q.Limit)
}
