package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"

	"go.uber.org/zap"
)

// ErrEscrowReleased is returned when a refund is attempted after the
// booking's funds have already been released.
var ErrEscrowReleased = errors.New("funds already released, booking can no longer be refunded")

// ErrRefundExceedsSubtotal is returned when a refund would push cumulative
// refunds past the booking's subtotal.
var ErrRefundExceedsSubtotal = errors.New("refund would exceed the booking subtotal")

// DefaultService is the payment orchestrator.
type DefaultService struct {
	Gateway    Gateway
	Therapists therapistRepo.TherapistRepository
	Logger     *zap.Logger
}

func (s *DefaultService) CreateBookingIntent(ctx context.Context, b *models.Booking, destination string) (*IntentResult, error) {
	res, err := s.Gateway.CreateIntent(ctx, IntentInput{
		Amount:      b.Subtotal,
		Currency:    b.Currency,
		Destination: destination,
		FeeAmount:   b.PlatformFee,
		Metadata: map[string]string{
			"kind":      "booking",
			"bookingId": b.ID,
		},
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("payment intent created",
		zap.String("bookingID", b.ID), zap.String("intentID", res.IntentID))
	return res, nil
}

func (s *DefaultService) CreatePackageIntent(ctx context.Context, p *models.PackagePurchase, destination string) (*IntentResult, error) {
	res, err := s.Gateway.CreateIntent(ctx, IntentInput{
		Amount:      p.Price,
		Currency:    p.Currency,
		Destination: destination,
		Metadata: map[string]string{
			"kind":      "package",
			"packageId": p.ID,
		},
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("package payment intent created",
		zap.String("packageID", p.ID), zap.String("intentID", res.IntentID))
	return res, nil
}

func (s *DefaultService) CancelIntent(ctx context.Context, intentID string) error {
	return s.Gateway.CancelIntent(ctx, intentID)
}

// RefundBooking issues a gateway refund and updates the booking's refund
// fields in memory. The conservation invariant is checked before any
// external call: a refund that would exceed the subtotal hard-fails with no
// side effect.
func (s *DefaultService) RefundBooking(ctx context.Context, b *models.Booking, amount float64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %.2f", amount)
	}
	if b.EscrowReleasedAt != nil {
		return ErrEscrowReleased
	}
	amount = math.Round(amount*100) / 100
	if amount > b.RefundableRemainder()+0.005 {
		return ErrRefundExceedsSubtotal
	}
	if b.PaidViaPackage {
		// Package-paid bookings carry no gateway intent; the credit is
		// restored by the ledger instead.
		return nil
	}
	if b.PaymentIntentID == "" {
		return fmt.Errorf("booking %s has no payment intent to refund", b.ID)
	}

	refundID, err := s.Gateway.Refund(ctx, b.PaymentIntentID, amount, b.Currency, reason)
	if err != nil {
		return err
	}

	b.AmountRefunded = math.Round((b.AmountRefunded+amount)*100) / 100
	if b.AmountRefunded >= b.Subtotal-0.005 {
		b.PaymentStatus = models.PaymentRefunded
	} else {
		b.PaymentStatus = models.PaymentPartiallyRefunded
	}
	now := time.Now().UTC()
	b.UpdatedAt = now

	s.Logger.Info("refund issued",
		zap.String("bookingID", b.ID),
		zap.String("refundID", refundID),
		zap.Float64("amount", amount),
		zap.String("reason", reason))
	return nil
}

func (s *DefaultService) TransferOrganizationShare(ctx context.Context, b *models.Booking, destination string) error {
	if b.OrganizationAmount <= 0 {
		return nil
	}
	if destination == "" {
		return fmt.Errorf("organization for booking %s has no payout account", b.ID)
	}
	transferID, err := s.Gateway.Transfer(ctx, destination, b.OrganizationAmount, b.Currency, map[string]string{
		"bookingId": b.ID,
	})
	if err != nil {
		return err
	}
	s.Logger.Info("organization share transferred",
		zap.String("bookingID", b.ID),
		zap.String("transferID", transferID),
		zap.Float64("amount", b.OrganizationAmount))
	return nil
}
