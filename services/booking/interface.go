package booking

import (
	"context"
	"time"

	"therapia/models"
)

// CreateResult is the outcome of a booking creation. ClientSecret is empty
// for package-funded bookings, which skip the payment step entirely.
type CreateResult struct {
	Booking      *models.Booking `json:"booking"`
	ClientSecret string          `json:"clientSecret,omitempty"`
}

// Service drives the booking lifecycle:
//
//	PENDING_PAYMENT -> PENDING_ACCEPTANCE -> CONFIRMED -> IN_PROGRESS -> COMPLETED
//
// with cancellation exits into CANCELLED_BY_PATIENT / CANCELLED_BY_THERAPIST.
// All transitions happen through these methods; nothing else writes statuses.
type Service interface {
	// Create reserves the slot and opens a payment intent (or consumes a
	// package credit). The slot reservation is transactional: two concurrent
	// requests for overlapping windows cannot both succeed.
	Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*CreateResult, error)

	// Accept confirms a PENDING_ACCEPTANCE booking and attaches a meeting
	// link. Accepting past the deadline expires the booking instead.
	Accept(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)

	// Reject declines a PENDING_ACCEPTANCE booking with a full refund.
	Reject(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)

	// Cancel exits a held booking. Therapist cancellations always refund in
	// full; patient cancellations follow the notice-based refund tiers.
	Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)

	// MarkCompleted records one party's completion acknowledgment. The first
	// acknowledgment moves the booking to IN_PROGRESS; the second completes it.
	MarkCompleted(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)

	Get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	List(ctx context.Context, actor models.Actor, q models.ListBookingsQuery) ([]models.Booking, error)

	// HandlePaymentSucceeded moves a PENDING_PAYMENT booking to
	// PENDING_ACCEPTANCE and starts the acceptance deadline. Idempotent.
	HandlePaymentSucceeded(ctx context.Context, intentID string) error

	// HandlePaymentFailed records the failure; the booking stays
	// PENDING_PAYMENT so the client can retry the charge.
	HandlePaymentFailed(ctx context.Context, intentID string) error

	// ExpireOverdueAcceptances cancels bookings stuck past their acceptance
	// deadline, refunding each. Returns the number expired.
	ExpireOverdueAcceptances(ctx context.Context, now time.Time, limit int64) (int, error)
}
