package bookingRepo

import (
	"context"
	"time"

	"therapia/models"
)

// ListFilter narrows a booking listing.
type ListFilter struct {
	PatientID   string
	TherapistID string
	Status      models.BookingStatus
	From        time.Time
	To          time.Time
	Page        int
	Limit       int
}

// BookingRepository defines data access for bookings.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, f ListFilter) ([]models.Booking, error)

	// ListHolding returns bookings in slot-holding statuses overlapping the
	// [from, to] window for a therapist.
	ListHolding(ctx context.Context, therapistID string, from, to time.Time) ([]models.Booking, error)

	// CreateIfSlotFree inserts the booking inside a transaction that first
	// re-checks for holding bookings overlapping the booking's window
	// extended by buffer. Returns ErrSlotConflict when the check fails.
	CreateIfSlotFree(ctx context.Context, b *models.Booking, buffer time.Duration) error

	// FindExpiredPendingAcceptance returns bookings stuck in
	// PENDING_ACCEPTANCE past their acceptance deadline.
	FindExpiredPendingAcceptance(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error)

	// FindEscrowDue returns COMPLETED bookings with unreleased escrow whose
	// sessions ended before the cutoff.
	FindEscrowDue(ctx context.Context, cutoff time.Time, limit int64) ([]models.Booking, error)

	// MarkEscrowReleased stamps escrow_released_at with a conditional update
	// (only when still null). Returns false when the row was already released.
	MarkEscrowReleased(ctx context.Context, bookingID string, at time.Time) (bool, error)
}
