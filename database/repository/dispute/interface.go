package disputeRepo

import (
	"context"

	"therapia/models"
)

// DisputeRepository defines data access for session disputes.
type DisputeRepository interface {
	// Create inserts a new dispute. Returns ErrDuplicate when a dispute
	// already exists for the booking (backed by a unique index).
	Create(ctx context.Context, d *models.SessionDispute) error
	GetByID(ctx context.Context, id string) (*models.SessionDispute, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.SessionDispute, error)
	Update(ctx context.Context, d *models.SessionDispute) error
	List(ctx context.Context, status models.DisputeStatus, page, limit int) ([]models.SessionDispute, error)
}
