package therapistRepo

import (
	"context"

	"therapia/models"
)

// TherapistRepository defines data access for therapist profiles and their
// organizations.
type TherapistRepository interface {
	GetByID(ctx context.Context, id string) (*models.TherapistProfile, error)
	// GetByUserID resolves the therapist profile for a user, used once per
	// request by the auth middleware.
	GetByUserID(ctx context.Context, userID string) (*models.TherapistProfile, error)
	// GetByPayoutAccount resolves the therapist owning a gateway payout
	// account, used by inbound account-status events.
	GetByPayoutAccount(ctx context.Context, accountID string) (*models.TherapistProfile, error)
	Update(ctx context.Context, t *models.TherapistProfile) error
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)
}
