package catalogRepo

import (
	"context"

	"therapia/models"
)

// CatalogRepository defines data access for session types, therapist price
// overrides and commission settings.
type CatalogRepository interface {
	GetSessionType(ctx context.Context, id string) (*models.SessionType, error)
	ListSessionTypes(ctx context.Context, therapistID string) ([]models.SessionType, error)

	// GetSessionPricing returns the active therapist-specific override for a
	// session type, or nil when none exists.
	GetSessionPricing(ctx context.Context, therapistID, sessionTypeID string) (*models.SessionPricing, error)
	UpsertSessionPricing(ctx context.Context, p *models.SessionPricing) error

	// Commission precedence chain lookups; each returns nil when no active
	// setting exists at that level.
	GetTherapistCommission(ctx context.Context, therapistID string) (*models.CommissionSetting, error)
	GetOrganizationCommission(ctx context.Context, organizationID string) (*models.CommissionSetting, error)
	GetPlatformCommission(ctx context.Context) (*models.CommissionSetting, error)
}
