package packageRepo

import (
	"context"
	"time"

	"therapia/models"
)

// PackageRepository defines data access for prepaid session bundles.
type PackageRepository interface {
	Create(ctx context.Context, p *models.PackagePurchase) error
	GetByID(ctx context.Context, id string) (*models.PackagePurchase, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.PackagePurchase, error)
	ListByPatient(ctx context.Context, patientID string, page, limit int) ([]models.PackagePurchase, error)

	// FindActive returns the patient's active, unexpired package for a
	// session type, or nil when none exists.
	FindActive(ctx context.Context, patientID, sessionTypeID string, now time.Time) (*models.PackagePurchase, error)

	// Activate flips a provisional purchase to paid+active. Returns false
	// when the purchase was not in the provisional state.
	Activate(ctx context.Context, id string) (bool, error)

	// MarkPaymentFailed flips a provisional purchase to failed. Returns false
	// when the purchase was not in the provisional state.
	MarkPaymentFailed(ctx context.Context, id string) (bool, error)

	// ConsumeSession atomically decrements sessions_remaining and increments
	// sessions_used, guarded so the remaining count can never go negative.
	// Returns false when no credit was available.
	ConsumeSession(ctx context.Context, id string, now time.Time) (bool, error)

	// RestoreSession atomically returns one consumed credit, guarded so
	// sessions_used can never go negative. Returns false when nothing was
	// consumed.
	RestoreSession(ctx context.Context, id string) (bool, error)
}
