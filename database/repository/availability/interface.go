package availabilityRepo

import (
	"context"

	"therapia/models"
)

// AvailabilityRepository defines data access for weekly rules and
// date-specific exceptions.
type AvailabilityRepository interface {
	GetActiveRules(ctx context.Context, therapistID string, dayOfWeek int) ([]models.TherapistAvailability, error)
	ListRules(ctx context.Context, therapistID string) ([]models.TherapistAvailability, error)
	CreateRule(ctx context.Context, rule *models.TherapistAvailability) error
	DeactivateRule(ctx context.Context, therapistID, ruleID string) error

	GetExceptions(ctx context.Context, therapistID, date string) ([]models.AvailabilityException, error)
	ListExceptions(ctx context.Context, therapistID, fromDate, toDate string) ([]models.AvailabilityException, error)
	AddException(ctx context.Context, ex *models.AvailabilityException) error
	RemoveException(ctx context.Context, therapistID, exceptionID string) error
}
