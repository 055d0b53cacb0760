package availability

import (
	"context"
	"fmt"
	"time"

	"therapia/models"

	"github.com/google/uuid"
)

// SetWeeklyRule creates a recurring weekly rule after checking the
// no-overlap invariant against the therapist's other active rules for that
// day. Overlap is compared in minutes-of-day; mixing timezones within one
// therapist's weekly schedule is rejected to keep that comparison sound.
func (e *DefaultEngine) SetWeeklyRule(ctx context.Context, therapistID string, req models.SetWeeklyRuleRequest) (*models.TherapistAvailability, error) {
	startMin, err := clockToMinutes(req.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := clockToMinutes(req.EndTime)
	if err != nil {
		return nil, err
	}
	if endMin <= startMin {
		return nil, fmt.Errorf("rule end %q must be after start %q", req.EndTime, req.StartTime)
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", req.Timezone, err)
	}

	existing, err := e.Rules.GetActiveRules(ctx, therapistID, req.DayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing rules: %w", err)
	}
	for _, r := range existing {
		if r.Timezone != req.Timezone {
			return nil, fmt.Errorf("rule timezone %q conflicts with existing rule timezone %q", req.Timezone, r.Timezone)
		}
		rStart, err := clockToMinutes(r.StartTime)
		if err != nil {
			continue
		}
		rEnd, err := clockToMinutes(r.EndTime)
		if err != nil {
			continue
		}
		if startMin < rEnd && endMin > rStart {
			return nil, fmt.Errorf("rule %s-%s overlaps existing rule %s-%s on day %d",
				req.StartTime, req.EndTime, r.StartTime, r.EndTime, req.DayOfWeek)
		}
	}

	now := time.Now().UTC()
	rule := &models.TherapistAvailability{
		ID:          uuid.New().String(),
		TherapistID: therapistID,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Timezone:    req.Timezone,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.Rules.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (e *DefaultEngine) ListWeeklyRules(ctx context.Context, therapistID string) ([]models.TherapistAvailability, error) {
	return e.Rules.ListRules(ctx, therapistID)
}

func (e *DefaultEngine) DeactivateRule(ctx context.Context, therapistID, ruleID string) error {
	return e.Rules.DeactivateRule(ctx, therapistID, ruleID)
}

// AddException records a one-off override for a specific date. BLOCKED with
// no window blocks the whole day; AVAILABLE requires a window.
func (e *DefaultEngine) AddException(ctx context.Context, therapistID string, req models.AddExceptionRequest) (*models.AvailabilityException, error) {
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, err)
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", req.Timezone, err)
	}
	if req.Type == models.ExceptionAvailable && (req.StartTime == "" || req.EndTime == "") {
		return nil, fmt.Errorf("an AVAILABLE exception requires a start and end time")
	}
	if req.StartTime != "" || req.EndTime != "" {
		if _, _, err := absoluteWindow(req.Date, req.StartTime, req.EndTime, req.Timezone); err != nil {
			return nil, err
		}
	}

	ex := &models.AvailabilityException{
		ID:          uuid.New().String(),
		TherapistID: therapistID,
		Date:        req.Date,
		Type:        req.Type,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Timezone:    req.Timezone,
		Reason:      req.Reason,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.Rules.AddException(ctx, ex); err != nil {
		return nil, err
	}
	return ex, nil
}

func (e *DefaultEngine) ListExceptions(ctx context.Context, therapistID, fromDate, toDate string) ([]models.AvailabilityException, error) {
	return e.Rules.ListExceptions(ctx, therapistID, fromDate, toDate)
}

func (e *DefaultEngine) RemoveException(ctx context.Context, therapistID, exceptionID string) error {
	return e.Rules.RemoveException(ctx, therapistID, exceptionID)
}
