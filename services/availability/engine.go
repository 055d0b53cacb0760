package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	availabilityRepo "therapia/database/repository/availability"
	bookingRepo "therapia/database/repository/booking"
	"therapia/models"
	"therapia/utils"

	"go.uber.org/zap"
)

// Engine computes bookable time windows and manages the weekly rules and
// date exceptions they derive from.
type Engine interface {
	GetAvailableSlots(ctx context.Context, therapistID, date string, durationMinutes int, requestTZ string) ([]models.AvailableSlot, error)

	SetWeeklyRule(ctx context.Context, therapistID string, req models.SetWeeklyRuleRequest) (*models.TherapistAvailability, error)
	ListWeeklyRules(ctx context.Context, therapistID string) ([]models.TherapistAvailability, error)
	DeactivateRule(ctx context.Context, therapistID, ruleID string) error

	AddException(ctx context.Context, therapistID string, req models.AddExceptionRequest) (*models.AvailabilityException, error)
	ListExceptions(ctx context.Context, therapistID, fromDate, toDate string) ([]models.AvailabilityException, error)
	RemoveException(ctx context.Context, therapistID, exceptionID string) error
}

// DefaultEngine derives slots from recurring rules, date exceptions and the
// holding bookings already on the calendar.
type DefaultEngine struct {
	Rules    availabilityRepo.AvailabilityRepository
	Bookings bookingRepo.BookingRepository
	// BufferMinutes is the gap enforced between consecutive sessions.
	BufferMinutes int
}

// window is a resolved absolute time span.
type window struct {
	start time.Time
	end   time.Time
}

func (w window) overlaps(start, end time.Time) bool {
	return start.Before(w.end) && end.After(w.start)
}

// GetAvailableSlots computes the bookable windows for a therapist on a date.
// A day with no active rules yields an empty list, not an error.
func (e *DefaultEngine) GetAvailableSlots(ctx context.Context, therapistID, date string, durationMinutes int, requestTZ string) ([]models.AvailableSlot, error) {
	logger := utils.GetLogger()

	if durationMinutes <= 0 {
		return nil, fmt.Errorf("session duration must be positive, got %d", durationMinutes)
	}
	reqLoc, err := time.LoadLocation(requestTZ)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", requestTZ, err)
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	rules, err := e.Rules.GetActiveRules(ctx, therapistID, int(day.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to load availability rules: %w", err)
	}

	exceptions, err := e.Rules.GetExceptions(ctx, therapistID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability exceptions: %w", err)
	}
	blocked, extra, err := e.resolveExceptions(date, exceptions)
	if err != nil {
		return nil, err
	}

	// Fetch holding bookings over a widened window so rules resolving to a
	// neighbouring UTC day are still covered.
	queryFrom := day.Add(-24 * time.Hour)
	queryTo := day.Add(48 * time.Hour)
	holding, err := e.Bookings.ListHolding(ctx, therapistID, queryFrom, queryTo)
	if err != nil {
		return nil, fmt.Errorf("failed to load holding bookings: %w", err)
	}

	duration := time.Duration(durationMinutes) * time.Minute
	buffer := time.Duration(e.BufferMinutes) * time.Minute
	now := time.Now().UTC()

	seen := make(map[int64]bool)
	var slots []models.AvailableSlot

	emit := func(w window) {
		for start := w.start; !start.Add(duration).After(w.end); start = start.Add(duration + buffer) {
			end := start.Add(duration)
			if start.Before(now) {
				continue
			}
			if e.insideBlocked(blocked, start, end) {
				continue
			}
			if e.conflictsWithBooking(holding, start, end, buffer) {
				continue
			}
			key := start.Unix()
			if seen[key] {
				continue
			}
			seen[key] = true
			slots = append(slots, models.AvailableSlot{
				Start:           start,
				End:             end,
				Display:         formatSlot(start, end, reqLoc),
				DurationMinutes: durationMinutes,
			})
		}
	}

	for _, rule := range rules {
		start, end, err := absoluteWindow(date, rule.StartTime, rule.EndTime, rule.Timezone)
		if err != nil {
			logger.Warn("skipping malformed availability rule",
				zap.String("therapistID", therapistID), zap.String("ruleID", rule.ID), zap.Error(err))
			continue
		}
		emit(window{start: start, end: end})
	}

	// One-off AVAILABLE exception windows are walked the same way; the seen
	// map drops duplicates of slots already produced by recurring rules.
	for _, w := range extra {
		emit(w)
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots, nil
}

// resolveExceptions splits the date's exceptions into blocked windows and
// extra AVAILABLE windows, all on absolute instants.
func (e *DefaultEngine) resolveExceptions(date string, exceptions []models.AvailabilityException) (blocked, extra []window, err error) {
	for _, ex := range exceptions {
		switch ex.Type {
		case models.ExceptionBlocked:
			if ex.StartTime == "" || ex.EndTime == "" {
				// Whole day blocked.
				start, end, derr := dayBounds(date, ex.Timezone)
				if derr != nil {
					return nil, nil, derr
				}
				blocked = append(blocked, window{start: start, end: end})
				continue
			}
			start, end, derr := absoluteWindow(date, ex.StartTime, ex.EndTime, ex.Timezone)
			if derr != nil {
				return nil, nil, derr
			}
			blocked = append(blocked, window{start: start, end: end})
		case models.ExceptionAvailable:
			start, end, derr := absoluteWindow(date, ex.StartTime, ex.EndTime, ex.Timezone)
			if derr != nil {
				return nil, nil, derr
			}
			extra = append(extra, window{start: start, end: end})
		}
	}
	return blocked, extra, nil
}

func (e *DefaultEngine) insideBlocked(blocked []window, start, end time.Time) bool {
	for _, w := range blocked {
		if w.overlaps(start, end) {
			return true
		}
	}
	return false
}

func (e *DefaultEngine) conflictsWithBooking(holding []models.Booking, start, end time.Time, buffer time.Duration) bool {
	for i := range holding {
		if holding[i].OverlapsWithBuffer(start, end, buffer) {
			return true
		}
	}
	return false
}

func formatSlot(start, end time.Time, loc *time.Location) string {
	s := start.In(loc)
	return fmt.Sprintf("%s - %s", s.Format("Mon, Jan 2 15:04"), end.In(loc).Format("15:04 MST"))
}
