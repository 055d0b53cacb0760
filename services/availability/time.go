package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// clockToMinutes converts a local "HH:MM" string to minutes from midnight.
func clockToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return h*60 + m, nil
}

// absoluteWindow resolves a local date + "HH:MM" start/end pair in the given
// IANA zone to absolute UTC instants. All slot arithmetic happens on these
// instants, so comparisons are correct across timezone boundaries.
func absoluteWindow(date, startClock, endClock, tz string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	startMin, err := clockToMinutes(startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := clockToMinutes(endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endMin <= startMin {
		return time.Time{}, time.Time{}, fmt.Errorf("window end %q must be after start %q", endClock, startClock)
	}
	start := day.Add(time.Duration(startMin) * time.Minute).UTC()
	end := day.Add(time.Duration(endMin) * time.Minute).UTC()
	return start, end, nil
}

// dayBounds returns the UTC instants bounding the local calendar date in the
// given zone.
func dayBounds(date, tz string) (time.Time, time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	day, err := time.ParseInLocation(dateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}
