package models

import (
	"testing"
	"time"
)

func TestCompletionStateComplete(t *testing.T) {
	cases := []struct {
		name     string
		state    CompletionState
		expected bool
	}{
		{
			name:     "neither confirmed",
			state:    CompletionState{},
			expected: false,
		},
		{
			name:     "patient only",
			state:    CompletionState{PatientConfirmed: true},
			expected: false,
		},
		{
			name:     "therapist only",
			state:    CompletionState{TherapistConfirmed: true},
			expected: false,
		},
		{
			name:     "both confirmed",
			state:    CompletionState{PatientConfirmed: true, TherapistConfirmed: true},
			expected: true,
		},
	}

	for _, c := range cases {
		if got := c.state.Complete(); got != c.expected {
			t.Errorf("%s: Complete() = %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestBookingOverlapsWithBuffer(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	booking := &Booking{
		StartDateTime: base,
		EndDateTime:   base.Add(time.Hour),
	}
	buffer := 15 * time.Minute

	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected bool
	}{
		{
			name:     "fully inside",
			start:    base.Add(10 * time.Minute),
			end:      base.Add(30 * time.Minute),
			expected: true,
		},
		{
			name:     "well before",
			start:    base.Add(-3 * time.Hour),
			end:      base.Add(-2 * time.Hour),
			expected: false,
		},
		{
			name:     "well after",
			start:    base.Add(3 * time.Hour),
			end:      base.Add(4 * time.Hour),
			expected: false,
		},
		{
			name:     "inside leading buffer",
			start:    base.Add(-1 * time.Hour),
			end:      base.Add(-10 * time.Minute),
			expected: true,
		},
		{
			name:     "touching trailing buffer boundary is inclusive",
			start:    base.Add(time.Hour).Add(buffer),
			end:      base.Add(2 * time.Hour),
			expected: true,
		},
		{
			name:     "one minute past the trailing buffer",
			start:    base.Add(time.Hour).Add(buffer).Add(time.Minute),
			end:      base.Add(3 * time.Hour),
			expected: false,
		},
	}

	for _, c := range cases {
		if got := booking.OverlapsWithBuffer(c.start, c.end, buffer); got != c.expected {
			t.Errorf("%s: OverlapsWithBuffer = %v, expected %v", c.name, got, c.expected)
		}
	}
}

func TestHoldingStatuses(t *testing.T) {
	holding := map[BookingStatus]bool{}
	for _, s := range HoldingStatuses() {
		holding[s] = true
	}
	if !holding[StatusPendingAcceptance] || !holding[StatusConfirmed] || !holding[StatusInProgress] {
		t.Errorf("holding statuses must include pending-acceptance, confirmed and in-progress: %v", holding)
	}
	if holding[StatusPendingPayment] || holding[StatusCompleted] {
		t.Errorf("pending-payment and completed must not hold a slot: %v", holding)
	}
}
