package models

import "time"

// TherapistAvailability is one recurring weekly availability rule.
// StartTime/EndTime are local "HH:MM" strings in the rule's timezone.
// No two active rules for the same therapist/day may overlap in minutes.
type TherapistAvailability struct {
	ID          string    `bson:"id" json:"id"`
	TherapistID string    `bson:"therapist_id" json:"therapistId"`
	DayOfWeek   int       `bson:"day_of_week" json:"dayOfWeek"` // 0 = Sunday
	StartTime   string    `bson:"start_time" json:"startTime"`
	EndTime     string    `bson:"end_time" json:"endTime"`
	Timezone    string    `bson:"timezone" json:"timezone"`
	Active      bool      `bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// ExceptionType distinguishes one-off extra availability from blackout.
type ExceptionType string

const (
	ExceptionAvailable ExceptionType = "AVAILABLE"
	ExceptionBlocked   ExceptionType = "BLOCKED"
)

// AvailabilityException is a one-off override for a specific date. An empty
// StartTime/EndTime on a BLOCKED exception blocks the whole day.
type AvailabilityException struct {
	ID          string        `bson:"id" json:"id"`
	TherapistID string        `bson:"therapist_id" json:"therapistId"`
	Date        string        `bson:"date" json:"date"` // "YYYY-MM-DD"
	Type        ExceptionType `bson:"type" json:"type"`
	StartTime   string        `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime     string        `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Timezone    string        `bson:"timezone" json:"timezone"`
	Reason      string        `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`
}

// AvailableSlot is one bookable window. Start/End are absolute UTC instants;
// Display is localized to the requester's timezone.
type AvailableSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Display         string    `json:"display"`
	DurationMinutes int       `json:"durationMinutes"`
}
