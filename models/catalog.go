package models

import "time"

// SessionType is a bookable session category with a duration and default
// price. TherapistID is empty for platform-wide types.
type SessionType struct {
	ID              string    `bson:"id" json:"id"`
	TherapistID     string    `bson:"therapist_id,omitempty" json:"therapistId,omitempty"`
	Name            string    `bson:"name" json:"name"`
	DurationMinutes int       `bson:"duration_minutes" json:"durationMinutes"`
	DefaultPrice    float64   `bson:"default_price" json:"defaultPrice"`
	Currency        string    `bson:"currency" json:"currency"`
	Active          bool      `bson:"active" json:"active"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}

// SessionPricing is a therapist-specific price override for a session type.
type SessionPricing struct {
	ID            string    `bson:"id" json:"id"`
	TherapistID   string    `bson:"therapist_id" json:"therapistId"`
	SessionTypeID string    `bson:"session_type_id" json:"sessionTypeId"`
	Price         float64   `bson:"price" json:"price"`
	Active        bool      `bson:"active" json:"active"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

// CommissionScope identifies which level of the precedence chain a
// commission setting applies to.
type CommissionScope string

const (
	CommissionTherapist    CommissionScope = "therapist"
	CommissionOrganization CommissionScope = "organization"
	CommissionPlatform     CommissionScope = "platform"
)

// CommissionSetting is one entry in the commission precedence chain:
// therapist-specific > organization-specific > platform default.
type CommissionSetting struct {
	ID             string          `bson:"id" json:"id"`
	Scope          CommissionScope `bson:"scope" json:"scope"`
	TherapistID    string          `bson:"therapist_id,omitempty" json:"therapistId,omitempty"`
	OrganizationID string          `bson:"organization_id,omitempty" json:"organizationId,omitempty"`
	Percentage     float64         `bson:"percentage" json:"percentage"`
	Active         bool            `bson:"active" json:"active"`
	CreatedAt      time.Time       `bson:"created_at" json:"createdAt"`
}

// PriceQuote is the resolved and split price for one session.
type PriceQuote struct {
	SessionType           *SessionType `json:"sessionType"`
	Subtotal              float64      `json:"subtotal"`
	PlatformFee           float64      `json:"platformFee"`
	PlatformFeePercentage float64      `json:"platformFeePercentage"`
	TherapistAmount       float64      `json:"therapistAmount"`
	OrganizationAmount    float64      `json:"organizationAmount"`
	Currency              string       `json:"currency"`
}
