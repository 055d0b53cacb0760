package models

import "time"

// PackagePurchase is a prepaid session bundle.
// Invariant: SessionsUsed + SessionsRemaining == SessionsTotal at all times.
// A purchase is provisional (PaymentStatus PENDING, Active false) until the
// gateway confirms payment.
type PackagePurchase struct {
	ID            string `bson:"id" json:"id"`
	PatientID     string `bson:"patient_id" json:"patientId"`
	TherapistID   string `bson:"therapist_id" json:"therapistId"`
	SessionTypeID string `bson:"session_type_id" json:"sessionTypeId"`

	SessionsTotal     int `bson:"sessions_total" json:"sessionsTotal"`
	SessionsUsed      int `bson:"sessions_used" json:"sessionsUsed"`
	SessionsRemaining int `bson:"sessions_remaining" json:"sessionsRemaining"`

	Price    float64 `bson:"price" json:"price"`
	Currency string  `bson:"currency" json:"currency"`

	PaymentIntentID string        `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	Active          bool          `bson:"active" json:"active"`

	PurchasedAt time.Time `bson:"purchased_at" json:"purchasedAt"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expiresAt"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}

// Usable reports whether the package can cover a session at the given time.
func (p *PackagePurchase) Usable(now time.Time) bool {
	return p.Active && p.SessionsRemaining > 0 && now.Before(p.ExpiresAt)
}
