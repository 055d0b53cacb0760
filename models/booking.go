package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPendingPayment      BookingStatus = "PENDING_PAYMENT"
	StatusPendingAcceptance   BookingStatus = "PENDING_ACCEPTANCE"
	StatusConfirmed           BookingStatus = "CONFIRMED"
	StatusInProgress          BookingStatus = "IN_PROGRESS"
	StatusCompleted           BookingStatus = "COMPLETED"
	StatusCancelledByPatient  BookingStatus = "CANCELLED_BY_PATIENT"
	StatusCancelledByTherapist BookingStatus = "CANCELLED_BY_THERAPIST"
)

// HoldingStatuses are the statuses that occupy a time slot and block
// other bookings from taking it.
func HoldingStatuses() []BookingStatus {
	return []BookingStatus{StatusPendingAcceptance, StatusConfirmed, StatusInProgress}
}

// PaymentStatus tracks the state of the money attached to a booking.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
)

// CompletionState is the two-party acknowledgment gate for session completion.
// A booking becomes COMPLETED only when both parties have confirmed.
type CompletionState struct {
	PatientConfirmed     bool       `bson:"patient_confirmed" json:"patientConfirmed"`
	PatientConfirmedAt   *time.Time `bson:"patient_confirmed_at,omitempty" json:"patientConfirmedAt,omitempty"`
	TherapistConfirmed   bool       `bson:"therapist_confirmed" json:"therapistConfirmed"`
	TherapistConfirmedAt *time.Time `bson:"therapist_confirmed_at,omitempty" json:"therapistConfirmedAt,omitempty"`
}

// Complete reports whether both parties have acknowledged completion.
func (c CompletionState) Complete() bool {
	return c.PatientConfirmed && c.TherapistConfirmed
}

// Booking represents a single therapy session booking.
// Monetary invariant: Subtotal == PlatformFee + TherapistAmount + OrganizationAmount
// at creation, and AmountRefunded never exceeds Subtotal afterwards.
type Booking struct {
	ID             string `bson:"id" json:"id"`
	PatientID      string `bson:"patient_id" json:"patientId"`
	TherapistID    string `bson:"therapist_id" json:"therapistId"`
	SessionTypeID  string `bson:"session_type_id" json:"sessionTypeId"`
	OrganizationID string `bson:"organization_id,omitempty" json:"organizationId,omitempty"`

	StartDateTime time.Time `bson:"start_date_time" json:"startDateTime"` // UTC
	EndDateTime   time.Time `bson:"end_date_time" json:"endDateTime"`     // UTC
	Timezone      string    `bson:"timezone" json:"timezone"`             // requester's IANA zone

	Status BookingStatus `bson:"status" json:"status"`

	Subtotal              float64 `bson:"subtotal" json:"subtotal"`
	PlatformFee           float64 `bson:"platform_fee" json:"platformFee"`
	PlatformFeePercentage float64 `bson:"platform_fee_percentage" json:"platformFeePercentage"`
	TherapistAmount       float64 `bson:"therapist_amount" json:"therapistAmount"`
	OrganizationAmount    float64 `bson:"organization_amount" json:"organizationAmount"`
	Currency              string  `bson:"currency" json:"currency"`

	PaymentIntentID string        `bson:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	PaymentStatus   PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	AmountRefunded  float64       `bson:"amount_refunded" json:"amountRefunded"`
	PaidViaPackage  bool          `bson:"paid_via_package" json:"paidViaPackage"`
	PackageID       string        `bson:"package_id,omitempty" json:"packageId,omitempty"`

	AcceptanceDeadline *time.Time `bson:"acceptance_deadline,omitempty" json:"acceptanceDeadline,omitempty"`
	EscrowReleasedAt   *time.Time `bson:"escrow_released_at,omitempty" json:"escrowReleasedAt,omitempty"`

	MeetingLink string `bson:"meeting_link,omitempty" json:"meetingLink,omitempty"`

	Completion  CompletionState `bson:"completion" json:"completion"`
	CompletedAt *time.Time      `bson:"completed_at,omitempty" json:"completedAt,omitempty"`

	CancelledAt        *time.Time `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy        string     `bson:"cancelled_by,omitempty" json:"cancelledBy,omitempty"`
	CancellationReason string     `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`
	RejectedAt         *time.Time `bson:"rejected_at,omitempty" json:"rejectedAt,omitempty"`
	RejectionReason    string     `bson:"rejection_reason,omitempty" json:"rejectionReason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsParticipant reports whether the given actor is the patient or the
// therapist of record.
func (b *Booking) IsParticipant(a Actor) bool {
	if a.Role == RolePatient && a.ID == b.PatientID {
		return true
	}
	if a.Role == RoleTherapist && a.TherapistID == b.TherapistID {
		return true
	}
	return false
}

// HoursUntilStart returns the (possibly negative) number of hours between
// now and the session start.
func (b *Booking) HoursUntilStart(now time.Time) float64 {
	return b.StartDateTime.Sub(now).Hours()
}

// OverlapsWithBuffer reports whether the booking, extended by buffer on both
// sides, overlaps the [start, end] window. Overlap is inclusive: touching
// boundaries count as a conflict.
func (b *Booking) OverlapsWithBuffer(start, end time.Time, buffer time.Duration) bool {
	bufStart := b.StartDateTime.Add(-buffer)
	bufEnd := b.EndDateTime.Add(buffer)
	return !start.After(bufEnd) && !end.Before(bufStart)
}

// RefundableRemainder is the amount still refundable before hitting the
// subtotal cap.
func (b *Booking) RefundableRemainder() float64 {
	return b.Subtotal - b.AmountRefunded
}
