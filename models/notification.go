package models

import "time"

// EventType names a logical domain event emitted for the external notifier.
type EventType string

const (
	EventBookingCreated     EventType = "booking_created"
	EventBookingPaid        EventType = "booking_paid"
	EventBookingAccepted    EventType = "booking_accepted"
	EventBookingRejected    EventType = "booking_rejected"
	EventBookingCancelled   EventType = "booking_cancelled"
	EventBookingExpired     EventType = "booking_expired"
	EventBookingCompleted   EventType = "booking_completed"
	EventEscrowReleased     EventType = "escrow_released"
	EventRefundIssued       EventType = "refund_issued"
	EventDisputeFiled       EventType = "dispute_filed"
	EventDisputeResolved    EventType = "dispute_resolved"
	EventPackagePurchased   EventType = "package_purchased"
	EventPackageSessionUsed EventType = "package_session_used"
)

// Event is the payload handed to the notification collaborator. The core
// emits these; delivery (push, email, websocket) happens elsewhere.
type Event struct {
	Type        EventType         `json:"type"`
	BookingID   string            `json:"bookingId,omitempty"`
	PatientID   string            `json:"patientId,omitempty"`
	TherapistID string            `json:"therapistId,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}
