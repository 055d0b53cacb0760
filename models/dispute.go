package models

import "time"

// DisputeStatus is the lifecycle state of a session dispute.
type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "OPEN"
	DisputeResolved DisputeStatus = "RESOLVED"
	DisputeClosed   DisputeStatus = "CLOSED"
)

// SessionDispute is a participant's contest of a completed session.
// At most one dispute may exist per booking (unique index on booking_id).
type SessionDispute struct {
	ID        string        `bson:"id" json:"id"`
	BookingID string        `bson:"booking_id" json:"bookingId"`
	RaisedBy  string        `bson:"raised_by" json:"raisedBy"` // user ID of the raiser
	Reason    string        `bson:"reason" json:"reason"`
	Status    DisputeStatus `bson:"status" json:"status"`

	Resolution   string  `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedBy   string  `bson:"resolved_by,omitempty" json:"resolvedBy,omitempty"`
	RefundIssued bool    `bson:"refund_issued" json:"refundIssued"`
	RefundAmount float64 `bson:"refund_amount" json:"refundAmount"`

	CreatedAt  time.Time  `bson:"created_at" json:"createdAt"`
	ResolvedAt *time.Time `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
}
