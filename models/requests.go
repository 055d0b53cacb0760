package models

import (
	"fmt"
	"time"
)

// AvailableSlotsRequest asks for the bookable windows of a therapist on a date.
type AvailableSlotsRequest struct {
	TherapistID   string `form:"therapistId" binding:"required"`
	Date          string `form:"date" binding:"required"` // "YYYY-MM-DD"
	SessionTypeID string `form:"sessionTypeId" binding:"required"`
	Timezone      string `form:"timezone" binding:"required"` // requester's IANA zone
}

// CreateBookingRequest creates a booking for the authenticated patient.
type CreateBookingRequest struct {
	TherapistID   string `json:"therapistId" binding:"required"`
	SessionTypeID string `json:"sessionTypeId" binding:"required"`
	Start         string `json:"start" binding:"required"` // RFC3339
	Timezone      string `json:"timezone" binding:"required"`
	UsePackage    bool   `json:"usePackage"`
}

// ParseStart parses the requested start instant.
func (r CreateBookingRequest) ParseStart() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", r.Start, err)
	}
	return t.UTC(), nil
}

// CancelBookingRequest carries the optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

// RejectBookingRequest carries the mandatory rejection reason.
type RejectBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListBookingsQuery filters a booking listing. Page/Limit are normalized to
// sane ranges before use.
type ListBookingsQuery struct {
	Status string `form:"status"`
	From   string `form:"from"` // "YYYY-MM-DD", inclusive
	To     string `form:"to"`   // "YYYY-MM-DD", exclusive
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Normalize clamps paging and validates the status enum.
func (q *ListBookingsQuery) Normalize() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	switch BookingStatus(q.Status) {
	case "", StatusPendingPayment, StatusPendingAcceptance, StatusConfirmed,
		StatusInProgress, StatusCompleted, StatusCancelledByPatient, StatusCancelledByTherapist:
		return nil
	}
	return fmt.Errorf("unknown booking status %q", q.Status)
}

// SetWeeklyRuleRequest creates a recurring weekly availability rule.
type SetWeeklyRuleRequest struct {
	DayOfWeek int    `json:"dayOfWeek" binding:"min=0,max=6"`
	StartTime string `json:"startTime" binding:"required"` // "HH:MM"
	EndTime   string `json:"endTime" binding:"required"`
	Timezone  string `json:"timezone" binding:"required"`
}

// AddExceptionRequest creates a date-specific availability override.
type AddExceptionRequest struct {
	Date      string        `json:"date" binding:"required"`
	Type      ExceptionType `json:"type" binding:"required,oneof=AVAILABLE BLOCKED"`
	StartTime string        `json:"startTime"`
	EndTime   string        `json:"endTime"`
	Timezone  string        `json:"timezone" binding:"required"`
	Reason    string        `json:"reason"`
}

// PurchasePackageRequest buys a prepaid bundle of sessions.
type PurchasePackageRequest struct {
	TherapistID   string `json:"therapistId" binding:"required"`
	SessionTypeID string `json:"sessionTypeId" binding:"required"`
	Sessions      int    `json:"sessions" binding:"required,min=2,max=50"`
}

// RaiseDisputeRequest contests a completed session.
type RaiseDisputeRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest applies an arbiter's outcome to an open dispute.
type ResolveDisputeRequest struct {
	Resolution   string  `json:"resolution" binding:"required"`
	RefundType   string  `json:"refundType" binding:"required,oneof=none full partial"`
	RefundAmount float64 `json:"refundAmount"`
}

// ListDisputesQuery filters a dispute listing.
type ListDisputesQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Normalize clamps paging and validates the status enum.
func (q *ListDisputesQuery) Normalize() error {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	switch DisputeStatus(q.Status) {
	case "", DisputeOpen, DisputeResolved, DisputeClosed:
		return nil
	}
	return fmt.Errorf("unknown dispute status %q", q.Status)
}
