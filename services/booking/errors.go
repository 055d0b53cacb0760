package booking

import (
	"fmt"

	"therapia/models"
)

// ErrorCode classifies a booking failure so the transport layer can map it
// to a response without string matching.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "validation"
	CodeNotFound      ErrorCode = "not_found"
	CodeUnauthorized  ErrorCode = "unauthorized"
	CodeStateConflict ErrorCode = "state_conflict"
	CodeSlotConflict  ErrorCode = "slot_conflict"
	CodeDeadline      ErrorCode = "deadline"
)

// Error is a booking failure with enough context for the caller to act on:
// a state conflict carries the booking's current status.
type Error struct {
	Code    ErrorCode
	Message string
	Status  models.BookingStatus
}

func (e *Error) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s: %s (current status %s)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newValidationErr(format string, args ...interface{}) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func newNotFoundErr(id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("booking %s not found", id)}
}

func newUnauthorizedErr(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func newStateErr(current models.BookingStatus, format string, args ...interface{}) *Error {
	return &Error{Code: CodeStateConflict, Message: fmt.Sprintf(format, args...), Status: current}
}

func newSlotConflictErr() *Error {
	return &Error{Code: CodeSlotConflict, Message: "the requested time slot is no longer available"}
}

func newDeadlineErr(format string, args ...interface{}) *Error {
	return &Error{Code: CodeDeadline, Message: fmt.Sprintf(format, args...)}
}
