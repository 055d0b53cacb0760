package models

// Role identifies the kind of actor behind a request.
type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

// Actor is the resolved identity of the caller, built once per request by the
// auth middleware and passed down. ID is the user ID; TherapistID is set when
// the caller has a therapist profile, so components never re-resolve it.
type Actor struct {
	ID          string `json:"id"`
	Role        Role   `json:"role"`
	TherapistID string `json:"therapistId,omitempty"`
}
