package models

import "time"

// TherapistProfile is the bookable profile of a therapist user.
type TherapistProfile struct {
	ID                 string    `bson:"id" json:"id"`
	UserID             string    `bson:"user_id" json:"userId"`
	DisplayName        string    `bson:"display_name" json:"displayName"`
	OrganizationID     string    `bson:"organization_id,omitempty" json:"organizationId,omitempty"`
	Timezone           string    `bson:"timezone" json:"timezone"`
	Active             bool      `bson:"active" json:"active"`
	AcceptingBookings  bool      `bson:"accepting_bookings" json:"acceptingBookings"`
	PayoutAccountID    string    `bson:"payout_account_id,omitempty" json:"payoutAccountId,omitempty"`
	PayoutAccountReady bool      `bson:"payout_account_ready" json:"payoutAccountReady"`
	CreatedAt          time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updatedAt"`
}

// Organization groups therapists under a practice or clinic. The share
// percentages split the post-fee remainder between the organization and the
// therapist; both zero means the whole remainder goes to the therapist.
type Organization struct {
	ID                  string    `bson:"id" json:"id"`
	Name                string    `bson:"name" json:"name"`
	PayoutAccountID     string    `bson:"payout_account_id,omitempty" json:"payoutAccountId,omitempty"`
	TherapistSharePct   float64   `bson:"therapist_share_pct" json:"therapistSharePct"`
	OrganizationSharePct float64  `bson:"organization_share_pct" json:"organizationSharePct"`
	Active              bool      `bson:"active" json:"active"`
	CreatedAt           time.Time `bson:"created_at" json:"createdAt"`
}
