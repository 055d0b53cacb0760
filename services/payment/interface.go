package payment

import (
	"context"

	"therapia/models"
)

// IntentInput describes the external payment intent requested for a booking
// or a package purchase.
type IntentInput struct {
	Amount      float64
	Currency    string
	Destination string // therapist's payout account
	FeeAmount   float64
	Metadata    map[string]string
}

// IntentResult is the gateway's handle for a created intent.
type IntentResult struct {
	IntentID     string
	ClientSecret string
}

// Gateway abstracts the outbound payment-gateway calls. All methods take a
// context with a bounded timeout; on failure no local state has changed and
// the caller may retry.
type Gateway interface {
	CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error)
	CancelIntent(ctx context.Context, intentID string) error
	Refund(ctx context.Context, intentID string, amount float64, currency, reason string) (string, error)
	Transfer(ctx context.Context, destination string, amount float64, currency string, metadata map[string]string) (string, error)
	CreatePayoutAccount(ctx context.Context, email, country string) (string, error)
	PayoutAccountReady(ctx context.Context, accountID string) (bool, error)
}

// Service is the payment orchestrator: it creates intents for bookings and
// guards the money-conservation invariants around refunds and escrow.
type Service interface {
	CreateBookingIntent(ctx context.Context, b *models.Booking, destination string) (*IntentResult, error)
	CreatePackageIntent(ctx context.Context, p *models.PackagePurchase, destination string) (*IntentResult, error)
	CancelIntent(ctx context.Context, intentID string) error

	// RefundBooking refunds the given amount against the booking's intent,
	// capped so cumulative refunds never exceed the subtotal and rejected
	// once escrow has been released. It mutates the booking's refund fields;
	// persisting them is the caller's single write.
	RefundBooking(ctx context.Context, b *models.Booking, amount float64, reason string) error

	// TransferOrganizationShare moves the organization's cut to its payout
	// account during escrow release.
	TransferOrganizationShare(ctx context.Context, b *models.Booking, destination string) error

	// SetupPayoutAccount creates the therapist's connected payout account on
	// first call and refreshes its readiness on subsequent calls.
	SetupPayoutAccount(ctx context.Context, therapistID, email, country string) (*models.TherapistProfile, error)

	// PayoutAccountStatus reports a therapist's onboarding state, refreshing
	// the readiness flag from the gateway when an account exists.
	PayoutAccountStatus(ctx context.Context, therapistID string) (*models.TherapistProfile, error)

	// SyncPayoutAccount reconciles a gateway account-status event with the
	// owning therapist's profile. Accounts this service never issued are
	// ignored.
	SyncPayoutAccount(ctx context.Context, accountID string) (*models.TherapistProfile, error)
}
