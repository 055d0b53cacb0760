package payment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
)

// externalCallTimeout bounds every outbound gateway call.
const externalCallTimeout = 10 * time.Second

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct{}

// NewStripeGateway returns a gateway using the globally configured Stripe key.
func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) CreateIntent(ctx context.Context, in IntentInput) (*IntentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(in.Amount)),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if in.Destination != "" {
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(in.Destination),
		}
		params.ApplicationFeeAmount = stripe.Int64(toMinorUnits(in.FeeAmount))
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &IntentResult{IntentID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(intentID, params); err != nil {
		return fmt.Errorf("failed to cancel payment intent %s: %w", intentID, err)
	}
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount float64, currency, reason string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.AddMetadata("reason", reason)
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to refund intent %s: %w", intentID, err)
	}
	return r.ID, nil
}

func (g *StripeGateway) Transfer(ctx context.Context, destination string, amount float64, currency string, metadata map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(toMinorUnits(amount)),
		Currency:    stripe.String(strings.ToLower(currency)),
		Destination: stripe.String(destination),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	tr, err := transfer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to transfer to %s: %w", destination, err)
	}
	return tr.ID, nil
}

func (g *StripeGateway) CreatePayoutAccount(ctx context.Context, email, country string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()

	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Email:   stripe.String(email),
		Country: stripe.String(country),
	}
	params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payout account: %w", err)
	}
	return acct.ID, nil
}

func (g *StripeGateway) PayoutAccountReady(ctx context.Context, accountID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, externalCallTimeout)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := account.GetByID(accountID, params)
	if err != nil {
		return false, fmt.Errorf("failed to fetch payout account %s: %w", accountID, err)
	}
	return acct.ChargesEnabled && acct.PayoutsEnabled, nil
}
