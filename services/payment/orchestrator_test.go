package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"therapia/models"

	"go.uber.org/zap"
)

type fakeGateway struct {
	refunds         []float64
	fail            bool
	accountsCreated int
	accountReady    bool
}

func (f *fakeGateway) CreateIntent(context.Context, IntentInput) (*IntentResult, error) {
	return &IntentResult{IntentID: "pi_test", ClientSecret: "cs_test"}, nil
}
func (f *fakeGateway) CancelIntent(context.Context, string) error { return nil }
func (f *fakeGateway) Refund(_ context.Context, _ string, amount float64, _, _ string) (string, error) {
	if f.fail {
		return "", errors.New("gateway unavailable")
	}
	f.refunds = append(f.refunds, amount)
	return "re_test", nil
}
func (f *fakeGateway) Transfer(context.Context, string, float64, string, map[string]string) (string, error) {
	return "tr_test", nil
}
func (f *fakeGateway) CreatePayoutAccount(context.Context, string, string) (string, error) {
	f.accountsCreated++
	return "acct_test", nil
}
func (f *fakeGateway) PayoutAccountReady(context.Context, string) (bool, error) {
	return f.accountReady, nil
}

func paidBooking() *models.Booking {
	return &models.Booking{
		ID:              "b-1",
		Subtotal:        100.00,
		PlatformFee:     15.00,
		TherapistAmount: 85.00,
		Currency:        "USD",
		PaymentIntentID: "pi_test",
		PaymentStatus:   models.PaymentPaid,
	}
}

func TestRefundBooking(t *testing.T) {
	gw := &fakeGateway{}
	svc := &DefaultService{Gateway: gw, Logger: zap.NewNop()}
	b := paidBooking()

	if err := svc.RefundBooking(context.Background(), b, 40.00, "partial"); err != nil {
		t.Fatalf("partial refund failed: %v", err)
	}
	if b.AmountRefunded != 40.00 {
		t.Errorf("amount refunded = %.2f, expected 40.00", b.AmountRefunded)
	}
	if b.PaymentStatus != models.PaymentPartiallyRefunded {
		t.Errorf("payment status = %s, expected PARTIALLY_REFUNDED", b.PaymentStatus)
	}

	if err := svc.RefundBooking(context.Background(), b, 60.00, "remainder"); err != nil {
		t.Fatalf("second refund failed: %v", err)
	}
	if b.PaymentStatus != models.PaymentRefunded {
		t.Errorf("payment status = %s, expected REFUNDED", b.PaymentStatus)
	}

	if err := svc.RefundBooking(context.Background(), b, 0.01, "over"); !errors.Is(err, ErrRefundExceedsSubtotal) {
		t.Errorf("refund past subtotal: error = %v, expected ErrRefundExceedsSubtotal", err)
	}
}

func TestRefundBookingCapCheckedBeforeGatewayCall(t *testing.T) {
	gw := &fakeGateway{}
	svc := &DefaultService{Gateway: gw, Logger: zap.NewNop()}
	b := paidBooking()

	if err := svc.RefundBooking(context.Background(), b, 150.00, "too much"); !errors.Is(err, ErrRefundExceedsSubtotal) {
		t.Fatalf("error = %v, expected ErrRefundExceedsSubtotal", err)
	}
	if len(gw.refunds) != 0 {
		t.Errorf("gateway was called despite invariant violation: %v", gw.refunds)
	}
	if b.AmountRefunded != 0 {
		t.Errorf("booking mutated despite invariant violation: %.2f", b.AmountRefunded)
	}
}

func TestRefundBookingAfterEscrowRelease(t *testing.T) {
	svc := &DefaultService{Gateway: &fakeGateway{}, Logger: zap.NewNop()}
	b := paidBooking()
	released := time.Now().UTC()
	b.EscrowReleasedAt = &released

	if err := svc.RefundBooking(context.Background(), b, 10.00, "late"); !errors.Is(err, ErrEscrowReleased) {
		t.Errorf("error = %v, expected ErrEscrowReleased", err)
	}
}

func TestRefundBookingGatewayFailureLeavesStateUnchanged(t *testing.T) {
	gw := &fakeGateway{fail: true}
	svc := &DefaultService{Gateway: gw, Logger: zap.NewNop()}
	b := paidBooking()

	if err := svc.RefundBooking(context.Background(), b, 50.00, "flaky"); err == nil {
		t.Fatal("expected gateway error")
	}
	if b.AmountRefunded != 0 || b.PaymentStatus != models.PaymentPaid {
		t.Errorf("booking mutated after gateway failure: refunded=%.2f status=%s",
			b.AmountRefunded, b.PaymentStatus)
	}
}
