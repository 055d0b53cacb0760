package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"
	"therapia/services/payment"

	"go.uber.org/zap"
)

type memPackages struct {
	byID map[string]*models.PackagePurchase
}

func (m *memPackages) Create(_ context.Context, p *models.PackagePurchase) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPackages) GetByID(_ context.Context, id string) (*models.PackagePurchase, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *p
	return &cp, nil
}

func (m *memPackages) GetByPaymentIntent(_ context.Context, intentID string) (*models.PackagePurchase, error) {
	for _, p := range m.byID {
		if p.PaymentIntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memPackages) ListByPatient(_ context.Context, patientID string, _, _ int) ([]models.PackagePurchase, error) {
	var out []models.PackagePurchase
	for _, p := range m.byID {
		if p.PatientID == patientID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPackages) FindActive(_ context.Context, patientID, sessionTypeID string, now time.Time) (*models.PackagePurchase, error) {
	for _, p := range m.byID {
		if p.PatientID == patientID && p.SessionTypeID == sessionTypeID && p.Usable(now) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPackages) Activate(_ context.Context, id string) (bool, error) {
	p, ok := m.byID[id]
	if !ok || p.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	p.PaymentStatus = models.PaymentPaid
	p.Active = true
	return true, nil
}

func (m *memPackages) MarkPaymentFailed(_ context.Context, id string) (bool, error) {
	p, ok := m.byID[id]
	if !ok || p.PaymentStatus != models.PaymentPending {
		return false, nil
	}
	p.PaymentStatus = models.PaymentFailed
	return true, nil
}

func (m *memPackages) ConsumeSession(_ context.Context, id string, now time.Time) (bool, error) {
	p, ok := m.byID[id]
	if !ok || !p.Usable(now) {
		return false, nil
	}
	p.SessionsRemaining--
	p.SessionsUsed++
	return true, nil
}

func (m *memPackages) RestoreSession(_ context.Context, id string) (bool, error) {
	p, ok := m.byID[id]
	if !ok || p.SessionsUsed < 1 {
		return false, nil
	}
	p.SessionsRemaining++
	p.SessionsUsed--
	return true, nil
}

type memTherapists struct {
	therapistRepo.TherapistRepository
	byID map[string]*models.TherapistProfile
}

func (m *memTherapists) GetByID(_ context.Context, id string) (*models.TherapistProfile, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return t, nil
}

func (m *memTherapists) GetByUserID(_ context.Context, _ string) (*models.TherapistProfile, error) {
	return nil, errors.New("not found")
}

func (m *memTherapists) Update(_ context.Context, t *models.TherapistProfile) error {
	m.byID[t.ID] = t
	return nil
}

func (m *memTherapists) GetOrganization(_ context.Context, _ string) (*models.Organization, error) {
	return nil, errors.New("not found")
}

type stubQuotes struct{}

func (stubQuotes) Quote(_ context.Context, _ *models.TherapistProfile, sessionTypeID string) (*models.PriceQuote, error) {
	return &models.PriceQuote{
		SessionType: &models.SessionType{ID: sessionTypeID, DurationMinutes: 60, Active: true},
		Subtotal:    80.00,
		Currency:    "USD",
	}, nil
}

type stubPayments struct {
	payment.Service
	intents   []string
	cancelled []string
}

func (s *stubPayments) CreateBookingIntent(_ context.Context, b *models.Booking, _ string) (*payment.IntentResult, error) {
	return &payment.IntentResult{IntentID: "pi_" + b.ID, ClientSecret: "cs"}, nil
}

func (s *stubPayments) CreatePackageIntent(_ context.Context, p *models.PackagePurchase, _ string) (*payment.IntentResult, error) {
	s.intents = append(s.intents, p.ID)
	return &payment.IntentResult{IntentID: "pi_" + p.ID, ClientSecret: "cs_" + p.ID}, nil
}

func (s *stubPayments) CancelIntent(_ context.Context, intentID string) error {
	s.cancelled = append(s.cancelled, intentID)
	return nil
}

func (s *stubPayments) RefundBooking(_ context.Context, _ *models.Booking, _ float64, _ string) error {
	return nil
}

func (s *stubPayments) TransferOrganizationShare(_ context.Context, _ *models.Booking, _ string) error {
	return nil
}

type stubEvents struct {
	types []models.EventType
}

func (s *stubEvents) Publish(_ context.Context, e models.Event) {
	s.types = append(s.types, e.Type)
}

func newService() (*DefaultService, *memPackages, *stubPayments, *stubEvents) {
	packages := &memPackages{byID: map[string]*models.PackagePurchase{}}
	payments := &stubPayments{}
	events := &stubEvents{}
	svc := &DefaultService{
		Packages: packages,
		Therapists: &memTherapists{byID: map[string]*models.TherapistProfile{
			"th-1": {ID: "th-1", Active: true, AcceptingBookings: true, PayoutAccountReady: true, PayoutAccountID: "acct_1"},
			"th-2": {ID: "th-2", Active: true, AcceptingBookings: true},
		}},
		Quotes:   stubQuotes{},
		Payments: payments,
		Events:   events,
		Logger:   zap.NewNop(),
		Validity: 90 * 24 * time.Hour,
	}
	return svc, packages, payments, events
}

func patient() models.Actor {
	return models.Actor{ID: "pat-1", Role: models.RolePatient}
}

func TestPurchase(t *testing.T) {
	svc, packages, payments, _ := newService()

	res, err := svc.Purchase(context.Background(), patient(), models.PurchasePackageRequest{
		TherapistID: "th-1", SessionTypeID: "st-1", Sessions: 5,
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	p := res.Purchase
	if p.Price != 400.00 {
		t.Errorf("price = %.2f, expected 400.00 for 5 sessions at 80.00", p.Price)
	}
	if p.Active || p.PaymentStatus != models.PaymentPending {
		t.Errorf("purchase should be provisional: active=%v status=%s", p.Active, p.PaymentStatus)
	}
	if p.SessionsRemaining != 5 || p.SessionsUsed != 0 {
		t.Errorf("credits = %d remaining / %d used", p.SessionsRemaining, p.SessionsUsed)
	}
	if want := p.PurchasedAt.Add(90 * 24 * time.Hour); !p.ExpiresAt.Equal(want) {
		t.Errorf("expires at %s, expected %s", p.ExpiresAt, want)
	}
	if res.ClientSecret == "" {
		t.Error("missing client secret")
	}
	if len(payments.intents) != 1 {
		t.Errorf("intents = %v", payments.intents)
	}
	if _, ok := packages.byID[p.ID]; !ok {
		t.Error("purchase not persisted")
	}
}

func TestPurchaseRejectsDuplicateActive(t *testing.T) {
	// Uniqueness is per patient and session type, not per therapist: a
	// second active package through another therapist would leave credit
	// resolution ambiguous.
	for _, tc := range []struct {
		name        string
		therapistID string
	}{
		{"same therapist", "th-1"},
		{"different therapist", "th-2"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc, packages, _, _ := newService()
			packages.byID["existing"] = &models.PackagePurchase{
				ID: "existing", PatientID: "pat-1", TherapistID: "th-1", SessionTypeID: "st-1",
				SessionsRemaining: 2, Active: true,
				ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour),
			}

			_, err := svc.Purchase(context.Background(), patient(), models.PurchasePackageRequest{
				TherapistID: tc.therapistID, SessionTypeID: "st-1", Sessions: 5,
			})
			if !errors.Is(err, ErrActivePackageExists) {
				t.Fatalf("error = %v, expected ErrActivePackageExists", err)
			}
		})
	}
}

func TestPurchaseAllowedOnceExistingIsSpent(t *testing.T) {
	svc, packages, _, _ := newService()
	packages.byID["spent"] = &models.PackagePurchase{
		ID: "spent", PatientID: "pat-1", TherapistID: "th-1", SessionTypeID: "st-1",
		SessionsRemaining: 0, SessionsUsed: 5, Active: true,
		ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour),
	}

	if _, err := svc.Purchase(context.Background(), patient(), models.PurchasePackageRequest{
		TherapistID: "th-1", SessionTypeID: "st-1", Sessions: 5,
	}); err != nil {
		t.Fatalf("purchase after exhausting previous package failed: %v", err)
	}
}

func TestHandlePaymentSucceededActivates(t *testing.T) {
	svc, packages, _, events := newService()

	res, err := svc.Purchase(context.Background(), patient(), models.PurchasePackageRequest{
		TherapistID: "th-1", SessionTypeID: "st-1", Sessions: 5,
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	if err := svc.HandlePaymentSucceeded(context.Background(), res.Purchase.PaymentIntentID); err != nil {
		t.Fatalf("activation failed: %v", err)
	}
	got := packages.byID[res.Purchase.ID]
	if !got.Active || got.PaymentStatus != models.PaymentPaid {
		t.Errorf("not activated: active=%v status=%s", got.Active, got.PaymentStatus)
	}
	if len(events.types) != 1 || events.types[0] != models.EventPackagePurchased {
		t.Errorf("events = %v", events.types)
	}

	// Redelivery activates nothing and publishes nothing new.
	if err := svc.HandlePaymentSucceeded(context.Background(), res.Purchase.PaymentIntentID); err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if len(events.types) != 1 {
		t.Errorf("redelivery published again: %v", events.types)
	}
}

func TestHandlePaymentFailed(t *testing.T) {
	svc, packages, _, _ := newService()

	res, err := svc.Purchase(context.Background(), patient(), models.PurchasePackageRequest{
		TherapistID: "th-1", SessionTypeID: "st-1", Sessions: 3,
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	if err := svc.HandlePaymentFailed(context.Background(), res.Purchase.PaymentIntentID); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	got := packages.byID[res.Purchase.ID]
	if got.PaymentStatus != models.PaymentFailed || got.Active {
		t.Errorf("status = %s active=%v", got.PaymentStatus, got.Active)
	}
}
