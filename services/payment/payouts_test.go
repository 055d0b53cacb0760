package payment

import (
	"context"
	"testing"

	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"

	"go.uber.org/zap"
)

type fakeTherapists struct {
	therapistRepo.TherapistRepository
	byID    map[string]*models.TherapistProfile
	updates int
}

func (f *fakeTherapists) GetByID(_ context.Context, id string) (*models.TherapistProfile, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, therapistRepo.ErrNotFound
	}
	return t, nil
}

func (f *fakeTherapists) GetByPayoutAccount(_ context.Context, accountID string) (*models.TherapistProfile, error) {
	for _, t := range f.byID {
		if t.PayoutAccountID == accountID {
			return t, nil
		}
	}
	return nil, therapistRepo.ErrNotFound
}

func (f *fakeTherapists) Update(_ context.Context, t *models.TherapistProfile) error {
	f.byID[t.ID] = t
	f.updates++
	return nil
}

func payoutService(gw *fakeGateway, therapists *fakeTherapists) *DefaultService {
	return &DefaultService{Gateway: gw, Therapists: therapists, Logger: zap.NewNop()}
}

func TestSetupPayoutAccount(t *testing.T) {
	gw := &fakeGateway{}
	therapists := &fakeTherapists{byID: map[string]*models.TherapistProfile{
		"th-1": {ID: "th-1", Active: true},
	}}
	svc := payoutService(gw, therapists)

	got, err := svc.SetupPayoutAccount(context.Background(), "th-1", "th@example.com", "US")
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if got.PayoutAccountID != "acct_test" {
		t.Errorf("accountID = %q, expected acct_test", got.PayoutAccountID)
	}
	if got.PayoutAccountReady {
		t.Error("fresh account reported ready before verification")
	}
	if therapists.byID["th-1"].PayoutAccountID != "acct_test" {
		t.Error("account ID not persisted")
	}

	// A retry refreshes readiness instead of creating a second account.
	gw.accountReady = true
	got, err = svc.SetupPayoutAccount(context.Background(), "th-1", "th@example.com", "US")
	if err != nil {
		t.Fatalf("repeat setup failed: %v", err)
	}
	if gw.accountsCreated != 1 {
		t.Errorf("accounts created = %d, expected 1", gw.accountsCreated)
	}
	if !got.PayoutAccountReady {
		t.Error("readiness not refreshed on repeat call")
	}
}

func TestSyncPayoutAccount(t *testing.T) {
	gw := &fakeGateway{accountReady: true}
	therapists := &fakeTherapists{byID: map[string]*models.TherapistProfile{
		"th-1": {ID: "th-1", PayoutAccountID: "acct_1"},
	}}
	svc := payoutService(gw, therapists)

	got, err := svc.SyncPayoutAccount(context.Background(), "acct_1")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !got.PayoutAccountReady {
		t.Error("readiness not flipped from account event")
	}
	if therapists.updates != 1 {
		t.Errorf("updates = %d, expected 1", therapists.updates)
	}

	// Redelivery with unchanged state writes nothing.
	if _, err := svc.SyncPayoutAccount(context.Background(), "acct_1"); err != nil {
		t.Fatalf("repeat sync failed: %v", err)
	}
	if therapists.updates != 1 {
		t.Errorf("updates after redelivery = %d, expected 1", therapists.updates)
	}
}

func TestPayoutAccountStatus(t *testing.T) {
	gw := &fakeGateway{accountReady: true}
	therapists := &fakeTherapists{byID: map[string]*models.TherapistProfile{
		"th-1": {ID: "th-1"},
		"th-2": {ID: "th-2", PayoutAccountID: "acct_2"},
	}}
	svc := payoutService(gw, therapists)

	got, err := svc.PayoutAccountStatus(context.Background(), "th-1")
	if err != nil {
		t.Fatalf("status without account failed: %v", err)
	}
	if got.PayoutAccountID != "" || got.PayoutAccountReady {
		t.Errorf("got %+v, expected unonboarded profile", got)
	}

	got, err = svc.PayoutAccountStatus(context.Background(), "th-2")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !got.PayoutAccountReady {
		t.Error("stale readiness not refreshed from gateway")
	}
	if therapists.updates != 1 {
		t.Errorf("updates = %d, expected 1", therapists.updates)
	}
}

func TestSyncPayoutAccountIgnoresUnknownAccounts(t *testing.T) {
	gw := &fakeGateway{}
	therapists := &fakeTherapists{byID: map[string]*models.TherapistProfile{}}
	svc := payoutService(gw, therapists)

	got, err := svc.SyncPayoutAccount(context.Background(), "acct_elsewhere")
	if err != nil {
		t.Fatalf("sync of unknown account errored: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, expected nil for an account this service never issued", got)
	}
}
