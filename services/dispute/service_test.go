package dispute

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingRepo "therapia/database/repository/booking"
	disputeRepo "therapia/database/repository/dispute"
	"therapia/models"
	"therapia/services/payment"

	"go.uber.org/zap"
)

// Fakes embed the interfaces they stand in for; only the methods the dispute
// service touches are implemented.

type fakeDisputes struct {
	disputeRepo.DisputeRepository
	byID      map[string]*models.SessionDispute
	byBooking map[string]string
}

func newFakeDisputes() *fakeDisputes {
	return &fakeDisputes{
		byID:      map[string]*models.SessionDispute{},
		byBooking: map[string]string{},
	}
}

func (f *fakeDisputes) Create(_ context.Context, d *models.SessionDispute) error {
	if _, exists := f.byBooking[d.BookingID]; exists {
		return disputeRepo.ErrDuplicate
	}
	cp := *d
	f.byID[d.ID] = &cp
	f.byBooking[d.BookingID] = d.ID
	return nil
}

func (f *fakeDisputes) GetByID(_ context.Context, id string) (*models.SessionDispute, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, errors.New("dispute not found")
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDisputes) Update(_ context.Context, d *models.SessionDispute) error {
	cp := *d
	f.byID[d.ID] = &cp
	return nil
}

func (f *fakeDisputes) List(_ context.Context, status models.DisputeStatus, _, _ int) ([]models.SessionDispute, error) {
	var out []models.SessionDispute
	for _, d := range f.byID {
		if status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeBookings struct {
	bookingRepo.BookingRepository
	byID map[string]*models.Booking
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) Update(_ context.Context, b *models.Booking) error {
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

type fakePayments struct {
	payment.Service
	refunds []float64
	fail    bool
}

func (f *fakePayments) RefundBooking(_ context.Context, b *models.Booking, amount float64, _ string) error {
	if f.fail {
		return errors.New("gateway unavailable")
	}
	f.refunds = append(f.refunds, amount)
	b.AmountRefunded += amount
	return nil
}

type fakeEvents struct {
	types []models.EventType
}

func (f *fakeEvents) Publish(_ context.Context, e models.Event) {
	f.types = append(f.types, e.Type)
}

func completedBooking(id string, end time.Time) *models.Booking {
	return &models.Booking{
		ID: id, PatientID: "pat-1", TherapistID: "th-1",
		StartDateTime: end.Add(-time.Hour), EndDateTime: end,
		Status:   models.StatusCompleted,
		Subtotal: 100.00, PaymentIntentID: "pi_" + id,
		PaymentStatus: models.PaymentPaid,
	}
}

func newService(bookings *fakeBookings, payments *fakePayments) (*DefaultService, *fakeDisputes, *fakeEvents) {
	disputes := newFakeDisputes()
	events := &fakeEvents{}
	return &DefaultService{
		Disputes: disputes,
		Bookings: bookings,
		Payments: payments,
		Events:   events,
		Logger:   zap.NewNop(),
		Window:   7 * 24 * time.Hour,
	}, disputes, events
}

func patient() models.Actor {
	return models.Actor{ID: "pat-1", Role: models.RolePatient}
}

func admin() models.Actor {
	return models.Actor{ID: "adm-1", Role: models.RoleAdmin}
}

func TestRaiseWindow(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name    string
		endedAgo time.Duration
		wantErr error
	}{
		{"day 6 accepted", 6 * 24 * time.Hour, nil},
		{"day 8 rejected", 8 * 24 * time.Hour, ErrWindowClosed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bookings := &fakeBookings{byID: map[string]*models.Booking{
				"b-1": completedBooking("b-1", now.Add(-tc.endedAgo)),
			}}
			svc, _, events := newService(bookings, &fakePayments{})

			d, err := svc.Raise(context.Background(), patient(), models.RaiseDisputeRequest{
				BookingID: "b-1", Reason: "session cut short",
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, expected %v", err, tc.wantErr)
			}
			if tc.wantErr == nil {
				if d.Status != models.DisputeOpen || d.RaisedBy != "pat-1" {
					t.Errorf("dispute = %+v", d)
				}
				if len(events.types) != 1 || events.types[0] != models.EventDisputeFiled {
					t.Errorf("events = %v", events.types)
				}
			}
		})
	}
}

func TestRaiseGuards(t *testing.T) {
	now := time.Now().UTC()
	bookings := &fakeBookings{byID: map[string]*models.Booking{
		"done":    completedBooking("done", now.Add(-24*time.Hour)),
		"pending": {ID: "pending", PatientID: "pat-1", TherapistID: "th-1", Status: models.StatusConfirmed, EndDateTime: now.Add(-time.Hour)},
	}}
	svc, _, _ := newService(bookings, &fakePayments{})

	if _, err := svc.Raise(context.Background(), models.Actor{ID: "stranger", Role: models.RolePatient},
		models.RaiseDisputeRequest{BookingID: "done", Reason: "x"}); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("stranger: error = %v", err)
	}
	if _, err := svc.Raise(context.Background(), patient(),
		models.RaiseDisputeRequest{BookingID: "pending", Reason: "x"}); !errors.Is(err, ErrNotCompleted) {
		t.Errorf("uncompleted: error = %v", err)
	}

	if _, err := svc.Raise(context.Background(), patient(),
		models.RaiseDisputeRequest{BookingID: "done", Reason: "x"}); err != nil {
		t.Fatalf("first dispute failed: %v", err)
	}
	if _, err := svc.Raise(context.Background(), patient(),
		models.RaiseDisputeRequest{BookingID: "done", Reason: "again"}); !errors.Is(err, ErrAlreadyDisputed) {
		t.Errorf("duplicate: error = %v", err)
	}
}

func TestResolveWithRefund(t *testing.T) {
	now := time.Now().UTC()
	bookings := &fakeBookings{byID: map[string]*models.Booking{
		"b-1": completedBooking("b-1", now.Add(-24*time.Hour)),
	}}
	payments := &fakePayments{}
	svc, _, events := newService(bookings, payments)

	raised, err := svc.Raise(context.Background(), patient(), models.RaiseDisputeRequest{
		BookingID: "b-1", Reason: "no-show",
	})
	if err != nil {
		t.Fatalf("raise failed: %v", err)
	}

	d, err := svc.Resolve(context.Background(), admin(), raised.ID, models.ResolveDisputeRequest{
		Resolution: "therapist no-show confirmed", RefundType: "full",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if d.Status != models.DisputeResolved || !d.RefundIssued || d.RefundAmount != 100.00 {
		t.Errorf("dispute = %+v", d)
	}
	if len(payments.refunds) != 1 || payments.refunds[0] != 100.00 {
		t.Errorf("refunds = %v", payments.refunds)
	}
	if bookings.byID["b-1"].AmountRefunded != 100.00 {
		t.Errorf("booking refund not persisted: %.2f", bookings.byID["b-1"].AmountRefunded)
	}
	last := events.types[len(events.types)-1]
	if last != models.EventDisputeResolved {
		t.Errorf("last event = %s", last)
	}

	// A resolved dispute cannot be resolved again.
	if _, err := svc.Resolve(context.Background(), admin(), raised.ID, models.ResolveDisputeRequest{
		Resolution: "again", RefundType: "none",
	}); !errors.Is(err, ErrNotOpen) {
		t.Errorf("re-resolve: error = %v", err)
	}
}

func TestResolveRefundFailureStillResolves(t *testing.T) {
	now := time.Now().UTC()
	bookings := &fakeBookings{byID: map[string]*models.Booking{
		"b-1": completedBooking("b-1", now.Add(-24*time.Hour)),
	}}
	svc, _, _ := newService(bookings, &fakePayments{fail: true})

	raised, err := svc.Raise(context.Background(), patient(), models.RaiseDisputeRequest{
		BookingID: "b-1", Reason: "no-show",
	})
	if err != nil {
		t.Fatalf("raise failed: %v", err)
	}

	d, err := svc.Resolve(context.Background(), admin(), raised.ID, models.ResolveDisputeRequest{
		Resolution: "refund owed, gateway down", RefundType: "full",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if d.Status != models.DisputeResolved {
		t.Errorf("status = %s", d.Status)
	}
	if d.RefundIssued || d.RefundAmount != 0 {
		t.Errorf("refund recorded despite gateway failure: %+v", d)
	}
}

func TestResolveRequiresAdmin(t *testing.T) {
	now := time.Now().UTC()
	bookings := &fakeBookings{byID: map[string]*models.Booking{
		"b-1": completedBooking("b-1", now.Add(-24*time.Hour)),
	}}
	svc, _, _ := newService(bookings, &fakePayments{})

	raised, _ := svc.Raise(context.Background(), patient(), models.RaiseDisputeRequest{
		BookingID: "b-1", Reason: "x",
	})
	if _, err := svc.Resolve(context.Background(), patient(), raised.ID, models.ResolveDisputeRequest{
		Resolution: "self-serve", RefundType: "full",
	}); err == nil {
		t.Error("patient resolved a dispute")
	}
}

func TestClose(t *testing.T) {
	now := time.Now().UTC()
	bookings := &fakeBookings{byID: map[string]*models.Booking{
		"b-1": completedBooking("b-1", now.Add(-24*time.Hour)),
	}}
	payments := &fakePayments{}
	svc, _, _ := newService(bookings, payments)

	raised, _ := svc.Raise(context.Background(), patient(), models.RaiseDisputeRequest{
		BookingID: "b-1", Reason: "x",
	})
	d, err := svc.Close(context.Background(), admin(), raised.ID, "no grounds")
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if d.Status != models.DisputeClosed || d.Resolution != "no grounds" {
		t.Errorf("dispute = %+v", d)
	}
	if len(payments.refunds) != 0 {
		t.Errorf("close issued refunds: %v", payments.refunds)
	}
}
