package availability

import (
	"context"
	"testing"
	"time"

	bookingRepo "therapia/database/repository/booking"
	"therapia/models"
)

// --- fakes ---

type fakeAvailabilityRepo struct {
	rules      []models.TherapistAvailability
	exceptions []models.AvailabilityException
}

func (f *fakeAvailabilityRepo) GetActiveRules(_ context.Context, therapistID string, dayOfWeek int) ([]models.TherapistAvailability, error) {
	var out []models.TherapistAvailability
	for _, r := range f.rules {
		if r.TherapistID == therapistID && r.DayOfWeek == dayOfWeek && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) ListRules(_ context.Context, therapistID string) ([]models.TherapistAvailability, error) {
	return f.rules, nil
}

func (f *fakeAvailabilityRepo) CreateRule(_ context.Context, rule *models.TherapistAvailability) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeAvailabilityRepo) DeactivateRule(_ context.Context, therapistID, ruleID string) error {
	for i := range f.rules {
		if f.rules[i].ID == ruleID {
			f.rules[i].Active = false
		}
	}
	return nil
}

func (f *fakeAvailabilityRepo) GetExceptions(_ context.Context, therapistID, date string) ([]models.AvailabilityException, error) {
	var out []models.AvailabilityException
	for _, ex := range f.exceptions {
		if ex.TherapistID == therapistID && ex.Date == date {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeAvailabilityRepo) ListExceptions(_ context.Context, therapistID, fromDate, toDate string) ([]models.AvailabilityException, error) {
	return f.exceptions, nil
}

func (f *fakeAvailabilityRepo) AddException(_ context.Context, ex *models.AvailabilityException) error {
	f.exceptions = append(f.exceptions, *ex)
	return nil
}

func (f *fakeAvailabilityRepo) RemoveException(_ context.Context, therapistID, exceptionID string) error {
	return nil
}

type fakeBookingRepo struct {
	holding []models.Booking
}

func (f *fakeBookingRepo) GetByID(context.Context, string) (*models.Booking, error) {
	return nil, bookingRepo.ErrNotFound
}
func (f *fakeBookingRepo) GetByPaymentIntent(context.Context, string) (*models.Booking, error) {
	return nil, bookingRepo.ErrNotFound
}
func (f *fakeBookingRepo) Update(context.Context, *models.Booking) error { return nil }
func (f *fakeBookingRepo) List(context.Context, bookingRepo.ListFilter) ([]models.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) ListHolding(_ context.Context, therapistID string, from, to time.Time) ([]models.Booking, error) {
	return f.holding, nil
}
func (f *fakeBookingRepo) CreateIfSlotFree(context.Context, *models.Booking, time.Duration) error {
	return nil
}
func (f *fakeBookingRepo) FindExpiredPendingAcceptance(context.Context, time.Time, int64) ([]models.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) FindEscrowDue(context.Context, time.Time, int64) ([]models.Booking, error) {
	return nil, nil
}
func (f *fakeBookingRepo) MarkEscrowReleased(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

// --- helpers ---

const therapistID = "t-1"

// futureDate returns a calendar date ~30 days out plus its weekday, so the
// generated slots are never filtered as already past.
func futureDate() (string, int) {
	d := time.Now().UTC().AddDate(0, 0, 30)
	return d.Format("2006-01-02"), int(d.Weekday())
}

func utcInstant(t *testing.T, date, clock, tz string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load location %s: %v", tz, err)
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		t.Fatalf("parse date %s: %v", date, err)
	}
	min, err := clockToMinutes(clock)
	if err != nil {
		t.Fatalf("parse clock %s: %v", clock, err)
	}
	return day.Add(time.Duration(min) * time.Minute).UTC()
}

func newEngine(rules *fakeAvailabilityRepo, bookings *fakeBookingRepo) *DefaultEngine {
	return &DefaultEngine{Rules: rules, Bookings: bookings, BufferMinutes: 15}
}

// --- tests ---

func TestGetAvailableSlotsNoRules(t *testing.T) {
	date, _ := futureDate()
	engine := newEngine(&fakeAvailabilityRepo{}, &fakeBookingRepo{})

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots for a day with no rules, got %d", len(slots))
	}
}

func TestGetAvailableSlotsWalksRuleWindow(t *testing.T) {
	date, dow := futureDate()
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: dow,
			StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true,
		}},
	}
	engine := newEngine(rules, &fakeBookingRepo{})

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 60-minute sessions plus a 15-minute buffer step: 09:00 and 10:15 fit,
	// 11:30 would end past the window.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(slots), slots)
	}
	if want := utcInstant(t, date, "09:00", "UTC"); !slots[0].Start.Equal(want) {
		t.Errorf("first slot start = %v, expected %v", slots[0].Start, want)
	}
	if want := utcInstant(t, date, "10:15", "UTC"); !slots[1].Start.Equal(want) {
		t.Errorf("second slot start = %v, expected %v", slots[1].Start, want)
	}
}

func TestGetAvailableSlotsBlockedDay(t *testing.T) {
	date, dow := futureDate()
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: dow,
			StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true,
		}},
		exceptions: []models.AvailabilityException{{
			ID: "e-1", TherapistID: therapistID, Date: date,
			Type: models.ExceptionBlocked, Timezone: "UTC",
		}},
	}
	engine := newEngine(rules, &fakeBookingRepo{})

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots on a fully blocked day, got %d", len(slots))
	}
}

func TestGetAvailableSlotsBlockedWindow(t *testing.T) {
	date, dow := futureDate()
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: dow,
			StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true,
		}},
		exceptions: []models.AvailabilityException{{
			ID: "e-1", TherapistID: therapistID, Date: date,
			Type: models.ExceptionBlocked, StartTime: "10:00", EndTime: "11:00", Timezone: "UTC",
		}},
	}
	engine := newEngine(rules, &fakeBookingRepo{})

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot with the 10:00-11:00 window blocked, got %d", len(slots))
	}
	if want := utcInstant(t, date, "09:00", "UTC"); !slots[0].Start.Equal(want) {
		t.Errorf("surviving slot start = %v, expected %v", slots[0].Start, want)
	}
}

func TestGetAvailableSlotsBookingConflict(t *testing.T) {
	date, dow := futureDate()
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: dow,
			StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true,
		}},
	}
	bookings := &fakeBookingRepo{
		holding: []models.Booking{{
			ID: "b-1", TherapistID: therapistID, Status: models.StatusConfirmed,
			StartDateTime: utcInstant(t, date, "09:30", "UTC"),
			EndDateTime:   utcInstant(t, date, "10:30", "UTC"),
		}},
	}
	engine := newEngine(rules, bookings)

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both 09:00 and 10:15 overlap the booking extended by the buffer.
	if len(slots) != 0 {
		t.Errorf("expected no slots around the 09:30-10:30 booking, got %d: %+v", len(slots), slots)
	}

	buffer := time.Duration(engine.BufferMinutes) * time.Minute
	for _, s := range slots {
		for _, b := range bookings.holding {
			if b.OverlapsWithBuffer(s.Start, s.End, buffer) {
				t.Errorf("slot %v overlaps holding booking %s", s.Start, b.ID)
			}
		}
	}
}

func TestGetAvailableSlotsAvailableException(t *testing.T) {
	date, dow := futureDate()
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: dow,
			StartTime: "09:00", EndTime: "10:15", Timezone: "UTC", Active: true,
		}},
		exceptions: []models.AvailabilityException{{
			ID: "e-1", TherapistID: therapistID, Date: date,
			Type: models.ExceptionAvailable, StartTime: "14:00", EndTime: "16:00", Timezone: "UTC",
		}},
	}
	engine := newEngine(rules, &fakeBookingRepo{})

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots (rule + exception window), got %d: %+v", len(slots), slots)
	}
	if want := utcInstant(t, date, "09:00", "UTC"); !slots[0].Start.Equal(want) {
		t.Errorf("first slot start = %v, expected %v", slots[0].Start, want)
	}
	if want := utcInstant(t, date, "14:00", "UTC"); !slots[1].Start.Equal(want) {
		t.Errorf("exception slot start = %v, expected %v", slots[1].Start, want)
	}
}

func TestGetAvailableSlotsAcrossTimezones(t *testing.T) {
	date, dow := futureDate()
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: dow,
			StartTime: "09:00", EndTime: "10:15", Timezone: "America/New_York", Active: true,
		}},
	}
	engine := newEngine(rules, &fakeBookingRepo{})

	slots, err := engine.GetAvailableSlots(context.Background(), therapistID, date, 60, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	want := utcInstant(t, date, "09:00", "America/New_York")
	if !slots[0].Start.Equal(want) {
		t.Errorf("slot start = %v, expected New York 09:00 = %v", slots[0].Start, want)
	}
	if slots[0].Display == "" {
		t.Error("slot display string must be localized, got empty")
	}
}

func TestSetWeeklyRuleRejectsOverlap(t *testing.T) {
	rules := &fakeAvailabilityRepo{
		rules: []models.TherapistAvailability{{
			ID: "r-1", TherapistID: therapistID, DayOfWeek: 2,
			StartTime: "09:00", EndTime: "12:00", Timezone: "UTC", Active: true,
		}},
	}
	engine := newEngine(rules, &fakeBookingRepo{})

	cases := []struct {
		name      string
		req       models.SetWeeklyRuleRequest
		expectErr bool
	}{
		{
			name:      "overlapping window rejected",
			req:       models.SetWeeklyRuleRequest{DayOfWeek: 2, StartTime: "11:00", EndTime: "13:00", Timezone: "UTC"},
			expectErr: true,
		},
		{
			name:      "adjacent window accepted",
			req:       models.SetWeeklyRuleRequest{DayOfWeek: 2, StartTime: "12:00", EndTime: "14:00", Timezone: "UTC"},
			expectErr: false,
		},
		{
			name:      "different day accepted",
			req:       models.SetWeeklyRuleRequest{DayOfWeek: 3, StartTime: "09:00", EndTime: "12:00", Timezone: "UTC"},
			expectErr: false,
		},
		{
			name:      "inverted window rejected",
			req:       models.SetWeeklyRuleRequest{DayOfWeek: 4, StartTime: "12:00", EndTime: "09:00", Timezone: "UTC"},
			expectErr: true,
		},
		{
			name:      "malformed clock rejected",
			req:       models.SetWeeklyRuleRequest{DayOfWeek: 4, StartTime: "9am", EndTime: "12:00", Timezone: "UTC"},
			expectErr: true,
		},
	}

	for _, c := range cases {
		_, err := engine.SetWeeklyRule(context.Background(), therapistID, c.req)
		if c.expectErr && err == nil {
			t.Errorf("%s: expected error, got nil", c.name)
		}
		if !c.expectErr && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
	}
}

func TestClockToMinutes(t *testing.T) {
	cases := []struct {
		clock     string
		expected  int
		expectErr bool
	}{
		{clock: "00:00", expected: 0},
		{clock: "09:05", expected: 545},
		{clock: "14:35", expected: 875},
		{clock: "23:59", expected: 1439},
		{clock: "24:00", expectErr: true},
		{clock: "12:60", expectErr: true},
		{clock: "noon", expectErr: true},
	}
	for _, c := range cases {
		got, err := clockToMinutes(c.clock)
		if c.expectErr {
			if err == nil {
				t.Errorf("%q: expected error, got %d", c.clock, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.clock, err)
			continue
		}
		if got != c.expected {
			t.Errorf("%q: got %d, expected %d", c.clock, got, c.expected)
		}
	}
}
