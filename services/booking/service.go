package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "therapia/database/repository/booking"
	packageRepo "therapia/database/repository/packages"
	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"
	"therapia/services/meeting"
	"therapia/services/notification"
	"therapia/services/payment"
	"therapia/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultService is the production booking service.
type DefaultService struct {
	Bookings   bookingRepo.BookingRepository
	Therapists therapistRepo.TherapistRepository
	Packages   packageRepo.PackageRepository
	Quotes     pricing.Calculator
	Payments   payment.Service
	Meetings   meeting.Provider
	Events     notification.Service
	Logger     *zap.Logger

	// Policy knobs, wired from config at assembly time.
	Buffer           time.Duration
	MinimumNotice    time.Duration
	AcceptanceWindow time.Duration
}

func (s *DefaultService) Create(ctx context.Context, actor models.Actor, req models.CreateBookingRequest) (*CreateResult, error) {
	if actor.Role != models.RolePatient {
		return nil, newUnauthorizedErr("only patients can create bookings")
	}

	start, err := req.ParseStart()
	if err != nil {
		return nil, newValidationErr("%v", err)
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, newValidationErr("unknown timezone %q", req.Timezone)
	}

	now := time.Now().UTC()
	if start.Sub(now) < s.MinimumNotice {
		return nil, newValidationErr("bookings require at least %s notice", s.MinimumNotice)
	}

	therapist, err := s.Therapists.GetByID(ctx, req.TherapistID)
	if err != nil {
		return nil, newValidationErr("therapist %s not found", req.TherapistID)
	}
	if !therapist.Active || !therapist.AcceptingBookings {
		return nil, newValidationErr("therapist %s is not accepting bookings", therapist.ID)
	}

	quote, err := s.Quotes.Quote(ctx, therapist, req.SessionTypeID)
	if err != nil {
		return nil, newValidationErr("%v", err)
	}

	b := &models.Booking{
		ID:             uuid.NewString(),
		PatientID:      actor.ID,
		TherapistID:    therapist.ID,
		SessionTypeID:  req.SessionTypeID,
		OrganizationID: therapist.OrganizationID,

		StartDateTime: start,
		EndDateTime:   start.Add(time.Duration(quote.SessionType.DurationMinutes) * time.Minute),
		Timezone:      req.Timezone,

		Status: models.StatusPendingPayment,

		Subtotal:              quote.Subtotal,
		PlatformFee:           quote.PlatformFee,
		PlatformFeePercentage: quote.PlatformFeePercentage,
		TherapistAmount:       quote.TherapistAmount,
		OrganizationAmount:    quote.OrganizationAmount,
		Currency:              quote.Currency,

		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if req.UsePackage {
		return s.createFromPackage(ctx, b, now)
	}
	return s.createWithPayment(ctx, b, therapist)
}

// createFromPackage funds the booking from a prepaid credit. The credit is
// consumed before the slot insert and restored if the insert loses the race.
func (s *DefaultService) createFromPackage(ctx context.Context, b *models.Booking, now time.Time) (*CreateResult, error) {
	pkg, err := s.Packages.FindActive(ctx, b.PatientID, b.SessionTypeID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to look up package: %w", err)
	}
	if pkg == nil || pkg.TherapistID != b.TherapistID {
		return nil, newValidationErr("no active package covers this session")
	}

	ok, err := s.Packages.ConsumeSession(ctx, pkg.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to consume package session: %w", err)
	}
	if !ok {
		return nil, newValidationErr("package %s has no sessions remaining", pkg.ID)
	}

	b.PaidViaPackage = true
	b.PackageID = pkg.ID
	b.PaymentStatus = models.PaymentPaid
	b.Status = models.StatusPendingAcceptance
	deadline := now.Add(s.AcceptanceWindow)
	b.AcceptanceDeadline = &deadline

	if err := s.Bookings.CreateIfSlotFree(ctx, b, s.Buffer); err != nil {
		if restored, rerr := s.Packages.RestoreSession(ctx, pkg.ID); rerr != nil || !restored {
			s.Logger.Error("failed to restore package session after slot conflict",
				zap.String("packageID", pkg.ID), zap.Bool("restored", restored), zap.Error(rerr))
		}
		if errors.Is(err, bookingRepo.ErrSlotConflict) {
			return nil, newSlotConflictErr()
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.Events.Publish(ctx, models.Event{
		Type: models.EventPackageSessionUsed, BookingID: b.ID,
		PatientID: b.PatientID, TherapistID: b.TherapistID,
		Data: map[string]string{"packageId": pkg.ID},
	})
	s.publish(ctx, models.EventBookingCreated, b, nil)
	return &CreateResult{Booking: b}, nil
}

// createWithPayment opens the payment intent first so that a slot conflict
// never strands money: the intent is cancelled best-effort when the
// transactional insert loses the race.
func (s *DefaultService) createWithPayment(ctx context.Context, b *models.Booking, therapist *models.TherapistProfile) (*CreateResult, error) {
	destination := ""
	if therapist.PayoutAccountReady {
		destination = therapist.PayoutAccountID
	}

	intent, err := s.Payments.CreateBookingIntent(ctx, b, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	b.PaymentIntentID = intent.IntentID

	if err := s.Bookings.CreateIfSlotFree(ctx, b, s.Buffer); err != nil {
		if cerr := s.Payments.CancelIntent(ctx, intent.IntentID); cerr != nil {
			s.Logger.Warn("failed to cancel intent after slot conflict",
				zap.String("intentID", intent.IntentID), zap.Error(cerr))
		}
		if errors.Is(err, bookingRepo.ErrSlotConflict) {
			return nil, newSlotConflictErr()
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(ctx, models.EventBookingCreated, b, nil)
	return &CreateResult{Booking: b, ClientSecret: intent.ClientSecret}, nil
}

func (s *DefaultService) HandlePaymentSucceeded(ctx context.Context, intentID string) error {
	b, err := s.Bookings.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("no booking for intent %s: %w", intentID, err)
	}
	if b.Status != models.StatusPendingPayment {
		// Webhook redelivery; the transition already happened.
		return nil
	}

	now := time.Now().UTC()
	deadline := now.Add(s.AcceptanceWindow)
	b.PaymentStatus = models.PaymentPaid
	b.Status = models.StatusPendingAcceptance
	b.AcceptanceDeadline = &deadline
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}

	s.publish(ctx, models.EventBookingPaid, b, nil)
	return nil
}

func (s *DefaultService) HandlePaymentFailed(ctx context.Context, intentID string) error {
	b, err := s.Bookings.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("no booking for intent %s: %w", intentID, err)
	}
	if b.Status != models.StatusPendingPayment {
		return nil
	}

	// The booking stays PENDING_PAYMENT so the client can retry; only the
	// payment status records the failure.
	now := time.Now().UTC()
	b.PaymentStatus = models.PaymentFailed
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}
	return nil
}

func (s *DefaultService) Accept(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleTherapist || actor.TherapistID != b.TherapistID {
		return nil, newUnauthorizedErr("only the booked therapist can accept")
	}
	if b.Status != models.StatusPendingAcceptance {
		return nil, newStateErr(b.Status, "booking cannot be accepted")
	}

	now := time.Now().UTC()
	if b.AcceptanceDeadline != nil && now.After(*b.AcceptanceDeadline) {
		if err := s.expire(ctx, b, now); err != nil {
			return nil, err
		}
		return nil, newDeadlineErr("the acceptance deadline has passed; the booking was cancelled and refunded")
	}

	duration := int(b.EndDateTime.Sub(b.StartDateTime).Minutes())
	b.MeetingLink = s.Meetings.CreateMeetingLink(ctx, b.ID, b.StartDateTime, duration)
	b.Status = models.StatusConfirmed
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}

	s.publish(ctx, models.EventBookingAccepted, b, nil)
	return b, nil
}

func (s *DefaultService) Reject(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleTherapist || actor.TherapistID != b.TherapistID {
		return nil, newUnauthorizedErr("only the booked therapist can reject")
	}
	if b.Status != models.StatusPendingAcceptance {
		return nil, newStateErr(b.Status, "booking cannot be rejected")
	}

	now := time.Now().UTC()
	if err := s.returnFunds(ctx, b, b.RefundableRemainder(), "therapist rejected"); err != nil {
		return nil, err
	}
	b.Status = models.StatusCancelledByTherapist
	b.RejectedAt = &now
	b.RejectionReason = reason
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}

	s.publish(ctx, models.EventBookingRejected, b, map[string]string{"reason": reason})
	return b, nil
}

func (s *DefaultService) Cancel(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(actor) {
		return nil, newUnauthorizedErr("only a participant can cancel a booking")
	}
	if b.Status != models.StatusPendingAcceptance && b.Status != models.StatusConfirmed {
		return nil, newStateErr(b.Status, "booking cannot be cancelled")
	}

	now := time.Now().UTC()

	// The notice-based refund tiers apply to both parties; a started
	// session cannot be cancelled by anyone.
	refund, err := payment.CancellationRefund(b.Subtotal, b.HoursUntilStart(now))
	if errors.Is(err, payment.ErrSessionStarted) {
		return nil, newDeadlineErr("the session has already started")
	}
	if err != nil {
		return nil, err
	}

	finalStatus := models.StatusCancelledByPatient
	if actor.Role == models.RoleTherapist {
		finalStatus = models.StatusCancelledByTherapist
	}

	if err := s.returnFunds(ctx, b, refund, "booking cancelled"); err != nil {
		return nil, err
	}
	b.Status = finalStatus
	b.CancelledAt = &now
	b.CancelledBy = actor.ID
	b.CancellationReason = reason
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}

	s.publish(ctx, models.EventBookingCancelled, b, map[string]string{"reason": reason})
	if b.PaidViaPackage {
		s.publish(ctx, models.EventRefundIssued, b, map[string]string{"creditRestored": "true"})
	} else if refund > 0 {
		s.publish(ctx, models.EventRefundIssued, b, map[string]string{
			"amount": fmt.Sprintf("%.2f", refund),
		})
	}
	return b, nil
}

func (s *DefaultService) MarkCompleted(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsParticipant(actor) {
		return nil, newUnauthorizedErr("only a participant can confirm completion")
	}
	if b.Status != models.StatusConfirmed && b.Status != models.StatusInProgress {
		return nil, newStateErr(b.Status, "booking cannot be marked completed")
	}

	now := time.Now().UTC()
	if now.Before(b.StartDateTime) {
		return nil, newValidationErr("the session has not started yet")
	}

	switch actor.Role {
	case models.RolePatient:
		if b.Completion.PatientConfirmed {
			return b, nil
		}
		b.Completion.PatientConfirmed = true
		b.Completion.PatientConfirmedAt = &now
	case models.RoleTherapist:
		if b.Completion.TherapistConfirmed {
			return b, nil
		}
		b.Completion.TherapistConfirmed = true
		b.Completion.TherapistConfirmedAt = &now
	}

	if b.Completion.Complete() {
		b.Status = models.StatusCompleted
		b.CompletedAt = &now
	} else {
		b.Status = models.StatusInProgress
	}
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}

	if b.Status == models.StatusCompleted {
		s.publish(ctx, models.EventBookingCompleted, b, nil)
	}
	return b, nil
}

func (s *DefaultService) Get(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && !b.IsParticipant(actor) {
		return nil, newUnauthorizedErr("not a participant of this booking")
	}
	return b, nil
}

func (s *DefaultService) List(ctx context.Context, actor models.Actor, q models.ListBookingsQuery) ([]models.Booking, error) {
	if err := q.Normalize(); err != nil {
		return nil, newValidationErr("%v", err)
	}

	f := bookingRepo.ListFilter{
		Status: models.BookingStatus(q.Status),
		Page:   q.Page,
		Limit:  q.Limit,
	}
	switch actor.Role {
	case models.RolePatient:
		f.PatientID = actor.ID
	case models.RoleTherapist:
		f.TherapistID = actor.TherapistID
	case models.RoleAdmin:
		// unscoped
	default:
		return nil, newUnauthorizedErr("unknown role")
	}

	const dateLayout = "2006-01-02"
	if q.From != "" {
		from, err := time.Parse(dateLayout, q.From)
		if err != nil {
			return nil, newValidationErr("invalid from date %q", q.From)
		}
		f.From = from
	}
	if q.To != "" {
		to, err := time.Parse(dateLayout, q.To)
		if err != nil {
			return nil, newValidationErr("invalid to date %q", q.To)
		}
		f.To = to
	}

	return s.Bookings.List(ctx, f)
}

func (s *DefaultService) ExpireOverdueAcceptances(ctx context.Context, now time.Time, limit int64) (int, error) {
	overdue, err := s.Bookings.FindExpiredPendingAcceptance(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue bookings: %w", err)
	}

	expired := 0
	for i := range overdue {
		b := &overdue[i]
		if err := s.expire(ctx, b, now); err != nil {
			// One stuck booking must not block the rest of the sweep.
			s.Logger.Error("failed to expire booking",
				zap.String("bookingID", b.ID), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// expire cancels an unaccepted booking past its deadline: funds go back in
// full and the therapist takes the cancellation.
func (s *DefaultService) expire(ctx context.Context, b *models.Booking, now time.Time) error {
	if err := s.returnFunds(ctx, b, b.RefundableRemainder(), "acceptance deadline expired"); err != nil {
		return err
	}
	b.Status = models.StatusCancelledByTherapist
	b.CancelledAt = &now
	b.CancelledBy = "system"
	b.CancellationReason = "acceptance deadline expired"
	b.UpdatedAt = now
	if err := s.Bookings.Update(ctx, b); err != nil {
		return fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}

	s.publish(ctx, models.EventBookingExpired, b, nil)
	return nil
}

// returnFunds sends money (or the package credit) back to the patient. A
// package credit is indivisible, so any cancellation of a package-funded
// booking restores the whole credit.
func (s *DefaultService) returnFunds(ctx context.Context, b *models.Booking, amount float64, reason string) error {
	if b.PaidViaPackage {
		restored, err := s.Packages.RestoreSession(ctx, b.PackageID)
		if err != nil {
			return fmt.Errorf("failed to restore package session: %w", err)
		}
		if !restored {
			s.Logger.Warn("package session already restored",
				zap.String("bookingID", b.ID), zap.String("packageID", b.PackageID))
		}
		return nil
	}
	if amount <= 0 {
		return nil
	}
	if err := s.Payments.RefundBooking(ctx, b, amount, reason); err != nil {
		return fmt.Errorf("failed to refund booking %s: %w", b.ID, err)
	}
	return nil
}

func (s *DefaultService) get(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, newNotFoundErr(bookingID)
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	return b, nil
}

func (s *DefaultService) publish(ctx context.Context, t models.EventType, b *models.Booking, data map[string]string) {
	s.Events.Publish(ctx, models.Event{
		Type:        t,
		BookingID:   b.ID,
		PatientID:   b.PatientID,
		TherapistID: b.TherapistID,
		Data:        data,
	})
}
