package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	packageRepo "therapia/database/repository/packages"
	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"
	"therapia/services/notification"
	"therapia/services/payment"
	"therapia/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrActivePackageExists is returned when the patient already holds an
// active package for the same therapist and session type.
var ErrActivePackageExists = errors.New("an active package already covers this session type")

// ErrTherapistUnavailable is returned when the therapist cannot be booked.
var ErrTherapistUnavailable = errors.New("therapist is not accepting bookings")

// PurchaseResult pairs the provisional purchase with the payment handle the
// client needs to complete it.
type PurchaseResult struct {
	Purchase     *models.PackagePurchase `json:"purchase"`
	ClientSecret string                  `json:"clientSecret"`
}

// Service manages prepaid session bundles: purchase, activation on payment
// and the patient-facing views. Consuming and restoring credits happens in
// the booking flow against the same repository.
type Service interface {
	Purchase(ctx context.Context, actor models.Actor, req models.PurchasePackageRequest) (*PurchaseResult, error)
	GetActive(ctx context.Context, actor models.Actor, therapistID, sessionTypeID string) (*models.PackagePurchase, error)
	List(ctx context.Context, actor models.Actor, page, limit int) ([]models.PackagePurchase, error)

	// HandlePaymentSucceeded activates a provisional purchase. Idempotent.
	HandlePaymentSucceeded(ctx context.Context, intentID string) error
	// HandlePaymentFailed marks a provisional purchase failed so it can
	// never be consumed.
	HandlePaymentFailed(ctx context.Context, intentID string) error
}

// DefaultService is the production ledger service.
type DefaultService struct {
	Packages   packageRepo.PackageRepository
	Therapists therapistRepo.TherapistRepository
	Quotes     pricing.Calculator
	Payments   payment.Service
	Events     notification.Service
	Logger     *zap.Logger

	// Validity is how long a package stays usable after purchase.
	Validity time.Duration
}

func (s *DefaultService) Purchase(ctx context.Context, actor models.Actor, req models.PurchasePackageRequest) (*PurchaseResult, error) {
	if actor.Role != models.RolePatient {
		return nil, errors.New("only patients can purchase packages")
	}

	therapist, err := s.Therapists.GetByID(ctx, req.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("therapist %s not found: %w", req.TherapistID, err)
	}
	if !therapist.Active || !therapist.AcceptingBookings {
		return nil, ErrTherapistUnavailable
	}

	now := time.Now().UTC()
	existing, err := s.Packages.FindActive(ctx, actor.ID, req.SessionTypeID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing packages: %w", err)
	}
	// One active package per patient and session type, whoever the
	// therapist is. FindActive resolves credits by patient+sessionType, so
	// a second package would make the spend path ambiguous.
	if existing != nil {
		return nil, ErrActivePackageExists
	}

	quote, err := s.Quotes.Quote(ctx, therapist, req.SessionTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to price package: %w", err)
	}

	p := &models.PackagePurchase{
		ID:            uuid.NewString(),
		PatientID:     actor.ID,
		TherapistID:   therapist.ID,
		SessionTypeID: req.SessionTypeID,

		SessionsTotal:     req.Sessions,
		SessionsRemaining: req.Sessions,

		Price:    math.Round(quote.Subtotal*float64(req.Sessions)*100) / 100,
		Currency: quote.Currency,

		PaymentStatus: models.PaymentPending,
		Active:        false,

		PurchasedAt: now,
		ExpiresAt:   now.Add(s.Validity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	destination := ""
	if therapist.PayoutAccountReady {
		destination = therapist.PayoutAccountID
	}
	intent, err := s.Payments.CreatePackageIntent(ctx, p, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	p.PaymentIntentID = intent.IntentID

	if err := s.Packages.Create(ctx, p); err != nil {
		if cerr := s.Payments.CancelIntent(ctx, intent.IntentID); cerr != nil {
			s.Logger.Warn("failed to cancel intent after package create failure",
				zap.String("intentID", intent.IntentID), zap.Error(cerr))
		}
		return nil, fmt.Errorf("failed to store package purchase: %w", err)
	}

	return &PurchaseResult{Purchase: p, ClientSecret: intent.ClientSecret}, nil
}

func (s *DefaultService) GetActive(ctx context.Context, actor models.Actor, therapistID, sessionTypeID string) (*models.PackagePurchase, error) {
	p, err := s.Packages.FindActive(ctx, actor.ID, sessionTypeID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to look up package: %w", err)
	}
	if p == nil || (therapistID != "" && p.TherapistID != therapistID) {
		return nil, nil
	}
	return p, nil
}

func (s *DefaultService) List(ctx context.Context, actor models.Actor, page, limit int) ([]models.PackagePurchase, error) {
	return s.Packages.ListByPatient(ctx, actor.ID, page, limit)
}

func (s *DefaultService) HandlePaymentSucceeded(ctx context.Context, intentID string) error {
	p, err := s.Packages.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("no package for intent %s: %w", intentID, err)
	}

	activated, err := s.Packages.Activate(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to activate package %s: %w", p.ID, err)
	}
	if !activated {
		// Webhook redelivery; the purchase is already live.
		return nil
	}

	s.Events.Publish(ctx, models.Event{
		Type:        models.EventPackagePurchased,
		PatientID:   p.PatientID,
		TherapistID: p.TherapistID,
		Data: map[string]string{
			"packageId": p.ID,
			"sessions":  fmt.Sprintf("%d", p.SessionsTotal),
		},
	})
	return nil
}

func (s *DefaultService) HandlePaymentFailed(ctx context.Context, intentID string) error {
	p, err := s.Packages.GetByPaymentIntent(ctx, intentID)
	if err != nil {
		return fmt.Errorf("no package for intent %s: %w", intentID, err)
	}
	if _, err := s.Packages.MarkPaymentFailed(ctx, p.ID); err != nil {
		return err
	}
	return nil
}
