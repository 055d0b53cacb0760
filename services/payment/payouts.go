package payment

import (
	"context"
	"errors"
	"fmt"

	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"

	"go.uber.org/zap"
)

// SetupPayoutAccount onboards a therapist onto the gateway's connected
// payout accounts. The first call creates the account and stores its ID on
// the profile; later calls refresh the readiness flag instead, so the
// endpoint is safe to retry while the therapist works through the gateway's
// verification.
func (s *DefaultService) SetupPayoutAccount(ctx context.Context, therapistID, email, country string) (*models.TherapistProfile, error) {
	t, err := s.Therapists.GetByID(ctx, therapistID)
	if err != nil {
		return nil, fmt.Errorf("therapist %s not found: %w", therapistID, err)
	}

	if t.PayoutAccountID == "" {
		accountID, err := s.Gateway.CreatePayoutAccount(ctx, email, country)
		if err != nil {
			return nil, fmt.Errorf("failed to create payout account: %w", err)
		}
		t.PayoutAccountID = accountID
		// A fresh account is never ready; verification flips it later via
		// the account-status webhook.
		t.PayoutAccountReady = false
	} else {
		ready, err := s.Gateway.PayoutAccountReady(ctx, t.PayoutAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to check payout account %s: %w", t.PayoutAccountID, err)
		}
		t.PayoutAccountReady = ready
	}

	if err := s.Therapists.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update therapist %s: %w", t.ID, err)
	}
	return t, nil
}

// PayoutAccountStatus returns the therapist's onboarding state. When an
// account exists the readiness flag is re-read from the gateway, so a stale
// profile self-corrects on the next status check.
func (s *DefaultService) PayoutAccountStatus(ctx context.Context, therapistID string) (*models.TherapistProfile, error) {
	t, err := s.Therapists.GetByID(ctx, therapistID)
	if err != nil {
		return nil, fmt.Errorf("therapist %s not found: %w", therapistID, err)
	}
	if t.PayoutAccountID == "" {
		return t, nil
	}

	ready, err := s.Gateway.PayoutAccountReady(ctx, t.PayoutAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payout account %s: %w", t.PayoutAccountID, err)
	}
	if ready != t.PayoutAccountReady {
		t.PayoutAccountReady = ready
		if err := s.Therapists.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("failed to update therapist %s: %w", t.ID, err)
		}
	}
	return t, nil
}

// SyncPayoutAccount is driven by the gateway's account-status events. The
// gateway is queried rather than trusting the event payload, so redelivered
// or out-of-order events converge on the current state.
func (s *DefaultService) SyncPayoutAccount(ctx context.Context, accountID string) (*models.TherapistProfile, error) {
	t, err := s.Therapists.GetByPayoutAccount(ctx, accountID)
	if errors.Is(err, therapistRepo.ErrNotFound) {
		s.Logger.Debug("account event for unknown payout account", zap.String("accountID", accountID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve payout account %s: %w", accountID, err)
	}

	ready, err := s.Gateway.PayoutAccountReady(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payout account %s: %w", accountID, err)
	}
	if t.PayoutAccountReady == ready {
		return t, nil
	}

	t.PayoutAccountReady = ready
	if err := s.Therapists.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update therapist %s: %w", t.ID, err)
	}
	s.Logger.Info("payout account readiness changed",
		zap.String("therapistID", t.ID), zap.String("accountID", accountID), zap.Bool("ready", ready))
	return t, nil
}
