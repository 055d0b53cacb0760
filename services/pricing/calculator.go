package pricing

import (
	"context"
	"fmt"
	"math"

	catalogRepo "therapia/database/repository/catalog"
	therapistRepo "therapia/database/repository/therapist"
	"therapia/models"
)

// Calculator resolves the price of a session and splits it between the
// platform, the therapist and (optionally) the therapist's organization.
type Calculator interface {
	Quote(ctx context.Context, therapist *models.TherapistProfile, sessionTypeID string) (*models.PriceQuote, error)
}

// DefaultCalculator resolves prices from the catalog with the commission
// precedence chain: therapist-specific > organization-specific > platform
// default.
type DefaultCalculator struct {
	Catalog    catalogRepo.CatalogRepository
	Therapists therapistRepo.TherapistRepository
	// DefaultCommissionPct applies when no platform setting exists.
	DefaultCommissionPct float64
}

func (c *DefaultCalculator) Quote(ctx context.Context, therapist *models.TherapistProfile, sessionTypeID string) (*models.PriceQuote, error) {
	st, err := c.Catalog.GetSessionType(ctx, sessionTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session type: %w", err)
	}
	if !st.Active {
		return nil, fmt.Errorf("session type %s is not active", st.ID)
	}

	price := st.DefaultPrice
	if override, err := c.Catalog.GetSessionPricing(ctx, therapist.ID, sessionTypeID); err != nil {
		return nil, fmt.Errorf("failed to resolve session pricing: %w", err)
	} else if override != nil {
		price = override.Price
	}

	pct, err := c.resolveCommission(ctx, therapist)
	if err != nil {
		return nil, err
	}

	var org *models.Organization
	if therapist.OrganizationID != "" {
		org, err = c.Therapists.GetOrganization(ctx, therapist.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve organization: %w", err)
		}
	}

	quote := Split(price, pct, org)
	quote.SessionType = st
	quote.Currency = st.Currency
	return quote, nil
}

func (c *DefaultCalculator) resolveCommission(ctx context.Context, therapist *models.TherapistProfile) (float64, error) {
	if cs, err := c.Catalog.GetTherapistCommission(ctx, therapist.ID); err != nil {
		return 0, fmt.Errorf("failed to resolve therapist commission: %w", err)
	} else if cs != nil {
		return cs.Percentage, nil
	}
	if therapist.OrganizationID != "" {
		if cs, err := c.Catalog.GetOrganizationCommission(ctx, therapist.OrganizationID); err != nil {
			return 0, fmt.Errorf("failed to resolve organization commission: %w", err)
		} else if cs != nil {
			return cs.Percentage, nil
		}
	}
	if cs, err := c.Catalog.GetPlatformCommission(ctx); err != nil {
		return 0, fmt.Errorf("failed to resolve platform commission: %w", err)
	} else if cs != nil {
		return cs.Percentage, nil
	}
	return c.DefaultCommissionPct, nil
}

// Split divides a session price into platform fee, therapist share and
// organization share. Rounding happens only at the allocation step: the fee
// and the organization share are rounded to the currency's minor unit, and
// the therapist share is the exact remainder, so the parts always sum back
// to the subtotal.
func Split(price, pct float64, org *models.Organization) *models.PriceQuote {
	subtotal := round2(price)
	fee := round2(subtotal * pct / 100)
	remainder := round2(subtotal - fee)

	var orgShare float64
	if org != nil && org.OrganizationSharePct > 0 {
		totalShare := org.OrganizationSharePct + org.TherapistSharePct
		if totalShare <= 0 {
			totalShare = 100
		}
		orgShare = round2(remainder * org.OrganizationSharePct / totalShare)
	}
	therapistShare := round2(remainder - orgShare)

	return &models.PriceQuote{
		Subtotal:              subtotal,
		PlatformFee:           fee,
		PlatformFeePercentage: pct,
		TherapistAmount:       therapistShare,
		OrganizationAmount:    orgShare,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
