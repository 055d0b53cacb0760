package payment

import (
	"errors"
	"math"
)

// ErrSessionStarted is returned when a cancellation is attempted at or after
// the session start.
var ErrSessionStarted = errors.New("a session that has already started cannot be cancelled")

// RefundFraction returns the refundable fraction of the subtotal for a
// cancellation made hoursUntilStart before the session:
// more than 24 hours out refunds in full, within 24 hours refunds half, and
// a started session cannot be cancelled at all.
func RefundFraction(hoursUntilStart float64) (float64, error) {
	switch {
	case hoursUntilStart <= 0:
		return 0, ErrSessionStarted
	case hoursUntilStart <= 24:
		return 0.5, nil
	default:
		return 1.0, nil
	}
}

// CancellationRefund computes the refund amount for a cancellation, rounded
// to the currency's minor unit.
func CancellationRefund(subtotal, hoursUntilStart float64) (float64, error) {
	fraction, err := RefundFraction(hoursUntilStart)
	if err != nil {
		return 0, err
	}
	return math.Round(subtotal*fraction*100) / 100, nil
}
