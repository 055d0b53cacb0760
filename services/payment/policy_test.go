package payment

import (
	"errors"
	"testing"
)

func TestCancellationRefund(t *testing.T) {
	cases := []struct {
		name            string
		subtotal        float64
		hoursUntilStart float64
		expected        float64
		expectErr       error
	}{
		{
			name:            "26 hours out refunds in full",
			subtotal:        100.00,
			hoursUntilStart: 26,
			expected:        100.00,
		},
		{
			name:            "10 hours out refunds half",
			subtotal:        100.00,
			hoursUntilStart: 10,
			expected:        50.00,
		},
		{
			name:            "exactly 24 hours is the half tier",
			subtotal:        100.00,
			hoursUntilStart: 24,
			expected:        50.00,
		},
		{
			name:            "just over 24 hours refunds in full",
			subtotal:        100.00,
			hoursUntilStart: 24.01,
			expected:        100.00,
		},
		{
			name:            "session already started",
			subtotal:        100.00,
			hoursUntilStart: -1,
			expectErr:       ErrSessionStarted,
		},
		{
			name:            "session starting this instant",
			subtotal:        100.00,
			hoursUntilStart: 0,
			expectErr:       ErrSessionStarted,
		},
		{
			name:            "half of an odd subtotal rounds to the minor unit",
			subtotal:        99.99,
			hoursUntilStart: 5,
			expected:        50.00, // 49.995 rounds up
		},
	}

	for _, c := range cases {
		got, err := CancellationRefund(c.subtotal, c.hoursUntilStart)
		if c.expectErr != nil {
			if !errors.Is(err, c.expectErr) {
				t.Errorf("%s: error = %v, expected %v", c.name, err, c.expectErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
			continue
		}
		if got != c.expected {
			t.Errorf("%s: refund = %.2f, expected %.2f", c.name, got, c.expected)
		}
	}
}
