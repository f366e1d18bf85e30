package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as DECIMAL(12,2).
const AmountScale = 2

var MaxAmount = decimal.RequireFromString("9999999999.99")

// ParseAmount parses a user supplied currency amount. The result is
// positive, has at most two fractional digits and fits the storage column.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(AmountScale)) {
		return decimal.Zero, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, AmountScale)
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount.StringFixed(AmountScale))
	}

	return amount.Round(AmountScale), nil
}

// FormatAmount renders an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
