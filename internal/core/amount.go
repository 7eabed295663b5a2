// Package core implements the currency and expense engine: the currency
// registry, the exchange-rate store and resolver, the expense ledger, and
// the aggregation over it. It holds no I/O; persistence and presentation
// live behind the service layer.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a user-entered monetary amount. Both dot (12.34) and
// comma (12,34) decimal separators are accepted. Only strictly positive
// values are valid; signs are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := parsePositive(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseRate parses a user-entered exchange rate with the same rules as
// ParseAmount.
func ParseRate(s string) (decimal.Decimal, error) {
	d, err := parsePositive(s)
	if err != nil {
		return decimal.Zero, ErrInvalidRate
	}
	return d, nil
}

func parsePositive(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty")
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, errors.New("signed")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("not positive")
	}
	return d, nil
}
