// Package core holds the entity registry shared by the store, the HTTP
// layer and the analysis engines.
//
// Monetary values are integer cents end to end; decimal strings only exist
// at the parse/format edges. This keeps the running-balance fold exact over
// arbitrarily many operations.
package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in cents.
type Money struct {
	Cents int64
}

// Cents builds a Money from a raw cent count.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseAmount converts a user-entered decimal string to Money. It accepts
// both dot (12.34) and comma (12,34) separators and rounds half-up to the
// cent. Negative values are rejected: charge/credit amounts are unsigned,
// direction is carried by the field they live in.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, s)
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// Decimal returns the amount as a decimal value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "12.34" or "-0.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m + n.
func (m Money) Add(n Money) Money {
	return Money{Cents: m.Cents + n.Cents}
}

// Sub returns m - n.
func (m Money) Sub(n Money) Money {
	return Money{Cents: m.Cents - n.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// MarshalJSON encodes the amount as a plain decimal number ("12.34"),
// matching what the web client displays and posts.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().StringFixed(2)), nil
}

// UnmarshalJSON accepts either a bare number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	m.Cents = d.Shift(2).Round(0).IntPart()
	return nil
}
