// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents bounds amounts well inside int64 so sums cannot overflow.
var maxCents = decimal.NewFromInt(1 << 62)

// Money is an amount in cents. Amounts on ledger records are never negative;
// negative values only appear as derived balances.
type Money struct {
	Cents int64
}

// Cents builds a Money from an integer number of cents.
func Cents(c int64) Money { return Money{Cents: c} }

// ParseMoney converts a decimal string to Money with half-up rounding on the
// third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signed
// input is rejected; zero is accepted so optional fees can be parsed.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234
//	ParseMoney("12,345") -> 1235
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents. Negative values are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() || cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two fixed decimals, e.g. "-12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

// Abs returns the magnitude, used to display credits as positive figures.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Validate rejects non-positive amounts. Used for amounts a user submits.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
// Derived balances may be negative, so the sign is allowed here.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return ErrInvalidAmount
	}
	m.Cents = cents.IntPart()
	return nil
}
