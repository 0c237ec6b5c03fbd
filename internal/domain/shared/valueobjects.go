// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Money
// ═══════════════════════════════════════════════════════════════════════════

// Cents is a non-negative amount of money in hundredths of the guild currency.
// Fees are never represented as floats.
type Cents int64

// Zero is a free amount.
const Zero Cents = 0

// IsValid checks the amount is not negative.
func (c Cents) IsValid() bool {
	return c >= 0
}

// IsFree reports whether nothing is owed.
func (c Cents) IsFree() bool {
	return c == 0
}

// String renders the amount with two decimals, e.g. "15.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// NewCents creates an amount with validation.
func NewCents(amount int64) (Cents, error) {
	if amount < 0 {
		return 0, WrapError("money", "New", ErrNegativeValue, "amount cannot be negative", nil)
	}
	return Cents(amount), nil
}

// ParseCents parses a decimal amount such as "15", "15.5" or "15.00".
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewDomainError("money", "Parse", ErrEmptyValue, "amount cannot be empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, NewDomainError("money", "Parse", ErrNegativeValue, "amount cannot be negative")
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, NewDomainError("money", "Parse", ErrInvalidFormat, "amount must have at most two decimals")
	}
	units, err := strconv.ParseUint(whole, 10, 62)
	if err != nil {
		return 0, WrapError("money", "Parse", ErrInvalidFormat, "invalid amount", err)
	}
	var hundredths uint64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		if hundredths, err = strconv.ParseUint(frac, 10, 8); err != nil {
			return 0, WrapError("money", "Parse", ErrInvalidFormat, "invalid amount", err)
		}
	}
	return NewCents(int64(units*100 + hundredths))
}

// ═══════════════════════════════════════════════════════════════════════════
// Text helpers
// ═══════════════════════════════════════════════════════════════════════════

// IsBlank reports whether s carries no visible content.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
