// Money parsing and formatting.
//
// Amounts travel over the wire as JSON decimal numbers but are held as
// integer cents internally so that sums and averages stay exact.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a decimal amount held as integer cents.
type Money struct {
	Cents int64
}

// ErrInvalidAmount reports an amount that could not be parsed as a decimal.
var ErrInvalidAmount = errors.New("invalid amount")

// Cents builds a Money from an integer cent count.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseCents converts a decimal string to cents with half-up rounding on
// the third decimal place. Both dot (12.34) and comma (12,34) separators
// are accepted, as is a leading minus sign; range and sign constraints
// are the caller's concern.
//
// Examples:
//
//	ParseCents("12.34")  -> 1234, nil
//	ParseCents("12,34")  -> 1234, nil
//	ParseCents("12.345") -> 1234, nil (rounds down)
//	ParseCents("12.346") -> 1235, nil (rounds up)
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Guard the *100 below against overflow.
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}

	// First two fractional digits are cents; half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}

	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// ParseMoney is ParseCents wrapped into a Money value.
func ParseMoney(s string) (Money, error) {
	c, err := ParseCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// Decimal renders the amount as a minimal decimal string: "150" rather
// than "150.00", "10.5" rather than "10.50".
func (m Money) Decimal() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	rem := cents % 100

	var s string
	switch {
	case rem == 0:
		s = strconv.FormatInt(whole, 10)
	case rem%10 == 0:
		s = fmt.Sprintf("%d.%d", whole, rem/10)
	default:
		s = fmt.Sprintf("%d.%02d", whole, rem)
	}
	if neg {
		return "-" + s
	}
	return s
}

func (m Money) String() string {
	return m.Decimal()
}

// MarshalJSON emits the amount as a JSON number in decimal form.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	cents, err := ParseCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
