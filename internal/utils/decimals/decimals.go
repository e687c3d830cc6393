// Package decimals provides string-in/string-out decimal arithmetic for rate
// values. Rates travel the system as decimal strings and are never converted
// to binary floating point: wrong FX rates have financial impact, so every
// operation here either produces an exact fixed-point string or fails.
package decimals

import (
	"fmt"
	"strings"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Normalize converts comma decimal separators to dots and expands scientific
// notation ("2.3E-5") into a plain decimal string. Non-numeric input is
// returned unchanged; the arithmetic functions reject it later.
func Normalize(value string) string {
	value = strings.ReplaceAll(value, ",", ".")

	if strings.ContainsAny(value, "eE") {
		if d, err := decimal.NewFromString(value); err == nil {
			return d.String()
		}
	}

	return value
}

// Div divides left by right, truncated to scale fractional digits.
func Div(left, right string, scale int) (string, error) {
	l, r, err := parsePair(left, right)
	if err != nil {
		return "", err
	}
	if r.IsZero() {
		return "", fmt.Errorf("%w: division by zero", apperrors.ErrInvalidOperand)
	}

	// Two guard digits, then truncate: matches fixed-scale truncating division.
	q := l.DivRound(r, int32(scale)+2).Truncate(int32(scale))

	return q.StringFixed(int32(scale)), nil
}

// Sub subtracts right from left, truncated to scale fractional digits.
func Sub(left, right string, scale int) (string, error) {
	l, r, err := parsePair(left, right)
	if err != nil {
		return "", err
	}

	return l.Sub(r).Truncate(int32(scale)).StringFixed(int32(scale)), nil
}

// Round rounds value half away from zero at scale and formats it with exactly
// scale fractional digits.
func Round(value string, scale int) (string, error) {
	d, err := parse(value)
	if err != nil {
		return "", err
	}

	return d.Round(int32(scale)).StringFixed(int32(scale)), nil
}

// Compare compares left and right considering scale fractional digits,
// returning -1, 0 or 1.
func Compare(left, right string, scale int) (int, error) {
	l, r, err := parsePair(left, right)
	if err != nil {
		return 0, err
	}

	return l.Truncate(int32(scale)).Cmp(r.Truncate(int32(scale))), nil
}

func parse(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(Normalize(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", apperrors.ErrInvalidOperand, value)
	}
	return d, nil
}

func parsePair(left, right string) (decimal.Decimal, decimal.Decimal, error) {
	l, err := parse(left)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	r, err := parse(right)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return l, r, nil
}
