// Package money converts between the USD decimal amounts used at the API
// boundary and the integer cent amounts the ledger stores. Keeping cents
// internal avoids the floating-point drift of arithmetic on display values.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsPerDollar = decimal.NewFromInt(100)

// ParseUSD converts a decimal USD string ("50", "49.99") into cents. Amounts
// with sub-cent precision are rejected rather than rounded.
func ParseUSD(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	cents := d.Mul(centsPerDollar)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	return cents.IntPart(), nil
}

// FormatUSD renders cents as a two-decimal USD string.
func FormatUSD(cents int64) string {
	return decimal.NewFromInt(cents).Div(centsPerDollar).StringFixed(2)
}
