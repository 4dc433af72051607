package account

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits reported for every amount.
const Places = 4

// Rounding selects how reported values are rounded at the 4th fractional digit.
type Rounding string

const (
	// RoundHalfUp rounds ties away from zero. It is the default.
	RoundHalfUp Rounding = "half_up"
	// RoundHalfEven rounds ties to the nearest even digit.
	RoundHalfEven Rounding = "half_even"
)

// ParseRounding accepts "half_up" or "half_even"; an empty string selects
// RoundHalfUp.
func ParseRounding(s string) (Rounding, error) {
	switch r := Rounding(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RoundHalfUp, nil
	case RoundHalfUp, RoundHalfEven:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// Round applies the policy to d. The zero value behaves like RoundHalfUp.
func (r Rounding) Round(d decimal.Decimal) decimal.Decimal {
	if r == RoundHalfEven {
		return d.RoundBank(Places)
	}
	return d.Round(Places)
}
