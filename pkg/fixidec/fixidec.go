// Package fixidec converts the protocol's 24-decimal fixed-point integers
// into exact decimal values.
//
// On-chain fractional parameters are stored as unsigned integers with an
// implicit scale of 10^24, so a value of 8*10^23 means 0.8. Conversions are
// exact; no binary floating point is involved at any step.
package fixidec

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Scale is the number of implied fractional digits in a fixed-point value.
const Scale = 24

// ToFraction returns raw / 10^24 as an exact decimal. A nil raw value is
// treated as zero.
func ToFraction(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -Scale)
}

// ToPercentage returns fraction * 100 exactly.
func ToPercentage(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Shift(2)
}
