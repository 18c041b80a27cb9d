package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to two decimals, half away from zero.
// The float is first converted to its shortest decimal representation, so 1.005
// rounds to 1.01 even though its binary value is slightly below the tie.
// Non-finite values are clamped to 0.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(Finite(v)).Round(2).InexactFloat64()
}

// Finite returns v, or 0 when v is NaN or infinite.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// LineTotal returns round2(quantity * unitPrice).
func LineTotal(quantity, unitPrice float64) float64 {
	q := decimal.NewFromFloat(Finite(quantity))
	p := decimal.NewFromFloat(Finite(unitPrice))
	return q.Mul(p).Round(2).InexactFloat64()
}
