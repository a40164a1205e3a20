// Package shared holds the money arithmetic shared by sales documents:
// per-line tax computation, the GST split and document totals.
package shared

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineAmounts holds the derived money fields of a single document line.
type LineAmounts struct {
	Amount         float64 `json:"amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxableAmount  float64 `json:"taxable_amount"`
	GSTAmount      float64 `json:"gst_amount"`
	LineTotal      float64 `json:"line_total"`
}

// CalculateLine derives the discount, taxable value, GST and total for one line.
// Inputs are not clamped; callers validate ranges before calling.
func CalculateLine(quantity, rate, discountPercent, gstPercent float64) LineAmounts {
	amount := Dec(quantity).Mul(Dec(rate))
	discount := amount.Mul(Dec(discountPercent)).Div(hundred)
	taxable := amount.Sub(discount)
	gst := taxable.Mul(Dec(gstPercent)).Div(hundred)
	return LineAmounts{
		Amount:         amount.InexactFloat64(),
		DiscountAmount: discount.InexactFloat64(),
		TaxableAmount:  taxable.InexactFloat64(),
		GSTAmount:      gst.InexactFloat64(),
		LineTotal:      taxable.Add(gst).InexactFloat64(),
	}
}

// Dec converts a float to a decimal. NaN and infinities become zero.
func Dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// RoundHalfUp rounds to the nearest whole unit, ties toward positive infinity.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(decimal.NewFromFloat(0.5)).Floor()
}

// Round2 rounds a money value to two decimal places for display.
func Round2(v float64) float64 {
	return Dec(v).Round(2).InexactFloat64()
}
