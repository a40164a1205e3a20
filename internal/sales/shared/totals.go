package shared

import "github.com/shopspring/decimal"

// Totals is the document-level roll-up of a list of computed lines.
type Totals struct {
	Subtotal           float64    `json:"subtotal"`
	ItemDiscount       float64    `json:"item_discount"`
	AdditionalDiscount float64    `json:"additional_discount"`
	TotalDiscount      float64    `json:"total_discount"`
	GSTTotal           float64    `json:"gst_total"`
	GSTBreakup         GSTBreakup `json:"gst_breakup"`
	GrandTotalRaw      float64    `json:"grand_total_raw"`
	RoundOff           float64    `json:"round_off"`
	GrandTotal         float64    `json:"grand_total"`
}

// Aggregate folds computed lines and a document-level discount into totals.
// Rounding happens once here, after all lines are summed.
func Aggregate(lines []LineAmounts, additionalDiscount float64, buyerState, sellerHomeState string) Totals {
	var subtotal, itemDiscount, gstTotal, lineSum decimal.Decimal
	for _, line := range lines {
		subtotal = subtotal.Add(Dec(line.TaxableAmount))
		itemDiscount = itemDiscount.Add(Dec(line.DiscountAmount))
		gstTotal = gstTotal.Add(Dec(line.GSTAmount))
		lineSum = lineSum.Add(Dec(line.LineTotal))
	}

	additional := Dec(additionalDiscount)
	raw := lineSum.Sub(additional)
	grand := RoundHalfUp(raw)

	return Totals{
		Subtotal:           subtotal.InexactFloat64(),
		ItemDiscount:       itemDiscount.InexactFloat64(),
		AdditionalDiscount: additional.InexactFloat64(),
		TotalDiscount:      itemDiscount.Add(additional).InexactFloat64(),
		GSTTotal:           gstTotal.InexactFloat64(),
		GSTBreakup:         SplitGST(lines, buyerState, sellerHomeState),
		GrandTotalRaw:      raw.InexactFloat64(),
		RoundOff:           grand.Sub(raw).Round(2).InexactFloat64(),
		GrandTotal:         grand.InexactFloat64(),
	}
}
