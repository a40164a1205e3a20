package shared

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GSTBreakup splits a document's tax between central, state and integrated GST.
// A document carries either CGST+SGST or IGST, never both.
type GSTBreakup struct {
	CGST float64 `json:"cgst"`
	SGST float64 `json:"sgst"`
	IGST float64 `json:"igst"`
}

// Total returns the sum of all three buckets.
func (b GSTBreakup) Total() float64 {
	return Dec(b.CGST).Add(Dec(b.SGST)).Add(Dec(b.IGST)).InexactFloat64()
}

// IsIntraState reports whether the buyer is billed inside the seller's home
// state. Comparison ignores case and surrounding whitespace.
func IsIntraState(buyerState, sellerHomeState string) bool {
	buyer := strings.TrimSpace(buyerState)
	if buyer == "" {
		return false
	}
	return strings.EqualFold(buyer, strings.TrimSpace(sellerHomeState))
}

// SplitGST allocates each line's GST amount to CGST+SGST (half each) when the
// sale is intra-state, or wholly to IGST otherwise. The decision is taken once
// for the whole document.
func SplitGST(lines []LineAmounts, buyerState, sellerHomeState string) GSTBreakup {
	intra := IsIntraState(buyerState, sellerHomeState)
	two := decimal.NewFromInt(2)

	var cgst, sgst, igst decimal.Decimal
	for _, line := range lines {
		gst := Dec(line.GSTAmount)
		if gst.IsZero() {
			continue
		}
		if intra {
			half := gst.Div(two)
			cgst = cgst.Add(half)
			sgst = sgst.Add(half)
			continue
		}
		igst = igst.Add(gst)
	}
	return GSTBreakup{
		CGST: cgst.InexactFloat64(),
		SGST: sgst.InexactFloat64(),
		IGST: igst.InexactFloat64(),
	}
}
