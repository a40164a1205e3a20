package quotations

import (
	"time"

	"github.com/jag-erp/jag-erp/internal/masterdata/products"
	"github.com/jag-erp/jag-erp/internal/masterdata/sites"
	"github.com/jag-erp/jag-erp/internal/masterdata/terms"
	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/sales/shared"
)

type QuotationStatus string

const (
	QuotationStatusDraft QuotationStatus = "draft"
	QuotationStatusFinal QuotationStatus = "final"
)

// ProductSnapshot freezes the product details a line was quoted with. It is
// never refreshed from the product master once stored.
type ProductSnapshot struct {
	ProductName     string  `json:"product_name"`
	ProductCode     string  `json:"product_code"`
	HSNCode         string  `json:"hsn_code,omitempty"`
	GSTPercentage   float64 `json:"gst_percentage"`
	UOM             string  `json:"uom"`
	ProductImageURL *string `json:"product_image_url,omitempty"`
}

func snapshotOf(p products.Product) ProductSnapshot {
	return ProductSnapshot{
		ProductName:     p.ProductName,
		ProductCode:     p.ProductCode,
		HSNCode:         p.HSNCode,
		GSTPercentage:   p.GSTPercentage,
		UOM:             string(p.UOM),
		ProductImageURL: p.ProductImageURL,
	}
}

type QuotationLine struct {
	ID              int64           `json:"id"`
	QuotationID     int64           `json:"quotation_id"`
	LineOrder       int             `json:"line_order"`
	ProductID       int64           `json:"product_id"`
	SiteID          *int64          `json:"site_id,omitempty"`
	Snapshot        ProductSnapshot `json:"product_snapshot"`
	Quantity        float64         `json:"quantity"`
	Rate            float64         `json:"rate"`
	DiscountPercent float64         `json:"discount_percent"`
	DiscountAmount  float64         `json:"discount_amount"`
	TaxableAmount   float64         `json:"taxable_amount"`
	GSTAmount       float64         `json:"gst_amount"`
	LineTotal       float64         `json:"line_total"`
}

// Amounts returns the derived money fields of the line.
func (l QuotationLine) Amounts() shared.LineAmounts {
	return shared.LineAmounts{
		Amount:         shared.Dec(l.Quantity).Mul(shared.Dec(l.Rate)).InexactFloat64(),
		DiscountAmount: l.DiscountAmount,
		TaxableAmount:  l.TaxableAmount,
		GSTAmount:      l.GSTAmount,
		LineTotal:      l.LineTotal,
	}
}

type Quotation struct {
	ID                 int64             `json:"id"`
	QuotationNo        string            `json:"quotation_no"`
	CustomerID         int64             `json:"customer_id"`
	SiteID             *int64            `json:"site_id,omitempty"`
	QuotationDate      time.Time         `json:"quotation_date"`
	ValidTill          *time.Time        `json:"valid_till,omitempty"`
	SalespersonName    *string           `json:"salesperson_name,omitempty"`
	PaymentTerms       *string           `json:"payment_terms,omitempty"`
	TermsTemplateID    *int64            `json:"terms_template_id,omitempty"`
	CustomTerms        *string           `json:"custom_terms,omitempty"`
	Items              []QuotationLine   `json:"items"`
	Subtotal           float64           `json:"subtotal"`
	TotalDiscount      float64           `json:"total_discount"`
	AdditionalDiscount float64           `json:"additional_discount"`
	GSTBreakup         shared.GSTBreakup `json:"gst_breakup"`
	RoundOff           float64           `json:"round_off"`
	GrandTotal         float64           `json:"grand_total"`
	Status             QuotationStatus   `json:"status"`
	FinalizedAt        *time.Time        `json:"finalized_at,omitempty"`
	CreatedBy          int64             `json:"created_by"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// IsFinal reports whether the quotation has reached its terminal state.
func (q Quotation) IsFinal() bool {
	return q.Status == QuotationStatusFinal
}

func (q *Quotation) applyTotals(t shared.Totals) {
	q.Subtotal = t.Subtotal
	q.TotalDiscount = t.TotalDiscount
	q.AdditionalDiscount = t.AdditionalDiscount
	q.GSTBreakup = t.GSTBreakup
	q.RoundOff = t.RoundOff
	q.GrandTotal = t.GrandTotal
}

// QuotationWithDetails is a list row joined with display names.
type QuotationWithDetails struct {
	Quotation
	CustomerName  string  `json:"customer_name"`
	CompanyName   string  `json:"company_name,omitempty"`
	SiteName      *string `json:"site_name,omitempty"`
	CreatedByName string  `json:"created_by_name"`
}

// LineDetail is a line with its references resolved for display. Product is
// nil when the product master row no longer exists.
type LineDetail struct {
	QuotationLine
	Product *products.Product `json:"product,omitempty"`
	Site    *sites.Site       `json:"site,omitempty"`
}

// QuotationDetail is a quotation with customer, site and terms resolved.
type QuotationDetail struct {
	Quotation
	Items         []LineDetail        `json:"items"`
	Customer      *customers.Customer `json:"customer"`
	Site          *sites.Site         `json:"site,omitempty"`
	TermsTemplate *terms.Template     `json:"terms_template,omitempty"`
}

// Stats summarises quotations created in one calendar year.
type Stats struct {
	Year           int     `json:"year"`
	Count          int     `json:"count"`
	Draft          int     `json:"draft"`
	Final          int     `json:"final"`
	TotalValue     float64 `json:"total_value"`
	FinalizedValue float64 `json:"finalized_value"`
}
