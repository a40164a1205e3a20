package quotations

import (
	"time"

	"github.com/jag-erp/jag-erp/internal/shared"
)

const dateLayout = "2006-01-02"

// LineInput is one submitted line. Derived money fields are never accepted
// from callers; they are recomputed from these inputs.
type LineInput struct {
	ProductID       int64    `json:"product_id" validate:"required,gt=0"`
	SiteID          *int64   `json:"site_id,omitempty" validate:"omitempty,gt=0"`
	Quantity        float64  `json:"quantity" validate:"gt=0,decimals=3"`
	Rate            *float64 `json:"rate,omitempty" validate:"omitempty,gte=0,decimals=2"`
	DiscountPercent float64  `json:"discount_percent" validate:"gte=0,lte=100,decimals=2"`
}

// QuotationInput carries the source fields of a quotation. It is used for
// create and for full-replace updates.
type QuotationInput struct {
	CustomerID         int64           `json:"customer_id" validate:"required,gt=0"`
	SiteID             *int64          `json:"site_id,omitempty" validate:"omitempty,gt=0"`
	QuotationDate      string          `json:"quotation_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ValidTill          string          `json:"valid_till" validate:"required,datetime=2006-01-02"`
	SalespersonName    *string         `json:"salesperson_name,omitempty" validate:"omitempty,max=120"`
	PaymentTerms       *string         `json:"payment_terms,omitempty" validate:"omitempty,max=500"`
	TermsTemplateID    *int64          `json:"terms_template_id,omitempty" validate:"omitempty,gt=0"`
	CustomTerms        *string         `json:"custom_terms,omitempty" validate:"omitempty,max=5000"`
	AdditionalDiscount float64         `json:"additional_discount" validate:"gte=0,decimals=2"`
	Status             QuotationStatus `json:"status,omitempty" validate:"omitempty,oneof=draft final"`
	Items              []LineInput     `json:"items" validate:"required,min=1,dive"`
}

// ListFilter narrows quotation listings. CreatedBy is set by the service for
// non-admin actors and is ignored when supplied by callers.
type ListFilter struct {
	Status     *QuotationStatus
	CustomerID *int64
	Year       *int
	Search     string
	CreatedBy  *int64
	Page       shared.PageRequest

	period *YearRange
}

type headerDates struct {
	quotationDate time.Time
	validTill     *time.Time
}

// parseDates resolves header dates in loc, defaulting the quotation date to today.
func (in QuotationInput) parseDates(now time.Time, loc *time.Location) (headerDates, error) {
	out := headerDates{}
	if in.QuotationDate == "" {
		y, m, d := now.In(loc).Date()
		out.quotationDate = time.Date(y, m, d, 0, 0, 0, 0, loc)
	} else {
		t, err := time.ParseInLocation(dateLayout, in.QuotationDate, loc)
		if err != nil {
			return out, shared.NewValidationError("quotation_date", "must be a date formatted as "+dateLayout)
		}
		out.quotationDate = t
	}
	if in.ValidTill != "" {
		t, err := time.ParseInLocation(dateLayout, in.ValidTill, loc)
		if err != nil {
			return out, shared.NewValidationError("valid_till", "must be a date formatted as "+dateLayout)
		}
		if t.Before(out.quotationDate) {
			return out, shared.NewValidationError("valid_till", "must not be before quotation_date")
		}
		out.validTill = &t
	}
	return out, nil
}
