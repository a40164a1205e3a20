package customers

import (
	"strings"
	"time"
)

// Address is a postal address; Indian PIN codes are six digits.
type Address struct {
	Line1   string `json:"line1,omitempty" validate:"omitempty,max=200"`
	Line2   string `json:"line2,omitempty" validate:"omitempty,max=200"`
	City    string `json:"city,omitempty" validate:"omitempty,max=100"`
	State   string `json:"state,omitempty" validate:"omitempty,max=100"`
	Pincode string `json:"pincode,omitempty" validate:"omitempty,numeric,len=6"`
}

type Customer struct {
	ID              int64     `json:"id"`
	CustomerName    string    `json:"customer_name"`
	CompanyName     string    `json:"company_name,omitempty"`
	GSTIN           string    `json:"gstin,omitempty"`
	BillingAddress  Address   `json:"billing_address"`
	ShippingAddress Address   `json:"shipping_address"`
	Mobile          string    `json:"mobile,omitempty"`
	Email           string    `json:"email,omitempty"`
	LogoURL         string    `json:"logo_url,omitempty"`
	DefaultDiscount float64   `json:"default_discount"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BillingState is the state used to decide the GST split on documents.
func (c Customer) BillingState() string {
	return strings.TrimSpace(c.BillingAddress.State)
}

// DisplayName prefers the company name when one is recorded.
func (c Customer) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.CustomerName
}
