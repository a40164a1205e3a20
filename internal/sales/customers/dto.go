package customers

import "github.com/jag-erp/jag-erp/internal/shared"

// CustomerInput is used for both create and full update.
type CustomerInput struct {
	CustomerName    string  `json:"customer_name" validate:"required,max=200"`
	CompanyName     string  `json:"company_name" validate:"omitempty,max=200"`
	GSTIN           string  `json:"gstin" validate:"omitempty,alphanum,len=15"`
	BillingAddress  Address `json:"billing_address"`
	ShippingAddress Address `json:"shipping_address"`
	Mobile          string  `json:"mobile" validate:"omitempty,max=20"`
	Email           string  `json:"email" validate:"omitempty,email"`
	LogoURL         string  `json:"logo_url" validate:"omitempty,url"`
	DefaultDiscount float64 `json:"default_discount" validate:"gte=0,lte=100,decimals=2"`
}

type ListFilter struct {
	Search    string
	CreatedBy *int64
	Page      shared.PageRequest
}

func (in CustomerInput) toCustomer() Customer {
	return Customer{
		CustomerName:    in.CustomerName,
		CompanyName:     in.CompanyName,
		GSTIN:           in.GSTIN,
		BillingAddress:  in.BillingAddress,
		ShippingAddress: in.ShippingAddress,
		Mobile:          in.Mobile,
		Email:           in.Email,
		LogoURL:         in.LogoURL,
		DefaultDiscount: in.DefaultDiscount,
	}
}
