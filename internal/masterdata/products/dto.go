package products

import mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"

type ProductInput struct {
	ProductCode     string          `json:"product_code" validate:"required,max=50"`
	ProductName     string          `json:"product_name" validate:"required,max=200"`
	HSNCode         string          `json:"hsn_code" validate:"omitempty,numeric,min=4,max=8"`
	GSTPercentage   float64         `json:"gst_percentage" validate:"gte=0,lte=28,decimals=2"`
	BasePrice       float64         `json:"base_price" validate:"gte=0,decimals=2"`
	MRP             *float64        `json:"mrp,omitempty" validate:"omitempty,gte=0,decimals=2"`
	UOM             UOM             `json:"uom" validate:"omitempty,oneof=Nos Set Box Rft"`
	ProductImageURL *string         `json:"product_image_url,omitempty" validate:"omitempty,max=500"`
	Status          mdshared.Status `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

func (in ProductInput) toProduct() Product {
	p := Product{
		ProductCode:     in.ProductCode,
		ProductName:     in.ProductName,
		HSNCode:         in.HSNCode,
		GSTPercentage:   in.GSTPercentage,
		BasePrice:       in.BasePrice,
		MRP:             in.MRP,
		UOM:             in.UOM,
		ProductImageURL: in.ProductImageURL,
		Status:          in.Status,
	}
	if p.UOM == "" {
		p.UOM = UOMNos
	}
	if p.Status == "" {
		p.Status = mdshared.StatusActive
	}
	return p
}
