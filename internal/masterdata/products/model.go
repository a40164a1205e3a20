package products

import (
	"time"

	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
)

// UOM is the unit a product is sold in.
type UOM string

const (
	UOMNos UOM = "Nos"
	UOMSet UOM = "Set"
	UOMBox UOM = "Box"
	UOMRft UOM = "Rft"
)

type Product struct {
	ID              int64           `json:"id"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	HSNCode         string          `json:"hsn_code,omitempty"`
	GSTPercentage   float64         `json:"gst_percentage"`
	BasePrice       float64         `json:"base_price"`
	MRP             *float64        `json:"mrp,omitempty"`
	UOM             UOM             `json:"uom"`
	ProductImageURL *string         `json:"product_image_url,omitempty"`
	Status          mdshared.Status `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsActive reports whether the product may be added to new quotation lines.
func (p Product) IsActive() bool {
	return p.Status == mdshared.StatusActive
}
