package products

import (
	"strings"

	"github.com/jag-erp/jag-erp/internal/shared"
)

func (s *Service) validate(in ProductInput) error {
	if err := shared.ValidateStruct(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.ProductCode) == "" {
		return shared.NewValidationError("product_code", "is required")
	}
	if in.MRP != nil && *in.MRP < in.BasePrice {
		return shared.NewValidationError("mrp", "must not be below base_price")
	}
	return nil
}
