package salespersons

import (
	"time"

	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
)

type Salesperson struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email,omitempty"`
	Mobile    string          `json:"mobile,omitempty"`
	Status    mdshared.Status `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type SalespersonInput struct {
	Name   string          `json:"name" validate:"required,max=120"`
	Email  string          `json:"email" validate:"omitempty,email"`
	Mobile string          `json:"mobile" validate:"omitempty,max=20"`
	Status mdshared.Status `json:"status" validate:"omitempty,oneof=Active Inactive"`
}
