package terms

import "time"

// Template is a reusable block of terms & conditions printed on quotations.
// At most one template is the default.
type Template struct {
	ID           int64     `json:"id"`
	TemplateName string    `json:"template_name"`
	Content      string    `json:"content"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type TemplateInput struct {
	TemplateName string `json:"template_name" validate:"required,max=200"`
	Content      string `json:"content" validate:"required"`
	IsDefault    bool   `json:"is_default"`
}
