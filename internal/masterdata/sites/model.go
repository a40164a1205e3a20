package sites

import "time"

// Site is a delivery location belonging to a customer.
type Site struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	SiteName      string    `json:"site_name"`
	Location      string    `json:"location,omitempty"`
	Address       string    `json:"address,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Mobile        string    `json:"mobile,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SiteInput struct {
	CustomerID    int64  `json:"customer_id" validate:"required,gt=0"`
	SiteName      string `json:"site_name" validate:"required,max=200"`
	Location      string `json:"location" validate:"omitempty,max=200"`
	Address       string `json:"address" validate:"omitempty,max=500"`
	ContactPerson string `json:"contact_person" validate:"omitempty,max=120"`
	Mobile        string `json:"mobile" validate:"omitempty,max=20"`
}
