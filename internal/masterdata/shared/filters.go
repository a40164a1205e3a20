// Package shared holds helpers common to the master data packages.
package shared

import (
	"net/http"
	"strings"

	appshared "github.com/jag-erp/jag-erp/internal/shared"
)

// Status marks whether a master record can be picked on new documents.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Search string
	Status *Status
	Page   appshared.PageRequest
}

// FiltersFromRequest reads q, status, page and per_page from the query string.
func FiltersFromRequest(r *http.Request) ListFilters {
	q := r.URL.Query()
	f := ListFilters{
		Search: strings.TrimSpace(q.Get("q")),
		Page:   appshared.PageFromQuery(q),
	}
	switch Status(q.Get("status")) {
	case StatusActive:
		s := StatusActive
		f.Status = &s
	case StatusInactive:
		s := StatusInactive
		f.Status = &s
	}
	return f
}
