package sites

import (
	"context"
	"fmt"

	"github.com/jag-erp/jag-erp/internal/sales/customers"
	"github.com/jag-erp/jag-erp/internal/shared"
)

// CustomerReader resolves a customer visible to the current actor.
type CustomerReader interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

type Service struct {
	repo      Repository
	customers CustomerReader
}

func NewService(repo Repository, customers CustomerReader) *Service {
	return &Service{repo: repo, customers: customers}
}

// ListByCustomer returns a customer's sites sorted by name.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]Site, error) {
	if customerID <= 0 {
		return nil, shared.NewValidationError("customer_id", "is required")
	}
	if _, err := s.customers.Get(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Site, error) {
	site, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.customers.Get(ctx, site.CustomerID); err != nil {
		return nil, fmt.Errorf("site %d: %w", id, shared.ErrNotFound)
	}
	return site, nil
}

func (s *Service) Create(ctx context.Context, in SiteInput) (*Site, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.customers.Get(ctx, in.CustomerID); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Site{
		CustomerID:    in.CustomerID,
		SiteName:      in.SiteName,
		Location:      in.Location,
		Address:       in.Address,
		ContactPerson: in.ContactPerson,
		Mobile:        in.Mobile,
	})
	if err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	return s.repo.Get(ctx, id)
}
