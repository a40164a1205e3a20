package customers

import (
	"context"
	"fmt"

	"github.com/jag-erp/jag-erp/internal/shared"
)

// Service manages customers. Non-admin actors only see customers they created.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in CustomerInput) (*Customer, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	customer := in.toCustomer()
	customer.CreatedBy = actor.UserID

	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in CustomerInput) (*Customer, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	customer := in.toCustomer()
	customer.ID = existing.ID
	customer.CreatedBy = existing.CreatedBy
	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Get returns the customer when visible to the actor in ctx.
func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(customer.CreatedBy) {
		return nil, fmt.Errorf("customer %d: %w", id, shared.ErrNotFound)
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	actor, err := shared.RequireActor(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter.CreatedBy = actor.OwnerScope()
	return s.repo.List(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
