package products

import (
	"context"

	mdshared "github.com/jag-erp/jag-erp/internal/masterdata/shared"
	"github.com/jag-erp/jag-erp/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters mdshared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.NewValidationError("id", "must be a positive integer")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := s.validate(in); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, in.toProduct())
}

func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (Product, error) {
	if id <= 0 {
		return Product{}, shared.NewValidationError("id", "must be a positive integer")
	}
	if err := s.validate(in); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, id, in.toProduct()); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.NewValidationError("id", "must be a positive integer")
	}
	return s.repo.Delete(ctx, id)
}
