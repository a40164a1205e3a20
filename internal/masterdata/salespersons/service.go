package salespersons

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

func (s *Service) List(ctx context.Context, status *mdshared.Status) ([]Salesperson, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) Get(ctx context.Context, id int64) (Salesperson, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in SalespersonInput) (Salesperson, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Salesperson{}, err
	}
	return s.repo.Create(ctx, fromInput(in))
}

func (s *Service) Update(ctx context.Context, id int64, in SalespersonInput) (Salesperson, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Salesperson{}, err
	}
	if err := s.repo.Update(ctx, id, fromInput(in)); err != nil {
		return Salesperson{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func fromInput(in SalespersonInput) Salesperson {
	sp := Salesperson{Name: in.Name, Email: in.Email, Mobile: in.Mobile, Status: in.Status}
	if sp.Status == "" {
		sp.Status = mdshared.StatusActive
	}
	return sp
}
