package terms

import (
	"context"

	"github.com/jag-erp/jag-erp/internal/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Template, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Template, error) {
	return s.repo.Get(ctx, id)
}

// Default returns the default template, or ErrNotFound when none is flagged.
func (s *Service) Default(ctx context.Context) (*Template, error) {
	return s.repo.GetDefault(ctx)
}

// Create stores a template. Flagging it default unsets the previous default
// in the same transaction.
func (s *Service) Create(ctx context.Context, in TemplateInput) (*Template, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if in.IsDefault {
			if err := repo.ClearDefault(ctx, 0); err != nil {
				return err
			}
		}
		var err error
		id, err = repo.Create(ctx, Template{TemplateName: in.TemplateName, Content: in.Content, IsDefault: in.IsDefault})
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in TemplateInput) (*Template, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return nil, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if in.IsDefault {
			if err := repo.ClearDefault(ctx, id); err != nil {
				return err
			}
		}
		return repo.Update(ctx, id, Template{TemplateName: in.TemplateName, Content: in.Content, IsDefault: in.IsDefault})
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
