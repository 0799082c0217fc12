package category

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/repository/category"
)

type Service struct {
	repo     category.Repository
	validate *validator.Validate
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type Input struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Category, error) {
	c, err := s.category(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Category, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	c, err := s.category(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return s.repo.Update(ctx, c)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) category(in Input) (domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validate.Struct(in); err != nil {
		return domain.Category{}, fmt.Errorf("category: %v: %w", err, domain.ErrInvalidInput)
	}
	return domain.Category{Name: in.Name, Description: in.Description}, nil
}
