package supplier

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"pharmacy-pos/internal/domain"
	"pharmacy-pos/internal/repository/supplier"
	productsvc "pharmacy-pos/internal/service/product"
)

type Service struct {
	repo     supplier.Repository
	validate *validator.Validate
}

func New(repo supplier.Repository) *Service {
	return &Service{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

type Input struct {
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contactPerson" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=100"`
	Phone         string `json:"phone" validate:"max=20"`
	Address       string `json:"address"`
	Notes         string `json:"notes"`
}

func (s *Service) List(ctx context.Context, skip, limit int) ([]domain.Supplier, error) {
	limit, err := productsvc.NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	if skip < 0 {
		return nil, fmt.Errorf("skip must not be negative: %w", domain.ErrInvalidInput)
	}
	return s.repo.List(ctx, skip, limit)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Supplier, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Supplier, error) {
	sup, err := s.supplier(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, sup)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Supplier, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	sup, err := s.supplier(in)
	if err != nil {
		return nil, err
	}
	sup.ID = id
	return s.repo.Update(ctx, sup)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) supplier(in Input) (domain.Supplier, error) {
	in = Input{
		Name:          strings.TrimSpace(in.Name),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Email:         strings.TrimSpace(in.Email),
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := s.validate.Struct(in); err != nil {
		return domain.Supplier{}, fmt.Errorf("supplier: %v: %w", err, domain.ErrInvalidInput)
	}
	return domain.Supplier{
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		Notes:         in.Notes,
	}, nil
}
