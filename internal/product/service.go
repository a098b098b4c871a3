package product

import (
	"context"

	"github.com/wichananm65/storefront-backend/internal/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByIDs returns the products among ids that exist, ordered by id.
func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	return s.repo.ListByIDs(ctx, ids)
}

func (s *Service) ListInStock(ctx context.Context, limit int) ([]Product, error) {
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	return s.repo.ListInStock(ctx, limit)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// Page returns one page of the catalog together with paging totals.
func (s *Service) Page(ctx context.Context, q Query) (Page, error) {
	q = q.normalized()
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return Page{}, err
	}
	products, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Products:    products,
		TotalPages:  (total + q.PerPage - 1) / q.PerPage,
		CurrentPage: q.Page,
		Total:       total,
	}, nil
}

func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id int, p Product) (Product, error) {
	if err := validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validate(p Product) error {
	if err := apperror.Validate(p); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return &apperror.Error{
			Kind:    apperror.KindValidation,
			Message: "request validation failed",
			Fields:  map[string]string{"price": "Must be greater than or equal to 0"},
		}
	}
	return nil
}
