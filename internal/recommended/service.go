package recommended

import (
	"context"

	"github.com/wichananm65/storefront-backend/internal/product"
)

type Catalog interface {
	ListInStock(ctx context.Context, limit int) ([]product.Product, error)
}

// Service picks the products shown on the landing page.
type Service struct {
	catalog Catalog
}

func NewService(c Catalog) *Service {
	return &Service{catalog: c}
}

// Featured returns up to limit in-stock products.
func (s *Service) Featured(ctx context.Context, limit int) ([]product.Product, error) {
	return s.catalog.ListInStock(ctx, clampLimit(limit))
}
