package category

import "context"

// Catalog is the product source categories are derived from.
type Catalog interface {
	Categories(ctx context.Context) ([]string, error)
}

type Service struct {
	catalog Catalog
}

func NewService(c Catalog) *Service {
	return &Service{catalog: c}
}

// List returns up to limit categories sorted by name. A non-positive limit
// returns all of them.
func (s *Service) List(ctx context.Context, limit int) ([]Category, error) {
	names, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	out := make([]Category, 0, len(names))
	for _, n := range names {
		out = append(out, Category{Name: n, Slug: slugify(n)})
	}
	return out, nil
}
