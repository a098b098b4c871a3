package product

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wichananm65/storefront-backend/internal/apperror"
)

var ErrNotFound = apperror.ErrNotFound

type Repository interface {
	List(ctx context.Context, q Query) ([]Product, error)
	Count(ctx context.Context, q Query) (int, error)
	GetByID(ctx context.Context, id int) (Product, error)
	ListByIDs(ctx context.Context, ids []int) ([]Product, error)
	ListInStock(ctx context.Context, limit int) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int, p Product) (Product, error)
	Delete(ctx context.Context, id int) error
	Categories(ctx context.Context) ([]string, error)
}

func notFound(id int) error {
	return apperror.NotFound(fmt.Sprintf("product %d not found", id))
}

// InMemoryRepository is a simple in-memory implementation useful for tests
// and local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
	}
	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) filtered(q Query) []Product {
	needle := strings.ToLower(q.Search)
	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (r *InMemoryRepository) List(_ context.Context, q Query) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.filtered(q)
	col := q.SortColumn()
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return lessBy(col, out[j], out[i])
		}
		return lessBy(col, out[i], out[j])
	})

	q = q.normalized()
	start := q.Offset()
	if start >= len(out) {
		return []Product{}, nil
	}
	end := start + q.PerPage
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func lessBy(col string, a, b Product) bool {
	switch col {
	case "id":
		return a.ID < b.ID
	case "price":
		return a.Price.LessThan(b.Price)
	case "stock_quantity":
		return a.StockQuantity < b.StockQuantity
	case "category":
		return a.Category < b.Category
	default:
		return a.Name < b.Name
	}
}

func (r *InMemoryRepository) Count(_ context.Context, q Query) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filtered(q)), nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, notFound(id)
}

func (r *InMemoryRepository) ListByIDs(_ context.Context, ids []int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]Product, 0, len(ids))
	for _, p := range r.storage {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) ListInStock(_ context.Context, limit int) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Product, 0)
	for _, p := range r.storage {
		if p.StockQuantity > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryRepository) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			p.ID = id
			r.storage[i] = p
			return p, nil
		}
	}
	return Product{}, notFound(id)
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.storage {
		if r.storage[i].ID == id {
			r.storage = append(r.storage[:i], r.storage[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func (r *InMemoryRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, p := range r.storage {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}
