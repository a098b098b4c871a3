package customer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wichananm65/storefront-backend/internal/apperror"
)

var (
	ErrNotFound           = apperror.ErrNotFound
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	ErrEmailExists        = apperror.Conflict("email already exists")
	ErrInactive           = apperror.Forbidden("account is disabled")
)

type Repository interface {
	List(ctx context.Context, f Filter) ([]Customer, error)
	Count(ctx context.Context, f Filter) (int, error)
	GetByID(ctx context.Context, id int) (Customer, error)
	GetByEmail(ctx context.Context, email string) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, id int, c Customer) (Customer, error)
	Delete(ctx context.Context, id int) error
}

func notFound(what string) error {
	return apperror.NotFound(fmt.Sprintf("customer %s not found", what))
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	customers []Customer
	nextID    int
}

func NewInMemoryRepository(seed []Customer) *InMemoryRepository {
	repo := &InMemoryRepository{
		customers: make([]Customer, 0, len(seed)),
		nextID:    1,
	}
	maxID := 0
	for _, c := range seed {
		repo.customers = append(repo.customers, c)
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Count(ctx context.Context, f Filter) (int, error) {
	list, err := r.List(ctx, f)
	return len(list), err
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return Customer{}, notFound(fmt.Sprint(id))
}

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return Customer{}, notFound(email)
}

func (r *InMemoryRepository) Create(_ context.Context, c Customer) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return Customer{}, ErrEmailExists
		}
	}
	c.ID = r.nextID
	r.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	r.customers = append(r.customers, c)
	return c, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, c Customer) (Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.customers {
		if r.customers[i].ID == id {
			c.ID = id
			c.CreatedAt = r.customers[i].CreatedAt
			r.customers[i] = c
			return c, nil
		}
	}
	return Customer{}, notFound(fmt.Sprint(id))
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.customers {
		if r.customers[i].ID == id {
			r.customers = append(r.customers[:i], r.customers[i+1:]...)
			return nil
		}
	}
	return notFound(fmt.Sprint(id))
}
