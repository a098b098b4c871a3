package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type memCustomer struct {
	id    int
	guest GuestCustomer
}

type memState struct {
	products  map[int]product.Product
	customers map[string]memCustomer
	orders    map[int]Order
	nextCust  int
	nextOrder int
	nextItem  int
}

func (s *memState) clone() *memState {
	out := &memState{
		products:  make(map[int]product.Product, len(s.products)),
		customers: make(map[string]memCustomer, len(s.customers)),
		orders:    make(map[int]Order, len(s.orders)),
		nextCust:  s.nextCust,
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.customers {
		out.customers[k] = v
	}
	for k, v := range s.orders {
		v.Items = append([]Item(nil), v.Items...)
		out.orders[k] = v
	}
	return out
}

// InMemoryStore is a Store over process memory. Transactions are serialized
// and work on a copy of the tables that replaces the original only on
// success.
type InMemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

func NewInMemoryStore(products []product.Product) *InMemoryStore {
	st := &memState{
		products:  map[int]product.Product{},
		customers: map[string]memCustomer{},
		orders:    map[int]Order{},
		nextCust:  1,
		nextOrder: 1,
		nextItem:  1,
	}
	for _, p := range products {
		st.products[p.ID] = p
	}
	return &InMemoryStore{state: st, now: time.Now}
}

// AddCustomer registers an existing customer row.
func (s *InMemoryStore) AddCustomer(id int, name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.customers[email] = memCustomer{id: id, guest: GuestCustomer{Name: name, Email: email}}
	if id >= s.state.nextCust {
		s.state.nextCust = id + 1
	}
}

// Stock reports the committed stock of a product.
func (s *InMemoryStore) Stock(productID int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[productID]
	return p.StockQuantity, ok
}

// CustomerCount reports how many customer rows exist.
func (s *InMemoryStore) CustomerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.customers)
}

// OrderCount reports how many orders have been committed.
func (s *InMemoryStore) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.orders)
}

func (s *InMemoryStore) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memTx{state: work, now: s.now}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memTx struct {
	state *memState
	now   func() time.Time
}

func (t *memTx) GetProductByID(_ context.Context, id int) (product.Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return product.Product{}, apperror.NotFound(fmt.Sprintf("product %d not found", id))
	}
	return p, nil
}

func (t *memTx) DecrementStock(_ context.Context, productID, qty int) error {
	p, ok := t.state.products[productID]
	if !ok {
		return apperror.NotFound(fmt.Sprintf("product %d not found", productID))
	}
	if p.StockQuantity < qty {
		return apperror.InsufficientStock(fmt.Sprintf("product %d: requested %d, available %d", productID, qty, p.StockQuantity))
	}
	p.StockQuantity -= qty
	t.state.products[productID] = p
	return nil
}

func (t *memTx) FindCustomerByEmail(_ context.Context, email string) (int, bool, error) {
	c, ok := t.state.customers[email]
	return c.id, ok, nil
}

func (t *memTx) CreateCustomer(_ context.Context, c GuestCustomer) (int, error) {
	if existing, ok := t.state.customers[c.Email]; ok {
		return existing.id, nil
	}
	id := t.state.nextCust
	t.state.nextCust++
	t.state.customers[c.Email] = memCustomer{id: id, guest: c}
	return id, nil
}

func (t *memTx) customerExists(id int) bool {
	for _, c := range t.state.customers {
		if c.id == id {
			return true
		}
	}
	return false
}

func (t *memTx) CreateOrder(_ context.Context, o Order) (Order, error) {
	if !t.customerExists(o.CustomerID) {
		return Order{}, apperror.NotFound(fmt.Sprintf("customer %d not found", o.CustomerID))
	}
	o.ID = t.state.nextOrder
	t.state.nextOrder++
	o.CreatedAt = t.now().UTC()
	o.Items = []Item{}
	t.state.orders[o.ID] = o
	return o, nil
}

func (t *memTx) CreateOrderItem(_ context.Context, it Item) (Item, error) {
	o, ok := t.state.orders[it.OrderID]
	if !ok {
		return Item{}, apperror.NotFound(fmt.Sprintf("order %d not found", it.OrderID))
	}
	if _, ok := t.state.products[it.ProductID]; !ok {
		return Item{}, apperror.NotFound(fmt.Sprintf("product %d not found", it.ProductID))
	}
	if it.Quantity <= 0 {
		return Item{}, apperror.Validation("quantity must be positive")
	}
	it.ID = t.state.nextItem
	t.state.nextItem++
	o.Items = append(o.Items, it)
	t.state.orders[o.ID] = o
	return it, nil
}

func (s *InMemoryStore) GetByID(_ context.Context, id int) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[id]
	if !ok {
		return Order{}, apperror.NotFound(fmt.Sprintf("order %d not found", id))
	}
	o.Items = append([]Item(nil), o.Items...)
	return o, nil
}

func (s *InMemoryStore) collect(keep func(Order) bool) []Order {
	out := make([]Order, 0)
	for _, o := range s.state.orders {
		if keep(o) {
			o.Items = append([]Item(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *InMemoryStore) ListByCustomer(_ context.Context, customerID int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(o Order) bool { return o.CustomerID == customerID }), nil
}

func (s *InMemoryStore) ListByCustomerEmail(_ context.Context, email string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.customers[email]
	if !ok {
		return []Order{}, nil
	}
	return s.collect(func(o Order) bool { return o.CustomerID == c.id }), nil
}

func (s *InMemoryStore) List(_ context.Context, limit, offset int) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.collect(func(Order) bool { return true })
	if offset >= len(all) {
		return []Order{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
