package order

import (
	"context"

	"github.com/wichananm65/storefront-backend/internal/product"
)

// GuestCustomer is the record created for an email seen for the first time
// at checkout.
type GuestCustomer struct {
	Name         string
	Email        string
	PasswordHash string
}

// Tx is the set of storage operations available to order placement. All
// calls made through one Tx commit or roll back together.
type Tx interface {
	GetProductByID(ctx context.Context, id int) (product.Product, error)
	// DecrementStock subtracts qty from the product's stock only if at least
	// qty units remain, failing with an insufficient stock error otherwise.
	DecrementStock(ctx context.Context, productID, qty int) error
	// FindCustomerByEmail returns the customer id, or found=false.
	FindCustomerByEmail(ctx context.Context, email string) (id int, found bool, err error)
	// CreateCustomer inserts c, or returns the id of the row another
	// transaction created for the same email first.
	CreateCustomer(ctx context.Context, c GuestCustomer) (int, error)
	CreateOrder(ctx context.Context, o Order) (Order, error)
	CreateOrderItem(ctx context.Context, it Item) (Item, error)
}

// Store is the order ledger.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id int) (Order, error)
	ListByCustomer(ctx context.Context, customerID int) ([]Order, error)
	ListByCustomerEmail(ctx context.Context, email string) ([]Order, error)
	List(ctx context.Context, limit, offset int) ([]Order, error)
}
