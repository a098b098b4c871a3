package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusShipped   Status = "Shipped"
	StatusCancelled Status = "Cancelled"
)

// Order is a placed purchase. Total is the sum of its item subtotals.
type Order struct {
	ID         int             `json:"id"`
	CustomerID int             `json:"customer_id"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []Item          `json:"items"`
}

// Item is one order line. Subtotal is quantity times the unit price at the
// moment the order was placed.
type Item struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"order_id"`
	ProductID int             `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
