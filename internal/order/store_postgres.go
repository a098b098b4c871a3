package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/product"
)

type PostgresStore struct {
	db *sql.DB
}

const (
	orderColumns = `id, customer_id, status, total, created_at`

	selectProductQuery = `SELECT id, name, description, price, stock_quantity, image_url, category FROM product WHERE id = $1`

	decrementStockQuery = `
		UPDATE product
		SET stock_quantity = stock_quantity - $1,
			updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1
	`

	selectStockQuery = `SELECT stock_quantity FROM product WHERE id = $1`

	findCustomerByEmailQuery = `SELECT id FROM customer WHERE email = $1`

	insertGuestQuery = `
		INSERT INTO customer (name, email, password, active, guest)
		VALUES ($1, $2, $3, TRUE, TRUE)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`
	insertOrderQuery = `
		INSERT INTO "order" (customer_id, status, total)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	insertItemQuery = `
		INSERT INTO order_item (order_id, product_id, quantity, subtotal)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	getOrderQuery          = `SELECT ` + orderColumns + ` FROM "order" WHERE id = $1`
	listByCustomerQuery    = `SELECT ` + orderColumns + ` FROM "order" WHERE customer_id = $1 ORDER BY created_at DESC, id DESC`
	listByEmailQuery       = `SELECT o.id, o.customer_id, o.status, o.total, o.created_at FROM "order" o JOIN customer c ON c.id = o.customer_id WHERE c.email = $1 ORDER BY o.created_at DESC, o.id DESC`
	listOrdersQuery        = `SELECT ` + orderColumns + ` FROM "order" ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	listItemsByOrdersQuery = `SELECT id, order_id, product_id, quantity, subtotal FROM order_item WHERE order_id = ANY($1) ORDER BY order_id, product_id`
)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithinTx runs fn in a read committed transaction. fn's error, or a panic,
// rolls everything back.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return apperror.Persistence(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return apperror.Persistence(err, "commit order")
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetProductByID(ctx context.Context, id int) (product.Product, error) {
	var p product.Product
	err := t.tx.QueryRowContext(ctx, selectProductQuery, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL, &p.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, apperror.NotFound(fmt.Sprintf("product %d not found", id))
	}
	if err != nil {
		return product.Product{}, apperror.Persistence(err, "get product")
	}
	return p, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID, qty int) error {
	res, err := t.tx.ExecContext(ctx, decrementStockQuery, qty, productID)
	if err != nil {
		if database.HasCode(err, database.CodeCheckViolation) {
			return apperror.InsufficientStock(fmt.Sprintf("product %d: insufficient stock for %d units", productID, qty))
		}
		return apperror.Persistence(err, "decrement stock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Persistence(err, "decrement stock")
	}
	if n == 1 {
		return nil
	}

	var available int
	err = t.tx.QueryRowContext(ctx, selectStockQuery, productID).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(fmt.Sprintf("product %d not found", productID))
	}
	if err != nil {
		return apperror.Persistence(err, "read stock")
	}
	return apperror.InsufficientStock(fmt.Sprintf("product %d: requested %d, available %d", productID, qty, available))
}

func (t *pgTx) FindCustomerByEmail(ctx context.Context, email string) (int, bool, error) {
	var id int
	err := t.tx.QueryRowContext(ctx, findCustomerByEmailQuery, email).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperror.Persistence(err, "find customer")
	}
	return id, true, nil
}

func (t *pgTx) CreateCustomer(ctx context.Context, c GuestCustomer) (int, error) {
	var id int
	err := t.tx.QueryRowContext(ctx, insertGuestQuery, c.Name, c.Email, c.PasswordHash).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, apperror.Persistence(err, "create customer")
	}
	// another checkout inserted the same email first
	id, found, err := t.FindCustomerByEmail(ctx, c.Email)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, apperror.NotFound(fmt.Sprintf("customer %s not found", c.Email))
	}
	return id, nil
}

func (t *pgTx) CreateOrder(ctx context.Context, o Order) (Order, error) {
	err := t.tx.QueryRowContext(ctx, insertOrderQuery, o.CustomerID, o.Status, o.Total).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if database.HasCode(err, database.CodeForeignKeyViolation) {
			return Order{}, apperror.NotFound(fmt.Sprintf("customer %d not found", o.CustomerID))
		}
		return Order{}, apperror.Persistence(err, "create order")
	}
	return o, nil
}

func (t *pgTx) CreateOrderItem(ctx context.Context, it Item) (Item, error) {
	err := t.tx.QueryRowContext(ctx, insertItemQuery, it.OrderID, it.ProductID, it.Quantity, it.Subtotal).Scan(&it.ID)
	if err != nil {
		if database.HasCode(err, database.CodeForeignKeyViolation) {
			return Item{}, apperror.NotFound(fmt.Sprintf("product %d not found", it.ProductID))
		}
		return Item{}, apperror.Persistence(err, "create order item")
	}
	return it, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id int) (Order, error) {
	orders, err := s.queryOrders(ctx, getOrderQuery, id)
	if err != nil {
		return Order{}, err
	}
	if len(orders) == 0 {
		return Order{}, apperror.NotFound(fmt.Sprintf("order %d not found", id))
	}
	return orders[0], nil
}

func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID int) ([]Order, error) {
	return s.queryOrders(ctx, listByCustomerQuery, customerID)
}

func (s *PostgresStore) ListByCustomerEmail(ctx context.Context, email string) ([]Order, error) {
	return s.queryOrders(ctx, listByEmailQuery, email)
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]Order, error) {
	return s.queryOrders(ctx, listOrdersQuery, limit, offset)
}

func toInt64(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

// queryOrders loads the orders selected by query and attaches their items
// with one extra round trip.
func (s *PostgresStore) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Persistence(err, "query orders")
	}
	defer rows.Close()

	orders := make([]Order, 0)
	index := map[int]int{}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, apperror.Persistence(err, "scan order")
		}
		o.Items = []Item{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence(err, "iterate orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	itemRows, err := s.db.QueryContext(ctx, listItemsByOrdersQuery, pq.Array(toInt64(ids)))
	if err != nil {
		return nil, apperror.Persistence(err, "query order items")
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it Item
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Subtotal); err != nil {
			return nil, apperror.Persistence(err, "scan order item")
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, apperror.Persistence(err, "iterate order items")
	}
	return orders, nil
}
