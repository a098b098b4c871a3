package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, name, description, price, stock_quantity, image_url, category`

	getProductByIDQuery = `SELECT ` + productColumns + ` FROM product WHERE id = $1`
	listByIDsQuery      = `SELECT ` + productColumns + ` FROM product WHERE id = ANY($1) ORDER BY id`
	listInStockQuery    = `SELECT ` + productColumns + ` FROM product WHERE stock_quantity > 0 ORDER BY id LIMIT $1`
	countProductsQuery  = `SELECT COUNT(*) FROM product WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`
	categoriesQuery     = `SELECT DISTINCT category FROM product WHERE category <> '' ORDER BY category`

	insertProductQuery = `
		INSERT INTO product (name, description, price, stock_quantity, image_url, category)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`
	updateProductQuery = `
		UPDATE product
		SET name = $1,
			description = $2,
			price = $3,
			stock_quantity = $4,
			image_url = $5,
			category = $6,
			updated_at = NOW()
		WHERE id = $7
	`
	deleteProductQuery = `DELETE FROM product WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (Product, error) {
	var p Product
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL, &p.Category)
	return p, err
}

func (r *PostgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Persistence(err, "query products")
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperror.Persistence(err, "scan product")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence(err, "iterate products")
	}
	return out, nil
}

// List returns one page of products. The ORDER BY column comes from the
// Query whitelist only.
func (r *PostgresRepository) List(ctx context.Context, q Query) ([]Product, error) {
	q = q.normalized()
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM product
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id
		LIMIT $2 OFFSET $3`, productColumns, q.SortColumn(), dir)
	return r.queryProducts(ctx, query, q.Search, q.PerPage, q.Offset())
}

func (r *PostgresRepository) Count(ctx context.Context, q Query) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countProductsQuery, q.Search).Scan(&n); err != nil {
		return 0, apperror.Persistence(err, "count products")
	}
	return n, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, notFound(id)
	}
	if err != nil {
		return Product{}, apperror.Persistence(err, "get product")
	}
	return p, nil
}

func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = int64(id)
	}
	return r.queryProducts(ctx, listByIDsQuery, pq.Array(keys))
}

func (r *PostgresRepository) ListInStock(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultPerPage
	}
	return r.queryProducts(ctx, listInStockQuery, limit)
}

func (r *PostgresRepository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRowContext(ctx, insertProductQuery,
		p.Name, p.Description, p.Price, p.StockQuantity, p.ImageURL, p.Category,
	).Scan(&p.ID)
	if err != nil {
		if database.HasCode(err, database.CodeCheckViolation) {
			return Product{}, apperror.Validation("price and stock_quantity must not be negative")
		}
		return Product{}, apperror.Persistence(err, "insert product")
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, p Product) (Product, error) {
	res, err := r.db.ExecContext(ctx, updateProductQuery,
		p.Name, p.Description, p.Price, p.StockQuantity, p.ImageURL, p.Category, id,
	)
	if err != nil {
		if database.HasCode(err, database.CodeCheckViolation) {
			return Product{}, apperror.Validation("price and stock_quantity must not be negative")
		}
		return Product{}, apperror.Persistence(err, "update product")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Product{}, apperror.Persistence(err, "update product")
	}
	if n == 0 {
		return Product{}, notFound(id)
	}
	p.ID = id
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteProductQuery, id)
	if err != nil {
		if database.HasCode(err, database.CodeForeignKeyViolation) {
			return apperror.Conflict(fmt.Sprintf("product %d is referenced by existing orders", id))
		}
		return apperror.Persistence(err, "delete product")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Persistence(err, "delete product")
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (r *PostgresRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, categoriesQuery)
	if err != nil {
		return nil, apperror.Persistence(err, "list categories")
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, apperror.Persistence(err, "scan category")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
