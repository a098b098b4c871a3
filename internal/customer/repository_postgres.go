package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/wichananm65/storefront-backend/internal/apperror"
	"github.com/wichananm65/storefront-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	customerColumns = `id, name, email, password, active, guest, created_at`

	// $1 is the search term, $2 the optional active flag.
	customerFilter = `
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		  AND ($2::boolean IS NULL OR active = $2)
	`
	listCustomersQuery      = `SELECT ` + customerColumns + ` FROM customer` + customerFilter + `ORDER BY id`
	countCustomersQuery     = `SELECT COUNT(*) FROM customer` + customerFilter
	getCustomerByIDQuery    = `SELECT ` + customerColumns + ` FROM customer WHERE id = $1`
	getCustomerByEmailQuery = `SELECT ` + customerColumns + ` FROM customer WHERE email = $1`

	insertCustomerQuery = `
		INSERT INTO customer (name, email, password, active, guest)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	updateCustomerQuery = `
		UPDATE customer
		SET name = $1,
			email = $2,
			password = $3,
			active = $4,
			guest = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING created_at
	`
	deleteCustomerQuery = `DELETE FROM customer WHERE id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCustomer(s rowScanner) (Customer, error) {
	var c Customer
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Password, &c.Active, &c.Guest, &c.CreatedAt)
	return c, err
}

func filterArgs(f Filter) []any {
	active := sql.NullBool{}
	switch f.Status {
	case StatusActive:
		active = sql.NullBool{Bool: true, Valid: true}
	case StatusInactive:
		active = sql.NullBool{Bool: false, Valid: true}
	}
	return []any{f.Search, active}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Customer, error) {
	rows, err := r.db.QueryContext(ctx, listCustomersQuery, filterArgs(f)...)
	if err != nil {
		return nil, apperror.Persistence(err, "list customers")
	}
	defer rows.Close()

	out := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, apperror.Persistence(err, "scan customer")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Persistence(err, "iterate customers")
	}
	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countCustomersQuery, filterArgs(f)...).Scan(&n); err != nil {
		return 0, apperror.Persistence(err, "count customers")
	}
	return n, nil
}

func (r *PostgresRepository) get(ctx context.Context, query string, key any) (Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, notFound(fmt.Sprint(key))
	}
	if err != nil {
		return Customer{}, apperror.Persistence(err, "get customer")
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Customer, error) {
	return r.get(ctx, getCustomerByIDQuery, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (Customer, error) {
	return r.get(ctx, getCustomerByEmailQuery, email)
}

func (r *PostgresRepository) Create(ctx context.Context, c Customer) (Customer, error) {
	err := r.db.QueryRowContext(ctx, insertCustomerQuery, c.Name, c.Email, c.Password, c.Active, c.Guest).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.HasCode(err, database.CodeUniqueViolation) {
			return Customer{}, ErrEmailExists
		}
		return Customer{}, apperror.Persistence(err, "insert customer")
	}
	return c, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, c Customer) (Customer, error) {
	err := r.db.QueryRowContext(ctx, updateCustomerQuery, c.Name, c.Email, c.Password, c.Active, c.Guest, id).
		Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, notFound(fmt.Sprint(id))
	}
	if err != nil {
		if database.HasCode(err, database.CodeUniqueViolation) {
			return Customer{}, ErrEmailExists
		}
		return Customer{}, apperror.Persistence(err, "update customer")
	}
	c.ID = id
	return c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteCustomerQuery, id)
	if err != nil {
		return apperror.Persistence(err, "delete customer")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Persistence(err, "delete customer")
	}
	if n == 0 {
		return notFound(fmt.Sprint(id))
	}
	return nil
}
