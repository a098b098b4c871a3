package product

import "github.com/shopspring/decimal"

// Product maps to the `product` table.
type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string          `json:"image_url" validate:"max=255"`
	Category      string          `json:"category" validate:"max=100"`
}

// InStock reports whether at least qty units are available.
func (p Product) InStock(qty int) bool {
	return qty > 0 && p.StockQuantity >= qty
}

// Query selects a page of the catalog for listings.
type Query struct {
	Search  string
	Sort    string
	Desc    bool
	Page    int
	PerPage int
}

// DefaultPerPage is the admin listing page size.
const DefaultPerPage = 20

// Listing bounds. Larger requests are clamped, not rejected.
const (
	MaxPerPage = 100
	MaxPage    = 1_000_000
)

var sortColumns = map[string]string{
	"id":             "id",
	"name":           "name",
	"price":          "price",
	"stock_quantity": "stock_quantity",
	"category":       "category",
}

// SortColumn returns the whitelisted column for q.Sort, defaulting to name.
func (q Query) SortColumn() string {
	if col, ok := sortColumns[q.Sort]; ok {
		return col
	}
	return "name"
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
	return q
}

// Offset is the row offset of q's page.
func (q Query) Offset() int {
	n := q.normalized()
	return (n.Page - 1) * n.PerPage
}

// Page is one page of an admin product listing.
type Page struct {
	Products    []Product `json:"products"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
	Total       int       `json:"total"`
}
