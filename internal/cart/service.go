package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"github.com/wichananm65/storefront-backend/internal/product"
	"go.uber.org/zap"
)

// ProductLookup resolves the products referenced by a cart.
type ProductLookup interface {
	ListByIDs(ctx context.Context, ids []int) ([]product.Product, error)
}

type Item struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// View is a priced snapshot of a cart.
type View struct {
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Warnings   []string        `json:"warnings,omitempty"`
	Missing    []int           `json:"-"`
}

type Service struct {
	products ProductLookup
	taxRate  decimal.Decimal
}

func NewService(products ProductLookup, taxRate float64) *Service {
	return &Service{products: products, taxRate: decimal.NewFromFloat(taxRate)}
}

// View prices every line of crt. Products that no longer exist are left out
// of the result and reported in Missing and Warnings. Lines asking for more
// than the current stock are kept but get a warning; checkout decides.
func (s *Service) View(ctx context.Context, crt *Cart) (View, error) {
	lines := crt.Lines()
	found, err := s.products.ListByIDs(ctx, crt.ProductIDs())
	if err != nil {
		return View{}, err
	}
	byID := make(map[int]product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	v := View{Items: make([]Item, 0, len(lines)), Total: decimal.Zero, Discount: decimal.Zero}
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			v.Missing = append(v.Missing, l.ProductID)
			v.Warnings = append(v.Warnings, fmt.Sprintf("Product with ID %d not found and was removed from your cart.", l.ProductID))
			logger.FromContext(ctx).Warn("cart references missing product", zap.Int("product_id", l.ProductID))
			continue
		}
		if !p.InStock(l.Quantity) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Only %d of %s left in stock.", p.StockQuantity, p.Name))
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		v.Items = append(v.Items, Item{Product: p, Quantity: l.Quantity, Subtotal: sub})
		v.Total = v.Total.Add(sub)
	}

	v.Tax = v.Total.Mul(s.taxRate).Round(2)
	v.GrandTotal = v.Total.Sub(v.Discount).Add(v.Tax).Round(2)
	return v, nil
}
