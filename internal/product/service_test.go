package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/storefront-backend/internal/apperror"
)

func seedCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Dark Chocolate Brownie", Price: decimal.RequireFromString("350.00"), StockQuantity: 25, Category: "Brownies"},
		{ID: 2, Name: "Fudge Brownie", Price: decimal.RequireFromString("400.00"), StockQuantity: 0, Category: "Brownies"},
		{ID: 3, Name: "Brownie Slab", Price: decimal.RequireFromString("700.00"), StockQuantity: 8, Category: "Cakes"},
		{ID: 4, Name: "Oreo Brownie", Price: decimal.RequireFromString("350.00"), StockQuantity: 30, Category: ""},
	}
}

func TestService_Page(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))

	page, err := svc.Page(context.Background(), Query{Sort: "price", Desc: true, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Products, 3)
	assert.Equal(t, "Brownie Slab", page.Products[0].Name)

	page, err = svc.Page(context.Background(), Query{Search: "fudge"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 2, page.Products[0].ID)
}

func TestQuery_ClampsPaging(t *testing.T) {
	cases := []struct {
		name    string
		in      Query
		page    int
		perPage int
		offset  int
	}{
		{"defaults", Query{}, 1, DefaultPerPage, 0},
		{"negative", Query{Page: -3, PerPage: -1}, 1, DefaultPerPage, 0},
		{"huge page size", Query{Page: 2, PerPage: 1 << 30}, 2, MaxPerPage, MaxPerPage},
		{"huge page", Query{Page: 1 << 62, PerPage: 10}, MaxPage, 10, (MaxPage - 1) * 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := tc.in.normalized()
			assert.Equal(t, tc.page, n.Page)
			assert.Equal(t, tc.perPage, n.PerPage)
			assert.Equal(t, tc.offset, tc.in.Offset())
			assert.GreaterOrEqual(t, tc.in.Offset(), 0)
		})
	}
}

func TestService_PageBeyondEndIsEmpty(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))

	page, err := svc.Page(context.Background(), Query{Page: 1 << 40, PerPage: 1 << 20})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, page.CurrentPage)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Products)
}

func TestService_CreateValidates(t *testing.T) {
	svc := NewService(NewInMemoryRepository(nil))
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, Product{Name: "Cake", Price: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Create(ctx, Product{Name: "Cake", Price: decimal.NewFromInt(1), StockQuantity: -2})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	p, err := svc.Create(ctx, Product{Name: "Cake", Price: decimal.NewFromInt(1), StockQuantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
}

func TestService_InStockAndCategories(t *testing.T) {
	svc := NewService(NewInMemoryRepository(seedCatalog()))
	ctx := context.Background()

	in, err := svc.ListInStock(ctx, 2)
	require.NoError(t, err)
	require.Len(t, in, 2)
	assert.Equal(t, []int{1, 3}, []int{in[0].ID, in[1].ID})

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brownies", "Cakes"}, cats)

	_, err = svc.GetByID(ctx, 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
