package database

import (
	"context"
	"database/sql"
	"fmt"
)

type demoProduct struct {
	name, desc, price, image, category string
	stock                              int
}

var demoProducts = []demoProduct{
	{"Dark Chocolate Brownie", "Rich and fudgy brownie with dark chocolate.", "350.00", "/static/Fudgy_Dark_Chocolate.jpg", "Brownies", 25},
	{"Fudge Brownie", "Brownie with crunchy walnut pieces.", "400.00", "/static/featured_brownie.jpg", "Brownies", 25},
	{"Nutty Delight", "Fudgy brownie with caramel swirls.", "420.00", "/static/Almond_Flour_Chocolate_Brownies.jpg", "Cakes", 20},
	{"Boozy Brownie Box", "Brownie with a hint of rum.", "350.00", "/static/boozy_brownie.webp", "Cakes", 10},
	{"Roasted Nuts Brownie", "Brownie with roasted nuts.", "400.00", "/static/RoastedNutsBrownie.webp", "Cakes", 15},
	{"Red Velvet Brownie", "Brownie with red velvet.", "420.00", "/static/RedVelvetBrownie.webp", "Brownies", 15},
	{"Choco Hazelnut Spread Brownie", "Brownie with choco hazelnut spread.", "350.00", "/static/choco.jpg", "Cakes", 20},
	{"Eggless Choco Hazelnut Spread Brownie", "Eggless brownie with choco hazelnut spread.", "400.00", "/static/EgglessChoco.webp", "Brownies", 20},
	{"Brownie Slab", "Rich and fudgy brownie with dark chocolate.", "700.00", "/static/BrownieSlab.webp", "Cakes", 8},
	{"Choco Hazelnut Crunch", "Rich and fudgy brownie with dark chocolate.", "1150.00", "/static/crunchhazelnut_600x.jpg", "Cakes", 5},
	{"Heart Unlock Brownie Cake", "Rich and fudgy brownie with dark chocolate.", "400.00", "/static/heartunlock_600x.jpg", "Cakes", 10},
	{"Nutty Professor Brownie", "Rich and fudgy brownie with dark chocolate.", "420.00", "/static/nutty_600x.jpg", "Brownies", 15},
	{"Oreo Brownie", "Rich and fudgy brownie with dark chocolate.", "350.00", "/static/OreoBrownie_600x.webp", "Brownies", 30},
	{"Salted Caramel Fudge Brownie", "Rich and fudgy brownie with dark chocolate.", "400.00", "/static/SaltedCaramelBrownie_600x.webp", "Brownies", 20},
	{"Triple Chocolate Brownie", "Rich and fudgy brownie with dark chocolate.", "420.00", "/static/TripleChocolateBrownie_600x.webp", "Brownies", 20},
}

// SeedProducts fills an empty catalog with the demo products and returns
// how many rows were inserted. A non-empty catalog is left untouched.
func SeedProducts(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range demoProducts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product (name, description, price, stock_quantity, image_url, category) VALUES ($1,$2,$3,$4,$5,$6)`,
			p.name, p.desc, p.price, p.stock, p.image, p.category); err != nil {
			return 0, fmt.Errorf("seed product %q: %w", p.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(demoProducts), nil
}
