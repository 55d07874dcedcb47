package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Business is the owning tenant of products, carts and sales. Managed by the catalog service.
type Business struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Product is a sellable item. StockOnHand is nil when finished-good stock is not tracked.
type Product struct {
	ID             int64           `json:"id" db:"id"`
	BusinessID     int64           `json:"business_id" db:"business_id"`
	Name           string          `json:"name" db:"name"`
	Description    *string         `json:"description,omitempty" db:"description"`
	Price          decimal.Decimal `json:"price" db:"price"`
	StockOnHand    *int            `json:"stock_on_hand,omitempty" db:"stock_on_hand"`
	MinimumStock   *int            `json:"minimum_stock,omitempty" db:"minimum_stock"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty" db:"expiration_date"`
	BatchCode      *string         `json:"batch_code,omitempty" db:"batch_code"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// TracksStock reports whether the finished-good ledger applies to this product.
func (p *Product) TracksStock() bool {
	return p.StockOnHand != nil
}

// Ingredient is a raw material consumed by recipes.
type Ingredient struct {
	ID             int64           `json:"id" db:"id"`
	OwnerID        int64           `json:"owner_id" db:"owner_id"`
	Name           string          `json:"name" db:"name"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand" db:"quantity_on_hand"`
	UnitOfPurchase string          `json:"unit_of_purchase" db:"unit_of_purchase"`
	UnitCost       decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// RecipeLine is the quantity of one ingredient needed to produce one unit of a product.
// IngredientName and IngredientUnitCost are read from the ingredient row at query time;
// NetCost is the denormalized snapshot kept by the catalog.
type RecipeLine struct {
	ID                 int64           `json:"id" db:"id"`
	ProductID          int64           `json:"product_id" db:"product_id"`
	IngredientID       int64           `json:"ingredient_id" db:"ingredient_id"`
	QuantityRequired   decimal.Decimal `json:"quantity_required" db:"quantity_required"`
	NetCost            decimal.Decimal `json:"net_cost" db:"net_cost"`
	IngredientName     string          `json:"ingredient_name,omitempty"`
	IngredientUnitCost decimal.Decimal `json:"ingredient_unit_cost"`
}
