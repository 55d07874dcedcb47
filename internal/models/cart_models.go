package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a mutable staging area for a prospective sale. It is consumed exactly once.
type Cart struct {
	ID           int64      `json:"id" db:"id"`
	BusinessID   int64      `json:"business_id" db:"business_id"`
	CustomerID   *int64     `json:"customer_id,omitempty" db:"customer_id"`
	SessionToken *string    `json:"session_token,omitempty" db:"session_token"`
	Active       bool       `json:"active" db:"active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	Items        []CartItem `json:"items"`
}

// Subtotal sums captured prices; it is informational only, the sale recomputes everything.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CartItem is unique per (cart, product). UnitPrice is captured when the row is first inserted.
type CartItem struct {
	ID          int64           `json:"id" db:"id"`
	CartID      int64           `json:"cart_id" db:"cart_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
