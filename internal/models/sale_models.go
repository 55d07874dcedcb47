package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a committed, immutable transaction record.
type Sale struct {
	ID            int64           `json:"id" db:"id"`
	BusinessID    int64           `json:"business_id" db:"business_id"`
	CustomerID    *int64          `json:"customer_id,omitempty" db:"customer_id"`
	CartID        *int64          `json:"cart_id,omitempty" db:"cart_id"`
	SaleNumber    string          `json:"sale_number" db:"sale_number"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount      decimal.Decimal `json:"discount" db:"discount"`
	Taxes         decimal.Decimal `json:"taxes" db:"taxes"`
	Total         decimal.Decimal `json:"total" db:"total"`
	CostTotal     decimal.Decimal `json:"cost_total" db:"cost_total"`
	MarginTotal   decimal.Decimal `json:"margin_total" db:"margin_total"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Status        string          `json:"status" db:"status"`
	Notes         *string         `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	Lines         []SaleLineItem  `json:"lines"`
}

// SaleLineItem is a point-in-time ledger entry; it never follows later product changes.
type SaleLineItem struct {
	ID           int64           `json:"id" db:"id"`
	SaleID       int64           `json:"sale_id" db:"sale_id"`
	ProductID    int64           `json:"product_id" db:"product_id"`
	ProductName  string          `json:"product_name" db:"product_name"`
	Quantity     int             `json:"quantity" db:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price" db:"unit_price"`
	UnitDiscount decimal.Decimal `json:"unit_discount" db:"unit_discount"`
	LineSubtotal decimal.Decimal `json:"line_subtotal" db:"line_subtotal"`
	UnitCost     decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	LineMargin   decimal.Decimal `json:"line_margin" db:"line_margin"`
	BatchCode    *string         `json:"batch_code,omitempty" db:"batch_code"`
}

// SaleFilters defines the available filters for listing sales.
type SaleFilters struct {
	BusinessID int64 `form:"-"`
	Skip       int   `form:"skip"`
	Limit      int   `form:"limit"`
}
