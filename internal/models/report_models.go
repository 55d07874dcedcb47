package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySales is one calendar-day revenue bucket.
type DailySales struct {
	Date      string          `json:"date"` // YYYY-MM-DD
	Revenue   decimal.Decimal `json:"revenue"`
	Margin    decimal.Decimal `json:"margin"`
	SaleCount int             `json:"sale_count"`
	UnitsSold int             `json:"units_sold"`
}

// TopProduct ranks a product by units sold within the analysed period.
type TopProduct struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesAnalysis is the period sales report.
type SalesAnalysis struct {
	BusinessID   int64           `json:"business_id"`
	DateFrom     string          `json:"date_from"`
	DateTo       string          `json:"date_to"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalUnits   int             `json:"total_units"`
	TotalMargin  decimal.Decimal `json:"total_margin"`
	SaleCount    int             `json:"sale_count"`
	Daily        []DailySales    `json:"daily"`
	TopProducts  []TopProduct    `json:"top_products"`
}

// Alert types.
const (
	AlertLowStock   = "low_stock"
	AlertOutOfStock = "out_of_stock"
	AlertNearExpiry = "near_expiry"
)

// StockAlert is an entry of the low-stock or near-expiry alert lists.
type StockAlert struct {
	AlertType         string     `json:"alert_type"`
	ProductID         int64      `json:"product_id"`
	ProductName       string     `json:"product_name"`
	BatchCode         *string    `json:"batch_code,omitempty"`
	StockOnHand       int        `json:"stock_on_hand"`
	MinimumStock      int        `json:"minimum_stock"`
	DaysSinceLastSale *int       `json:"days_since_last_sale,omitempty"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	DaysUntilExpiry   *int       `json:"days_until_expiry,omitempty"`
}

// ProductCosting is the costing view of a product for catalog screens.
type ProductCosting struct {
	ProductID         int64            `json:"product_id"`
	BusinessID        int64            `json:"business_id"`
	ProductName       string           `json:"product_name"`
	SalePrice         decimal.Decimal  `json:"sale_price"`
	COGS              decimal.Decimal  `json:"cogs"`
	TargetMarginPct   *decimal.Decimal `json:"target_margin_pct,omitempty"`
	SuggestedPrice    *decimal.Decimal `json:"suggested_price,omitempty"`
	RealizedMarginPct *decimal.Decimal `json:"realized_margin_pct,omitempty"`
	Lines             []RecipeLine     `json:"lines"`
}
