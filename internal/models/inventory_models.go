package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item kinds recorded in the movement journal.
const (
	ItemKindProduct    = "product"
	ItemKindIngredient = "ingredient"
)

// InventoryMovement represents a change in a ledger quantity (finished good or ingredient)
type InventoryMovement struct {
	ID              int64           `json:"id" db:"id"`
	BusinessID      int64           `json:"business_id" db:"business_id"`
	ItemKind        string          `json:"item_kind" db:"item_kind"`
	ItemID          int64           `json:"item_id" db:"item_id"`
	ItemName        string          `json:"item_name,omitempty"`
	SaleID          *int64          `json:"sale_id,omitempty" db:"sale_id"`
	MovementType    string          `json:"movement_type" db:"movement_type"` // sale, sale_consumption
	QuantityChanged decimal.Decimal `json:"quantity_changed" db:"quantity_changed"`
	Reason          *string         `json:"reason,omitempty" db:"reason"`
	MovementDate    time.Time       `json:"movement_date" db:"movement_date"`
}

// MovementFilters narrows a movement listing.
type MovementFilters struct {
	BusinessID int64
	ItemKind   *string
	ItemID     *int64
	Page       int
	PageSize   int
}
