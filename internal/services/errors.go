package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("access to this business is not allowed")
	ErrBusinessNotFound     = errors.New("business not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrIngredientNotFound   = errors.New("ingredient not found")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrCartNotFound         = errors.New("cart not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrCartIdentityRequired = errors.New("customer_id or session_token is required")
	ErrEmptyCart            = errors.New("cart has no items")
	ErrCartAlreadyFinalized = errors.New("cart is already finalized")
	ErrInvalidDateRange     = errors.New("date_from must not be after date_to")

	ErrInsufficientStock      = errors.New("insufficient stock for")
	ErrInsufficientIngredient = errors.New("insufficient ingredient")
)

// ShortageError reports a ledger debit that was refused. It unwraps to ErrInsufficientStock
// or ErrInsufficientIngredient.
type ShortageError struct {
	Kind      error
	ItemID    int64
	ItemName  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("%s %s (ID: %d). Available: %s, Requested: %s",
		e.Kind, e.ItemName, e.ItemID, e.Available.String(), e.Requested.String())
}

func (e *ShortageError) Unwrap() error {
	return e.Kind
}
