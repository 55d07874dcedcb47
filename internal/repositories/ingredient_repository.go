package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizhub_backend/internal/models"

	"github.com/shopspring/decimal"
)

// IngredientRepository owns the ingredient ledger.
type IngredientRepository interface {
	GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error)
	// DebitIngredient atomically subtracts quantity from quantity_on_hand. Same contract as
	// ProductRepository.DebitStock.
	DebitIngredient(ctx context.Context, ingredientID int64, quantity decimal.Decimal, clamp bool) (decimal.Decimal, error)
}

type ingredientRepository struct {
	exec SQLExecutor
}

func (r *ingredientRepository) GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	i := &models.Ingredient{}
	query := `SELECT id, owner_id, name, quantity_on_hand, unit_of_purchase, unit_cost, created_at, updated_at
	          FROM ingredients WHERE id = $1`
	err := r.exec.QueryRowContext(ctx, query, id).Scan(
		&i.ID, &i.OwnerID, &i.Name, &i.QuantityOnHand, &i.UnitOfPurchase, &i.UnitCost, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting ingredient by ID %d: %v", ErrDatabaseError, id, err)
	}
	return i, nil
}

func (r *ingredientRepository) DebitIngredient(ctx context.Context, ingredientID int64, quantity decimal.Decimal, clamp bool) (decimal.Decimal, error) {
	query := `UPDATE ingredients
	          SET quantity_on_hand = quantity_on_hand - $1, updated_at = NOW()
	          WHERE id = $2 AND quantity_on_hand >= $1
	          RETURNING quantity_on_hand`
	if clamp {
		query = `UPDATE ingredients
		         SET quantity_on_hand = GREATEST(quantity_on_hand - $1, 0), updated_at = NOW()
		         WHERE id = $2
		         RETURNING quantity_on_hand`
	}

	var remaining decimal.Decimal
	err := r.exec.QueryRowContext(ctx, query, quantity, ingredientID).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: debiting ingredient ID %d: %v", ErrDatabaseError, ingredientID, err)
	}

	var current decimal.Decimal
	checkErr := r.exec.QueryRowContext(ctx, `SELECT quantity_on_hand FROM ingredients WHERE id = $1`, ingredientID).Scan(&current)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if checkErr != nil {
		return decimal.Zero, fmt.Errorf("%w: reading ingredient ID %d: %v", ErrDatabaseError, ingredientID, checkErr)
	}
	return current, ErrInsufficientQuantity
}
