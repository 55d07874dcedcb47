package repositories

import (
	"context"
	"fmt"

	"bizhub_backend/internal/models"

	"github.com/shopspring/decimal"
)

// RecipeRepository reads recipe lines joined with the live ingredient cost.
type RecipeRepository interface {
	ListRecipeLines(ctx context.Context, productID int64) ([]models.RecipeLine, error)
}

type recipeRepository struct {
	exec SQLExecutor
}

func (r *recipeRepository) ListRecipeLines(ctx context.Context, productID int64) ([]models.RecipeLine, error) {
	query := `
		SELECT rl.id, rl.product_id, rl.ingredient_id, rl.quantity_required, rl.net_cost,
		       COALESCE(i.name, ''), i.unit_cost
		FROM recipe_lines rl
		LEFT JOIN ingredients i ON i.id = rl.ingredient_id
		WHERE rl.product_id = $1
		ORDER BY rl.id`
	rows, err := r.exec.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying recipe lines for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	defer rows.Close()

	lines := []models.RecipeLine{}
	for rows.Next() {
		var line models.RecipeLine
		var unitCost decimal.NullDecimal
		if err := rows.Scan(&line.ID, &line.ProductID, &line.IngredientID, &line.QuantityRequired, &line.NetCost,
			&line.IngredientName, &unitCost); err != nil {
			return nil, fmt.Errorf("%w: scanning recipe line: %v", ErrDatabaseError, err)
		}
		if unitCost.Valid {
			line.IngredientUnitCost = unitCost.Decimal
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating recipe lines: %v", ErrDatabaseError, err)
	}
	return lines, nil
}
