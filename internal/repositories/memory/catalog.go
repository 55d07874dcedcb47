package memory

import (
	"context"
	"fmt"
	"sort"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

func (r *repo) GetBusinessByID(ctx context.Context, id int64) (*models.Business, error) {
	var out *models.Business
	err := r.view(func(st *state) error {
		b, ok := st.businesses[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *repo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var out *models.Product
	err := r.view(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repositories.ErrNotFound
		}
		p.StockOnHand = copyInt(p.StockOnHand)
		p.MinimumStock = copyInt(p.MinimumStock)
		out = &p
		return nil
	})
	return out, err
}

func (r *repo) ListProductsByBusiness(ctx context.Context, businessID int64) ([]models.Product, error) {
	products := []models.Product{}
	err := r.view(func(st *state) error {
		for _, p := range st.products {
			if p.BusinessID == businessID {
				p.StockOnHand = copyInt(p.StockOnHand)
				p.MinimumStock = copyInt(p.MinimumStock)
				products = append(products, p)
			}
		}
		return nil
	})
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, err
}

func (r *repo) DebitStock(ctx context.Context, productID int64, quantity int, clamp bool) (int, error) {
	var level int
	err := r.update(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return repositories.ErrNotFound
		}
		if p.StockOnHand == nil {
			return fmt.Errorf("%w: product ID %d does not track stock", repositories.ErrDatabaseError, productID)
		}
		current := *p.StockOnHand
		if current < quantity && !clamp {
			level = current
			return repositories.ErrInsufficientQuantity
		}
		next := current - quantity
		if next < 0 {
			next = 0
		}
		p.StockOnHand = &next
		st.products[productID] = p
		level = next
		return nil
	})
	return level, err
}

func (r *repo) GetIngredientByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	var out *models.Ingredient
	err := r.view(func(st *state) error {
		i, ok := st.ingredients[id]
		if !ok {
			return repositories.ErrNotFound
		}
		out = &i
		return nil
	})
	return out, err
}

func (r *repo) DebitIngredient(ctx context.Context, ingredientID int64, quantity decimal.Decimal, clamp bool) (decimal.Decimal, error) {
	var level decimal.Decimal
	err := r.update(func(st *state) error {
		i, ok := st.ingredients[ingredientID]
		if !ok {
			return repositories.ErrNotFound
		}
		if i.QuantityOnHand.LessThan(quantity) && !clamp {
			level = i.QuantityOnHand
			return repositories.ErrInsufficientQuantity
		}
		next := i.QuantityOnHand.Sub(quantity)
		if next.IsNegative() {
			next = decimal.Zero
		}
		i.QuantityOnHand = next
		st.ingredients[ingredientID] = i
		level = next
		return nil
	})
	return level, err
}

func (r *repo) ListRecipeLines(ctx context.Context, productID int64) ([]models.RecipeLine, error) {
	lines := []models.RecipeLine{}
	err := r.view(func(st *state) error {
		for _, line := range st.recipeLines {
			if line.ProductID != productID {
				continue
			}
			line.IngredientName = ""
			line.IngredientUnitCost = decimal.Zero
			if i, ok := st.ingredients[line.IngredientID]; ok {
				line.IngredientName = i.Name
				line.IngredientUnitCost = i.UnitCost
			}
			lines = append(lines, line)
		}
		return nil
	})
	return lines, err
}
