package services

import (
	"context"
	"errors"
	"fmt"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// Monetary values are kept at the storage scale of NUMERIC(18,4).
const moneyScale = 4

var hundred = decimal.NewFromInt(100)

// CostingService derives cost of goods and pricing figures from recipes.
type CostingService interface {
	ComputeCost(ctx context.Context, productID int64) (decimal.Decimal, error)
	ProductCosting(ctx context.Context, productID int64, targetMarginPct *decimal.Decimal) (*models.ProductCosting, error)
}

type costingService struct {
	store repositories.Store
}

// NewCostingService creates a new instance of CostingService.
func NewCostingService(store repositories.Store) CostingService {
	return &costingService{store: store}
}

// CostOfGoods sums unit_cost * quantity_required over the recipe. An empty recipe costs zero.
func CostOfGoods(lines []models.RecipeLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.IngredientUnitCost.Mul(line.QuantityRequired))
	}
	return total.Round(moneyScale)
}

// SuggestPrice applies a target margin percentage on top of cogs. Nil pct gives nil.
func SuggestPrice(cogs decimal.Decimal, targetMarginPct *decimal.Decimal) *decimal.Decimal {
	if targetMarginPct == nil {
		return nil
	}
	price := cogs.Mul(decimal.NewFromInt(1).Add(targetMarginPct.Div(hundred))).Round(moneyScale)
	return &price
}

// RealizedMargin is (price - cogs) / cogs * 100, absent when cogs is not positive.
func RealizedMargin(salePrice, cogs decimal.Decimal) *decimal.Decimal {
	if !cogs.IsPositive() {
		return nil
	}
	margin := salePrice.Sub(cogs).Div(cogs).Mul(hundred).Round(2)
	return &margin
}

func (s *costingService) ComputeCost(ctx context.Context, productID int64) (decimal.Decimal, error) {
	lines, err := s.store.Repos().Recipes.ListRecipeLines(ctx, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load recipe for product %d: %w", productID, err)
	}
	return CostOfGoods(lines), nil
}

func (s *costingService) ProductCosting(ctx context.Context, productID int64, targetMarginPct *decimal.Decimal) (*models.ProductCosting, error) {
	if targetMarginPct != nil && targetMarginPct.IsNegative() {
		return nil, fmt.Errorf("%w: target_margin must not be negative", ErrValidation)
	}
	repos := s.store.Repos()
	product, err := repos.Products.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to get product %d: %w", productID, err)
	}
	lines, err := repos.Recipes.ListRecipeLines(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe for product %d: %w", productID, err)
	}

	cogs := CostOfGoods(lines)
	return &models.ProductCosting{
		ProductID:         product.ID,
		BusinessID:        product.BusinessID,
		ProductName:       product.Name,
		SalePrice:         product.Price,
		COGS:              cogs,
		TargetMarginPct:   targetMarginPct,
		SuggestedPrice:    SuggestPrice(cogs, targetMarginPct),
		RealizedMarginPct: RealizedMargin(product.Price, cogs),
		Lines:             lines,
	}, nil
}
