package services

import (
	"context"
	"fmt"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
)

// InventoryMovementService reads the movement journal written by sales.
type InventoryMovementService interface {
	ListMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementService struct {
	store repositories.Store
}

// NewInventoryMovementService creates a new instance of InventoryMovementService.
func NewInventoryMovementService(store repositories.Store) InventoryMovementService {
	return &inventoryMovementService{store: store}
}

func (s *inventoryMovementService) ListMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	if filters.ItemKind != nil && *filters.ItemKind != "" &&
		*filters.ItemKind != models.ItemKindProduct && *filters.ItemKind != models.ItemKindIngredient {
		return nil, 0, fmt.Errorf("%w: item_kind must be product or ingredient", ErrValidation)
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}
	movements, total, err := s.store.Repos().Movements.GetMovements(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get inventory movements: %w", err)
	}
	return movements, total, nil
}
