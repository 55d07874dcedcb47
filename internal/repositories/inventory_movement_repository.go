package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizhub_backend/internal/models"
)

// InventoryMovementRepository defines the interface for inventory movement-related database operations.
type InventoryMovementRepository interface {
	CreateMovement(ctx context.Context, movement *models.InventoryMovement) (int64, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error)
}

type inventoryMovementRepository struct {
	exec SQLExecutor
}

func (r *inventoryMovementRepository) CreateMovement(ctx context.Context, movement *models.InventoryMovement) (int64, error) {
	query := `INSERT INTO inventory_movements
	          (business_id, item_kind, item_id, item_name, sale_id, movement_type, quantity_changed, reason, movement_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if movement.MovementDate.IsZero() { // Default movement_date to current time if not provided
		movement.MovementDate = time.Now()
	}

	err := r.exec.QueryRowContext(ctx, query,
		movement.BusinessID, movement.ItemKind, movement.ItemID, movement.ItemName, movement.SaleID,
		movement.MovementType, movement.QuantityChanged, movement.Reason, movement.MovementDate,
	).Scan(&movement.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating inventory movement")
	}
	return movement.ID, nil
}

func (r *inventoryMovementRepository) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	movements := []models.InventoryMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    im.id, im.business_id, im.item_kind, im.item_id, im.item_name, im.sale_id, im.movement_type,
	    im.quantity_changed, im.reason, im.movement_date,
	    COUNT(*) OVER() AS total_count
	  FROM inventory_movements im
	  WHERE im.business_id = $1`)

	args := []interface{}{filters.BusinessID}
	argCount := 2

	if filters.ItemKind != nil && *filters.ItemKind != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND im.item_kind = $%d", argCount))
		args = append(args, *filters.ItemKind)
		argCount++
	}
	if filters.ItemID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND im.item_id = $%d", argCount))
		args = append(args, *filters.ItemID)
		argCount++
	}

	queryBuilder.WriteString(" ORDER BY im.movement_date DESC, im.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting inventory movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement models.InventoryMovement
		if err := rows.Scan(
			&movement.ID, &movement.BusinessID, &movement.ItemKind, &movement.ItemID, &movement.ItemName,
			&movement.SaleID, &movement.MovementType, &movement.QuantityChanged, &movement.Reason,
			&movement.MovementDate, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, movement)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory movements: %v", ErrDatabaseError, err)
	}

	return movements, totalCount, nil
}
