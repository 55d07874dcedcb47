package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizhub_backend/internal/models"
)

// BusinessRepository reads the businesses owned by the catalog service.
type BusinessRepository interface {
	GetBusinessByID(ctx context.Context, id int64) (*models.Business, error)
}

type businessRepository struct {
	exec SQLExecutor
}

func (r *businessRepository) GetBusinessByID(ctx context.Context, id int64) (*models.Business, error) {
	b := &models.Business{}
	query := `SELECT id, owner_id, name, active, created_at FROM businesses WHERE id = $1`
	err := r.exec.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.OwnerID, &b.Name, &b.Active, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting business by ID %d: %v", ErrDatabaseError, id, err)
	}
	return b, nil
}
