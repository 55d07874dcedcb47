package services

import (
	"context"
	"errors"
	"fmt"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
)

// BusinessService answers ownership questions on behalf of the HTTP layer.
type BusinessService interface {
	// EnsureAccess returns the business when userID owns it or role is Admin.
	EnsureAccess(ctx context.Context, businessID, userID int64, role string) (*models.Business, error)
}

type businessService struct {
	store repositories.Store
}

// NewBusinessService creates a new instance of BusinessService.
func NewBusinessService(store repositories.Store) BusinessService {
	return &businessService{store: store}
}

func (s *businessService) EnsureAccess(ctx context.Context, businessID, userID int64, role string) (*models.Business, error) {
	business, err := loadBusiness(ctx, s.store.Repos(), businessID)
	if err != nil {
		return nil, err
	}
	if role != RoleAdmin && business.OwnerID != userID {
		return nil, fmt.Errorf("%w: business ID %d", ErrForbidden, businessID)
	}
	return business, nil
}

func loadBusiness(ctx context.Context, repos repositories.Repositories, businessID int64) (*models.Business, error) {
	business, err := repos.Businesses.GetBusinessByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrBusinessNotFound, businessID)
		}
		return nil, fmt.Errorf("failed to get business %d: %w", businessID, err)
	}
	return business, nil
}
