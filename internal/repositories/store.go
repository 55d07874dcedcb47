package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// Repositories groups every repository bound to the same executor (pool or transaction).
type Repositories struct {
	Businesses  BusinessRepository
	Products    ProductRepository
	Ingredients IngredientRepository
	Recipes     RecipeRepository
	Sales       SaleRepository
	Carts       CartRepository
	Movements   InventoryMovementRepository
	Reports     ReportRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	// Repos returns repositories that run outside any transaction.
	Repos() Repositories
	// WithinTx runs fn inside one transaction. fn returning an error rolls everything back.
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by a PostgreSQL connection pool.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func newRepositories(exec SQLExecutor) Repositories {
	return Repositories{
		Businesses:  &businessRepository{exec: exec},
		Products:    &productRepository{exec: exec},
		Ingredients: &ingredientRepository{exec: exec},
		Recipes:     &recipeRepository{exec: exec},
		Sales:       &saleRepository{exec: exec},
		Carts:       &cartRepository{exec: exec},
		Movements:   &inventoryMovementRepository{exec: exec},
		Reports:     &reportRepository{exec: exec},
	}
}

func (s *postgresStore) Repos() Repositories {
	return newRepositories(s.db)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
