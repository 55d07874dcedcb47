package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bizhub_backend/internal/models"
)

// ProductRepository reads catalog products and owns the finished-good ledger debit.
type ProductRepository interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProductsByBusiness(ctx context.Context, businessID int64) ([]models.Product, error)
	// DebitStock atomically subtracts quantity from stock_on_hand and returns the new level.
	// Without clamp a debit larger than the stock fails with ErrInsufficientQuantity and the
	// current level is returned; with clamp the level floors at zero.
	DebitStock(ctx context.Context, productID int64, quantity int, clamp bool) (int, error)
}

type productRepository struct {
	exec SQLExecutor
}

const productColumns = `id, business_id, name, description, price, stock_on_hand, minimum_stock,
	expiration_date, batch_code, created_at, updated_at`

func scanProduct(s scanner) (*models.Product, error) {
	var p models.Product
	var stock, minimum sql.NullInt64
	var expiration sql.NullTime
	if err := s.Scan(&p.ID, &p.BusinessID, &p.Name, &p.Description, &p.Price, &stock, &minimum,
		&expiration, &p.BatchCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if stock.Valid {
		v := int(stock.Int64)
		p.StockOnHand = &v
	}
	if minimum.Valid {
		v := int(minimum.Int64)
		p.MinimumStock = &v
	}
	if expiration.Valid {
		t := expiration.Time
		p.ExpirationDate = &t
	}
	return &p, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}
	return p, nil
}

func (r *productRepository) ListProductsByBusiness(ctx context.Context, businessID int64) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE business_id = $1 ORDER BY id`
	rows, err := r.exec.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing products for business %d: %v", ErrDatabaseError, businessID, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) DebitStock(ctx context.Context, productID int64, quantity int, clamp bool) (int, error) {
	query := `UPDATE products
	          SET stock_on_hand = stock_on_hand - $1, updated_at = NOW()
	          WHERE id = $2 AND stock_on_hand IS NOT NULL AND stock_on_hand >= $1
	          RETURNING stock_on_hand`
	if clamp {
		query = `UPDATE products
		         SET stock_on_hand = GREATEST(stock_on_hand - $1, 0), updated_at = NOW()
		         WHERE id = $2 AND stock_on_hand IS NOT NULL
		         RETURNING stock_on_hand`
	}

	var newStock int
	err := r.exec.QueryRowContext(ctx, query, quantity, productID).Scan(&newStock)
	if err == nil {
		return newStock, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: debiting stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}

	var current sql.NullInt64
	checkErr := r.exec.QueryRowContext(ctx, `SELECT stock_on_hand FROM products WHERE id = $1`, productID).Scan(&current)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if checkErr != nil {
		return 0, fmt.Errorf("%w: reading stock for product ID %d: %v", ErrDatabaseError, productID, checkErr)
	}
	if !current.Valid {
		return 0, fmt.Errorf("%w: product ID %d does not track stock", ErrDatabaseError, productID)
	}
	return int(current.Int64), ErrInsufficientQuantity
}
