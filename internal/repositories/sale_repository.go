package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bizhub_backend/internal/models"
)

// SaleRepository defines the interface for sale-related database operations.
type SaleRepository interface {
	// Sale methods
	CreateSale(ctx context.Context, sale *models.Sale) (int64, error)
	GetSaleByID(ctx context.Context, saleID int64) (*models.Sale, error) // Header only
	ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error)

	// SaleLineItem methods
	CreateSaleLineItem(ctx context.Context, item *models.SaleLineItem) (int64, error)
	GetSaleLineItems(ctx context.Context, saleID int64) ([]models.SaleLineItem, error)
}

type saleRepository struct {
	exec SQLExecutor
}

const saleColumns = `id, business_id, customer_id, cart_id, sale_number, subtotal, discount, taxes, total,
	cost_total, margin_total, payment_method, status, notes, created_at`

func scanSale(s scanner, extra ...interface{}) (*models.Sale, error) {
	var sale models.Sale
	dest := []interface{}{
		&sale.ID, &sale.BusinessID, &sale.CustomerID, &sale.CartID, &sale.SaleNumber, &sale.Subtotal,
		&sale.Discount, &sale.Taxes, &sale.Total, &sale.CostTotal, &sale.MarginTotal, &sale.PaymentMethod,
		&sale.Status, &sale.Notes, &sale.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) CreateSale(ctx context.Context, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales
	            (business_id, customer_id, cart_id, sale_number, subtotal, discount, taxes, total,
	             cost_total, margin_total, payment_method, status, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id`

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}

	err := r.exec.QueryRowContext(ctx, query,
		sale.BusinessID, sale.CustomerID, sale.CartID, sale.SaleNumber, sale.Subtotal, sale.Discount, sale.Taxes,
		sale.Total, sale.CostTotal, sale.MarginTotal, sale.PaymentMethod, sale.Status, sale.Notes, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating sale")
	}
	return sale.ID, nil
}

func (r *saleRepository) GetSaleByID(ctx context.Context, saleID int64) (*models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	sale, err := scanSale(r.exec.QueryRowContext(ctx, query, saleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale by ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return sale, nil
}

func (r *saleRepository) ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error) {
	sales := []models.Sale{}
	totalCount := 0

	query := `SELECT ` + saleColumns + `, COUNT(*) OVER() AS total_count
	          FROM sales
	          WHERE business_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`
	rows, err := r.exec.QueryContext(ctx, query, filters.BusinessID, filters.Limit, filters.Skip)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying sales: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		sale, err := scanSale(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning sale: %v", ErrDatabaseError, err)
		}
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating sale rows: %v", ErrDatabaseError, err)
	}
	return sales, totalCount, nil
}

// --- SaleLineItem Methods ---

func (r *saleRepository) CreateSaleLineItem(ctx context.Context, item *models.SaleLineItem) (int64, error) {
	query := `INSERT INTO sale_line_items
	            (sale_id, product_id, product_name, quantity, unit_price, unit_discount, line_subtotal,
	             unit_cost, line_margin, batch_code)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	err := r.exec.QueryRowContext(ctx, query,
		item.SaleID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.UnitDiscount,
		item.LineSubtotal, item.UnitCost, item.LineMargin, item.BatchCode,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating sale line item")
	}
	return item.ID, nil
}

func (r *saleRepository) GetSaleLineItems(ctx context.Context, saleID int64) ([]models.SaleLineItem, error) {
	items := []models.SaleLineItem{}
	query := `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price, unit_discount,
		       line_subtotal, unit_cost, line_margin, batch_code
		FROM sale_line_items
		WHERE sale_id = $1
		ORDER BY id`

	rows, err := r.exec.QueryContext(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying line items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SaleLineItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.UnitDiscount, &item.LineSubtotal, &item.UnitCost, &item.LineMargin,
			&item.BatchCode); err != nil {
			return nil, fmt.Errorf("%w: scanning line item for sale ID %d: %v", ErrDatabaseError, saleID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating line items for sale ID %d: %v", ErrDatabaseError, saleID, err)
	}
	return items, nil
}
