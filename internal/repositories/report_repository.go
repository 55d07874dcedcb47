package repositories

import (
	"context"
	"fmt"
	"time"

	"bizhub_backend/internal/models"

	"github.com/lib/pq"
)

// ReportRepository provides the read-only queries behind analytics and alerts.
type ReportRepository interface {
	// ListSalesWithLines returns completed sales with created_at in [from, to), oldest first,
	// each carrying its line items.
	ListSalesWithLines(ctx context.Context, businessID int64, from, to time.Time) ([]models.Sale, error)
	// LastSaleTimes returns the most recent sale time per product; products never sold are absent.
	LastSaleTimes(ctx context.Context, businessID int64, productIDs []int64) (map[int64]time.Time, error)
}

type reportRepository struct {
	exec SQLExecutor
}

func (r *reportRepository) ListSalesWithLines(ctx context.Context, businessID int64, from, to time.Time) ([]models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales
	          WHERE business_id = $1 AND status = 'completed' AND created_at >= $2 AND created_at < $3
	          ORDER BY created_at, id`
	rows, err := r.exec.QueryContext(ctx, query, businessID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sales for report: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	sales := []models.Sale{}
	index := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning sale for report: %v", ErrDatabaseError, err)
		}
		sale.Lines = []models.SaleLineItem{}
		index[sale.ID] = len(sales)
		ids = append(ids, sale.ID)
		sales = append(sales, *sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales for report: %v", ErrDatabaseError, err)
	}
	if len(ids) == 0 {
		return sales, nil
	}

	lineQuery := `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price, unit_discount,
		       line_subtotal, unit_cost, line_margin, batch_code
		FROM sale_line_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, id`
	lineRows, err := r.exec.QueryContext(ctx, lineQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying line items for report: %v", ErrDatabaseError, err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var item models.SaleLineItem
		if err := lineRows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.UnitDiscount, &item.LineSubtotal, &item.UnitCost, &item.LineMargin,
			&item.BatchCode); err != nil {
			return nil, fmt.Errorf("%w: scanning line item for report: %v", ErrDatabaseError, err)
		}
		if i, ok := index[item.SaleID]; ok {
			sales[i].Lines = append(sales[i].Lines, item)
		}
	}
	if err = lineRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating line items for report: %v", ErrDatabaseError, err)
	}
	return sales, nil
}

func (r *reportRepository) LastSaleTimes(ctx context.Context, businessID int64, productIDs []int64) (map[int64]time.Time, error) {
	result := map[int64]time.Time{}
	if len(productIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT sli.product_id, MAX(s.created_at)
		FROM sale_line_items sli
		JOIN sales s ON s.id = sli.sale_id
		WHERE s.business_id = $1 AND sli.product_id = ANY($2)
		GROUP BY sli.product_id`
	rows, err := r.exec.QueryContext(ctx, query, businessID, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying last sale times: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var last time.Time
		if err := rows.Scan(&productID, &last); err != nil {
			return nil, fmt.Errorf("%w: scanning last sale time: %v", ErrDatabaseError, err)
		}
		result[productID] = last
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating last sale times: %v", ErrDatabaseError, err)
	}
	return result, nil
}
