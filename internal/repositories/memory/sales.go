package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
)

func (r *repo) CreateSale(ctx context.Context, sale *models.Sale) (int64, error) {
	if err := r.store.takeSaleInsertFailure(); err != nil {
		return 0, err
	}
	err := r.update(func(st *state) error {
		for _, existing := range st.sales {
			if existing.SaleNumber == sale.SaleNumber {
				return fmt.Errorf("%w: creating sale (constraint: sales_sale_number_key)", repositories.ErrDuplicateKey)
			}
		}
		if sale.CreatedAt.IsZero() {
			sale.CreatedAt = time.Now()
		}
		sale.ID = st.id()
		row := *sale
		row.Lines = nil
		st.sales = append(st.sales, row)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sale.ID, nil
}

func (r *repo) GetSaleByID(ctx context.Context, saleID int64) (*models.Sale, error) {
	var out *models.Sale
	err := r.view(func(st *state) error {
		for _, s := range st.sales {
			if s.ID == saleID {
				out = &s
				return nil
			}
		}
		return repositories.ErrNotFound
	})
	return out, err
}

func (r *repo) ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error) {
	var matched []models.Sale
	_ = r.view(func(st *state) error {
		for _, s := range st.sales {
			if s.BusinessID == filters.BusinessID {
				matched = append(matched, s)
			}
		}
		return nil
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	page := []models.Sale{}
	for i := filters.Skip; i < total && len(page) < filters.Limit; i++ {
		page = append(page, matched[i])
	}
	return page, total, nil
}

func (r *repo) CreateSaleLineItem(ctx context.Context, item *models.SaleLineItem) (int64, error) {
	err := r.update(func(st *state) error {
		found := false
		for _, s := range st.sales {
			if s.ID == item.SaleID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: creating sale line item (constraint: sale_line_items_sale_id_fkey)", repositories.ErrForeignKey)
		}
		item.ID = st.id()
		st.saleLines = append(st.saleLines, *item)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (r *repo) GetSaleLineItems(ctx context.Context, saleID int64) ([]models.SaleLineItem, error) {
	items := []models.SaleLineItem{}
	err := r.view(func(st *state) error {
		for _, item := range st.saleLines {
			if item.SaleID == saleID {
				items = append(items, item)
			}
		}
		return nil
	})
	return items, err
}

func (r *repo) CreateMovement(ctx context.Context, movement *models.InventoryMovement) (int64, error) {
	err := r.update(func(st *state) error {
		if movement.MovementDate.IsZero() {
			movement.MovementDate = time.Now()
		}
		movement.ID = st.id()
		st.movements = append(st.movements, *movement)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return movement.ID, nil
}

func (r *repo) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.InventoryMovement, int, error) {
	var matched []models.InventoryMovement
	_ = r.view(func(st *state) error {
		for _, m := range st.movements {
			if m.BusinessID != filters.BusinessID {
				continue
			}
			if filters.ItemKind != nil && *filters.ItemKind != "" && m.ItemKind != *filters.ItemKind {
				continue
			}
			if filters.ItemID != nil && m.ItemID != *filters.ItemID {
				continue
			}
			matched = append(matched, m)
		}
		return nil
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].MovementDate.Equal(matched[j].MovementDate) {
			return matched[i].MovementDate.After(matched[j].MovementDate)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	page := []models.InventoryMovement{}
	for i := (filters.Page - 1) * filters.PageSize; i >= 0 && i < total && len(page) < filters.PageSize; i++ {
		page = append(page, matched[i])
	}
	return page, total, nil
}

func (r *repo) ListSalesWithLines(ctx context.Context, businessID int64, from, to time.Time) ([]models.Sale, error) {
	sales := []models.Sale{}
	err := r.view(func(st *state) error {
		for _, s := range st.sales {
			if s.BusinessID != businessID || s.Status != "completed" {
				continue
			}
			if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
				continue
			}
			s.Lines = []models.SaleLineItem{}
			for _, item := range st.saleLines {
				if item.SaleID == s.ID {
					s.Lines = append(s.Lines, item)
				}
			}
			sales = append(sales, s)
		}
		return nil
	})
	sort.SliceStable(sales, func(i, j int) bool {
		if !sales[i].CreatedAt.Equal(sales[j].CreatedAt) {
			return sales[i].CreatedAt.Before(sales[j].CreatedAt)
		}
		return sales[i].ID < sales[j].ID
	})
	return sales, err
}

func (r *repo) LastSaleTimes(ctx context.Context, businessID int64, productIDs []int64) (map[int64]time.Time, error) {
	wanted := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	result := map[int64]time.Time{}
	err := r.view(func(st *state) error {
		created := map[int64]time.Time{}
		for _, s := range st.sales {
			if s.BusinessID == businessID {
				created[s.ID] = s.CreatedAt
			}
		}
		for _, item := range st.saleLines {
			at, ok := created[item.SaleID]
			if !ok || !wanted[item.ProductID] {
				continue
			}
			if last, seen := result[item.ProductID]; !seen || at.After(last) {
				result[item.ProductID] = at
			}
		}
		return nil
	})
	return result, err
}
