package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"bizhub_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var (
	debitStockSQL       = regexp.QuoteMeta("SET stock_on_hand = stock_on_hand - $1, updated_at = NOW() WHERE id = $2 AND stock_on_hand IS NOT NULL AND stock_on_hand >= $1 RETURNING stock_on_hand")
	clampStockSQL       = regexp.QuoteMeta("SET stock_on_hand = GREATEST(stock_on_hand - $1, 0)")
	readStockSQL        = regexp.QuoteMeta("SELECT stock_on_hand FROM products WHERE id = $1")
	debitIngredientSQL  = regexp.QuoteMeta("SET quantity_on_hand = quantity_on_hand - $1, updated_at = NOW() WHERE id = $2 AND quantity_on_hand >= $1 RETURNING quantity_on_hand")
	clampIngredientSQL  = regexp.QuoteMeta("SET quantity_on_hand = GREATEST(quantity_on_hand - $1, 0)")
	readIngredientSQL   = regexp.QuoteMeta("SELECT quantity_on_hand FROM ingredients WHERE id = $1")
	upsertCartItemSQL   = regexp.QuoteMeta("ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity")
	insertSaleSQL       = regexp.QuoteMeta("INSERT INTO sales")
	stockColumn         = []string{"stock_on_hand"}
	quantityOnHandField = []string{"quantity_on_hand"}
)

func TestDebitStock(t *testing.T) {
	ctx := context.Background()

	t.Run("conditional update returns the new level", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitStockSQL).WithArgs(10, int64(7)).
			WillReturnRows(sqlmock.NewRows(stockColumn).AddRow(40))

		stock, err := newRepositories(db).Products.DebitStock(ctx, 7, 10, false)
		require.NoError(t, err)
		assert.Equal(t, 40, stock)
	})

	t.Run("no matching row reports the available level", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitStockSQL).WithArgs(60, int64(7)).
			WillReturnRows(sqlmock.NewRows(stockColumn))
		mock.ExpectQuery(readStockSQL).WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(stockColumn).AddRow(50))

		available, err := newRepositories(db).Products.DebitStock(ctx, 7, 60, false)
		assert.ErrorIs(t, err, ErrInsufficientQuantity)
		assert.Equal(t, 50, available)
	})

	t.Run("unknown product", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitStockSQL).WillReturnRows(sqlmock.NewRows(stockColumn))
		mock.ExpectQuery(readStockSQL).WillReturnRows(sqlmock.NewRows(stockColumn))

		_, err := newRepositories(db).Products.DebitStock(ctx, 99, 1, false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("untracked product", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitStockSQL).WillReturnRows(sqlmock.NewRows(stockColumn))
		mock.ExpectQuery(readStockSQL).WillReturnRows(sqlmock.NewRows(stockColumn).AddRow(nil))

		_, err := newRepositories(db).Products.DebitStock(ctx, 7, 1, false)
		assert.ErrorIs(t, err, ErrDatabaseError)
	})

	t.Run("clamp mode floors at zero", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(clampStockSQL).WithArgs(60, int64(7)).
			WillReturnRows(sqlmock.NewRows(stockColumn).AddRow(0))

		stock, err := newRepositories(db).Products.DebitStock(ctx, 7, 60, true)
		require.NoError(t, err)
		assert.Equal(t, 0, stock)
	})

	t.Run("driver failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitStockSQL).WillReturnError(errors.New("connection reset"))

		_, err := newRepositories(db).Products.DebitStock(ctx, 7, 1, false)
		assert.ErrorIs(t, err, ErrDatabaseError)
	})
}

func TestDebitIngredient(t *testing.T) {
	ctx := context.Background()

	t.Run("conditional update returns the remaining quantity", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitIngredientSQL).WithArgs(decimal.RequireFromString("5"), int64(3)).
			WillReturnRows(sqlmock.NewRows(quantityOnHandField).AddRow("95"))

		remaining, err := newRepositories(db).Ingredients.DebitIngredient(ctx, 3, decimal.RequireFromString("5"), false)
		require.NoError(t, err)
		assert.True(t, remaining.Equal(decimal.RequireFromString("95")), remaining.String())
	})

	t.Run("shortage reports the available quantity", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitIngredientSQL).WillReturnRows(sqlmock.NewRows(quantityOnHandField))
		mock.ExpectQuery(readIngredientSQL).WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(quantityOnHandField).AddRow("2.5"))

		available, err := newRepositories(db).Ingredients.DebitIngredient(ctx, 3, decimal.RequireFromString("5"), false)
		assert.ErrorIs(t, err, ErrInsufficientQuantity)
		assert.True(t, available.Equal(decimal.RequireFromString("2.5")), available.String())
	})

	t.Run("missing ingredient", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(debitIngredientSQL).WillReturnRows(sqlmock.NewRows(quantityOnHandField))
		mock.ExpectQuery(readIngredientSQL).WillReturnRows(sqlmock.NewRows(quantityOnHandField))

		_, err := newRepositories(db).Ingredients.DebitIngredient(ctx, 3, decimal.RequireFromString("1"), false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clamp mode", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(clampIngredientSQL).
			WillReturnRows(sqlmock.NewRows(quantityOnHandField).AddRow("0"))

		remaining, err := newRepositories(db).Ingredients.DebitIngredient(ctx, 3, decimal.RequireFromString("500"), true)
		require.NoError(t, err)
		assert.True(t, remaining.IsZero())
	})
}

func TestUpsertCartItemMergesOnConflict(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(upsertCartItemSQL).
		WithArgs(int64(4), int64(7), 2, decimal.RequireFromString("3.5"), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "quantity", "unit_price", "created_at", "updated_at"}).
			AddRow(int64(12), int64(5), "3.5", now, now))

	item := &models.CartItem{CartID: 4, ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("3.5")}
	require.NoError(t, newRepositories(db).Carts.UpsertCartItem(context.Background(), item))
	assert.Equal(t, int64(12), item.ID)
	assert.Equal(t, 5, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("3.5")))
}

func TestUpsertCartItemForeignKey(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(upsertCartItemSQL).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "cart_items_product_id_fkey"})

	err := newRepositories(db).Carts.UpsertCartItem(context.Background(), &models.CartItem{CartID: 4, ProductID: 404, Quantity: 1})
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestWrapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique violation", &pq.Error{Code: "23505", Constraint: "sales_sale_number_key"}, ErrDuplicateKey},
		{"foreign key violation", &pq.Error{Code: "23503", Constraint: "sales_business_id_fkey"}, ErrForeignKey},
		{"other pq error", &pq.Error{Code: "40001"}, ErrDatabaseError},
		{"plain error", errors.New("broken pipe"), ErrDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapDBError(tt.err, "creating sale")
			assert.ErrorIs(t, got, tt.want)
			assert.Contains(t, got.Error(), "creating sale")
		})
	}
}

func TestCreateSaleDuplicateNumber(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(insertSaleSQL).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sales_sale_number_key"})

	_, err := newRepositories(db).Sales.CreateSale(context.Background(), &models.Sale{BusinessID: 1, SaleNumber: "V-1"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(debitStockSQL).WillReturnRows(sqlmock.NewRows(stockColumn).AddRow(49))
		mock.ExpectCommit()

		err := NewPostgresStore(db).WithinTx(ctx, func(repos Repositories) error {
			_, err := repos.Products.DebitStock(ctx, 7, 1, false)
			return err
		})
		require.NoError(t, err)
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(debitStockSQL).WillReturnRows(sqlmock.NewRows(stockColumn).AddRow(49))
		mock.ExpectQuery(insertSaleSQL).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "sales_sale_number_key"})
		mock.ExpectRollback()

		err := NewPostgresStore(db).WithinTx(ctx, func(repos Repositories) error {
			if _, err := repos.Products.DebitStock(ctx, 7, 1, false); err != nil {
				return err
			}
			_, err := repos.Sales.CreateSale(ctx, &models.Sale{BusinessID: 1, SaleNumber: "V-1"})
			return err
		})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		called := false
		err := NewPostgresStore(db).WithinTx(ctx, func(repos Repositories) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})

	t.Run("commit failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err := NewPostgresStore(db).WithinTx(ctx, func(repos Repositories) error { return nil })
		assert.Error(t, err)
	})
}
