package memory

import (
	"context"
	"errors"
	"testing"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func seedProduct(t *testing.T, s *Store, stock int) (int64, int64) {
	t.Helper()
	businessID := s.AddBusiness(models.Business{OwnerID: 1, Name: "Panaderia", Active: true})
	productID := s.AddProduct(models.Product{
		BusinessID:  businessID,
		Name:        "Pan",
		Price:       decimal.RequireFromString("3.5"),
		StockOnHand: intPtr(stock),
	})
	return businessID, productID
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, productID := seedProduct(t, s, 50)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(repos repositories.Repositories) error {
		level, err := repos.Products.DebitStock(ctx, productID, 10, false)
		require.NoError(t, err)
		assert.Equal(t, 40, level)
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Repos().Products.GetProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 50, *p.StockOnHand)
}

func TestWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, productID := seedProduct(t, s, 50)

	err := s.WithinTx(ctx, func(repos repositories.Repositories) error {
		_, err := repos.Products.DebitStock(ctx, productID, 10, false)
		return err
	})
	require.NoError(t, err)

	p, err := s.Repos().Products.GetProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 40, *p.StockOnHand)
}

func TestDebitStock(t *testing.T) {
	ctx := context.Background()

	t.Run("insufficient returns current level", func(t *testing.T) {
		s := New()
		_, productID := seedProduct(t, s, 5)
		level, err := s.Repos().Products.DebitStock(ctx, productID, 6, false)
		require.ErrorIs(t, err, repositories.ErrInsufficientQuantity)
		assert.Equal(t, 5, level)
	})

	t.Run("clamp floors at zero", func(t *testing.T) {
		s := New()
		_, productID := seedProduct(t, s, 5)
		level, err := s.Repos().Products.DebitStock(ctx, productID, 6, true)
		require.NoError(t, err)
		assert.Equal(t, 0, level)
	})

	t.Run("unknown product", func(t *testing.T) {
		s := New()
		_, err := s.Repos().Products.DebitStock(ctx, 999, 1, false)
		require.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestDebitIngredient(t *testing.T) {
	ctx := context.Background()
	s := New()
	flourID := s.AddIngredient(models.Ingredient{
		OwnerID:        1,
		Name:           "Flour",
		QuantityOnHand: decimal.NewFromInt(100),
		UnitCost:       decimal.RequireFromString("2.5"),
	})

	level, err := s.Repos().Ingredients.DebitIngredient(ctx, flourID, decimal.NewFromInt(5), false)
	require.NoError(t, err)
	assert.True(t, level.Equal(decimal.NewFromInt(95)))

	level, err = s.Repos().Ingredients.DebitIngredient(ctx, flourID, decimal.NewFromInt(96), false)
	require.ErrorIs(t, err, repositories.ErrInsufficientQuantity)
	assert.True(t, level.Equal(decimal.NewFromInt(95)))
}

func TestUpsertCartItemMergesQuantityAndKeepsPrice(t *testing.T) {
	ctx := context.Background()
	s := New()
	businessID, productID := seedProduct(t, s, 50)
	repos := s.Repos()

	cart := &models.Cart{BusinessID: businessID, Active: true}
	_, err := repos.Carts.CreateCart(ctx, cart)
	require.NoError(t, err)

	first := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("3.5")}
	require.NoError(t, repos.Carts.UpsertCartItem(ctx, first))

	second := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: 3, UnitPrice: decimal.RequireFromString("4")}
	require.NoError(t, repos.Carts.UpsertCartItem(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	assert.True(t, second.UnitPrice.Equal(decimal.RequireFromString("3.5")))

	items, err := repos.Carts.ListCartItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Pan", items[0].ProductName)
}

func TestFailNextSaleInsert(t *testing.T) {
	ctx := context.Background()
	s := New()
	businessID, _ := seedProduct(t, s, 1)
	boom := errors.New("insert failed")
	s.FailNextSaleInsert(boom)

	_, err := s.Repos().Sales.CreateSale(ctx, &models.Sale{BusinessID: businessID, SaleNumber: "V-1"})
	require.ErrorIs(t, err, boom)

	_, err = s.Repos().Sales.CreateSale(ctx, &models.Sale{BusinessID: businessID, SaleNumber: "V-1"})
	require.NoError(t, err)

	_, err = s.Repos().Sales.CreateSale(ctx, &models.Sale{BusinessID: businessID, SaleNumber: "V-1"})
	require.ErrorIs(t, err, repositories.ErrDuplicateKey)
}
