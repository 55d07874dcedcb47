package services

import (
	"testing"
	"time"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories/memory"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func price(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// bakery seeds the "Pan" scenario: 50 units in stock, 0.5 kg Flour per unit,
// Flour at 2.5 per kg with 100 kg on hand.
type bakery struct {
	store      *memory.Store
	ownerID    int64
	businessID int64
	panID      int64
	flourID    int64
}

func newBakery(t *testing.T) *bakery {
	t.Helper()
	s := memory.New()
	b := &bakery{store: s, ownerID: 11}
	b.businessID = s.AddBusiness(models.Business{OwnerID: b.ownerID, Name: "Panaderia Centro", Active: true})
	b.flourID = s.AddIngredient(models.Ingredient{
		OwnerID:        b.ownerID,
		Name:           "Flour",
		QuantityOnHand: dec("100"),
		UnitOfPurchase: "kg",
		UnitCost:       dec("2.5"),
	})
	b.panID = s.AddProduct(models.Product{
		BusinessID:  b.businessID,
		Name:        "Pan",
		Price:       dec("3.5"),
		StockOnHand: intPtr(50),
	})
	s.AddRecipeLine(models.RecipeLine{ProductID: b.panID, IngredientID: b.flourID, QuantityRequired: dec("0.5"), NetCost: dec("1.25")})
	return b
}

func (b *bakery) addProduct(name, price string, stock *int) int64 {
	return b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: name, Price: dec(price), StockOnHand: stock})
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
