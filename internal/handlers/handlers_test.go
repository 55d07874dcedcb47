package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"bizhub_backend/internal/cache"
	"bizhub_backend/internal/middleware"
	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories/memory"
	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const ownerID int64 = 11

type testEnv struct {
	store      *memory.Store
	engine     *gin.Engine
	businessID int64
	panID      int64
	flourID    int64
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handlers-test-secret")

	s := memory.New()
	env := &testEnv{store: s}
	env.businessID = s.AddBusiness(models.Business{OwnerID: ownerID, Name: "Panaderia Centro", Active: true})
	env.flourID = s.AddIngredient(models.Ingredient{
		OwnerID:        ownerID,
		Name:           "Flour",
		QuantityOnHand: dec("100"),
		UnitOfPurchase: "kg",
		UnitCost:       dec("2.5"),
	})
	expires := time.Now().AddDate(0, 0, 3)
	env.panID = s.AddProduct(models.Product{
		BusinessID:     env.businessID,
		Name:           "Pan",
		Price:          dec("3.5"),
		StockOnHand:    intPtr(50),
		MinimumStock:   intPtr(60),
		ExpirationDate: &expires,
	})
	s.AddRecipeLine(models.RecipeLine{ProductID: env.panID, IngredientID: env.flourID, QuantityRequired: dec("0.5"), NetCost: dec("1.25")})

	businessService := services.NewBusinessService(s)
	saleService := services.NewSaleService(s, cache.Noop{}, services.SaleSettings{})
	cartService := services.NewCartService(s)
	saleHandler := NewSaleHandler(saleService, cartService, businessService)
	cartHandler := NewCartHandler(cartService)
	analyticsHandler := NewAnalyticsHandler(services.NewAnalyticsService(s, cache.Noop{}, services.AnalyticsSettings{}), businessService, 7)
	costingHandler := NewCostingHandler(services.NewCostingService(s), businessService)
	movementHandler := NewInventoryMovementHandler(services.NewInventoryMovementService(s), businessService)

	r := gin.New()
	api := r.Group("/api/v1", middleware.AuthMiddleware())
	api.POST("/businesses/:business_id/sales", saleHandler.CreateSale)
	api.GET("/businesses/:business_id/sales", saleHandler.ListSales)
	api.GET("/sales/:id", saleHandler.GetSale)
	api.POST("/businesses/:business_id/carts", cartHandler.CreateCart)
	api.GET("/businesses/:business_id/carts/active", cartHandler.GetActiveCart)
	api.GET("/carts/:id", cartHandler.GetCart)
	api.POST("/carts/:id/items", cartHandler.AddItem)
	api.PATCH("/carts/:id/items/:item_id", cartHandler.UpdateItem)
	api.DELETE("/carts/:id/items/:item_id", cartHandler.RemoveItem)
	api.DELETE("/carts/:id/items", cartHandler.ClearCart)
	api.POST("/carts/:id/finalize", saleHandler.FinalizeCart)
	api.GET("/businesses/:business_id/analytics/sales", analyticsHandler.GetSalesAnalysis)
	api.GET("/businesses/:business_id/alerts/low-stock", analyticsHandler.GetLowStockAlerts)
	api.GET("/businesses/:business_id/alerts/expiry", analyticsHandler.GetExpiryAlerts)
	api.GET("/products/:id/costing", costingHandler.GetProductCosting)
	api.GET("/businesses/:business_id/inventory-movements", movementHandler.GetInventoryMovements)
	env.engine = r
	return env
}

func token(t *testing.T, userID int64, role string) string {
	t.Helper()
	tok, err := utils.GenerateAccessToken(userID, "user", role)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error utils.APIError `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.APIError {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
