package router

import (
	"bizhub_backend/internal/handlers"
	"bizhub_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// reportingRoles may read analytics, costing and the movement journal.
var reportingRoles = []string{"Owner", "Manager", "Admin"}

// SetupSaleRoutes sets up the sale routes.
func SetupSaleRoutes(authenticatedGroup *gin.RouterGroup, saleHandler *handlers.SaleHandler) {
	businessSales := authenticatedGroup.Group("/businesses/:business_id/sales")
	{
		businessSales.POST("", saleHandler.CreateSale)
		businessSales.GET("", saleHandler.ListSales)
	}
	authenticatedGroup.GET("/sales/:id", saleHandler.GetSale)
}

// SetupCartRoutes sets up the cart routes, including checkout.
// Any authenticated caller may build a cart; carts hold captured prices only and move no stock.
// Finalizing debits inventory, so it is limited to the cart's holder or the business owner.
func SetupCartRoutes(authenticatedGroup *gin.RouterGroup, cartHandler *handlers.CartHandler, saleHandler *handlers.SaleHandler) {
	businessCarts := authenticatedGroup.Group("/businesses/:business_id/carts")
	{
		businessCarts.POST("", cartHandler.CreateCart)
		businessCarts.GET("/active", cartHandler.GetActiveCart)
	}

	cartRoutes := authenticatedGroup.Group("/carts")
	{
		cartRoutes.GET("/:id", cartHandler.GetCart)
		cartRoutes.POST("/:id/items", cartHandler.AddItem)
		cartRoutes.PATCH("/:id/items/:item_id", cartHandler.UpdateItem)
		cartRoutes.DELETE("/:id/items/:item_id", cartHandler.RemoveItem)
		cartRoutes.DELETE("/:id/items", cartHandler.ClearCart)
		cartRoutes.POST("/:id/finalize", saleHandler.FinalizeCart)
	}
}

// SetupAnalyticsRoutes sets up the sales analysis and stock alert routes.
func SetupAnalyticsRoutes(authenticatedGroup *gin.RouterGroup, analyticsHandler *handlers.AnalyticsHandler) {
	businessRoutes := authenticatedGroup.Group("/businesses/:business_id")
	businessRoutes.Use(middleware.RoleAuthMiddleware(reportingRoles...))
	{
		businessRoutes.GET("/analytics/sales", analyticsHandler.GetSalesAnalysis)
		businessRoutes.GET("/alerts/low-stock", analyticsHandler.GetLowStockAlerts)
		businessRoutes.GET("/alerts/expiry", analyticsHandler.GetExpiryAlerts)
	}
}

// SetupCostingRoutes sets up the product costing routes.
func SetupCostingRoutes(authenticatedGroup *gin.RouterGroup, costingHandler *handlers.CostingHandler) {
	productRoutes := authenticatedGroup.Group("/products")
	productRoutes.Use(middleware.RoleAuthMiddleware(reportingRoles...))
	{
		productRoutes.GET("/:id/costing", costingHandler.GetProductCosting)
	}
}

// SetupInventoryMovementRoutes sets up the inventory movement routes.
func SetupInventoryMovementRoutes(authenticatedGroup *gin.RouterGroup, movementHandler *handlers.InventoryMovementHandler) {
	movementRoutes := authenticatedGroup.Group("/businesses/:business_id/inventory-movements")
	movementRoutes.Use(middleware.RoleAuthMiddleware(reportingRoles...))
	{
		movementRoutes.GET("", movementHandler.GetInventoryMovements)
	}
}
