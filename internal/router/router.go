package router

import (
	"net/http"
	"time"

	"bizhub_backend/internal/cache"
	"bizhub_backend/internal/config"
	"bizhub_backend/internal/handlers"
	"bizhub_backend/internal/middleware"
	"bizhub_backend/internal/repositories"
	"bizhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, store repositories.Store, analyticsCache cache.AnalyticsCache, cfg *config.Config) {
	// Initialize Services
	businessService := services.NewBusinessService(store)
	costingService := services.NewCostingService(store)
	saleService := services.NewSaleService(store, analyticsCache, services.SaleSettings{
		AllowOversell: cfg.AllowOversell,
		Now:           time.Now,
	})
	cartService := services.NewCartService(store)
	analyticsService := services.NewAnalyticsService(store, analyticsCache, services.AnalyticsSettings{
		Location:    cfg.ReportLocation,
		DefaultTopN: cfg.DefaultTopProducts,
		Now:         time.Now,
	})
	movementService := services.NewInventoryMovementService(store)

	// Initialize Handlers
	saleHandler := handlers.NewSaleHandler(saleService, cartService, businessService)
	cartHandler := handlers.NewCartHandler(cartService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, businessService, cfg.DefaultExpiryHorizonDays)
	costingHandler := handlers.NewCostingHandler(costingService, businessService)
	movementHandler := handlers.NewInventoryMovementHandler(movementService, businessService)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupSaleRoutes(authenticated, saleHandler)
		SetupCartRoutes(authenticated, cartHandler, saleHandler)
		SetupAnalyticsRoutes(authenticated, analyticsHandler)
		SetupCostingRoutes(authenticated, costingHandler)
		SetupInventoryMovementRoutes(authenticated, movementHandler)
	}
}
