package handlers

import (
	"net/http"

	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CostingHandler exposes recipe-based product costing.
type CostingHandler struct {
	costingService  services.CostingService
	businessService services.BusinessService
}

// NewCostingHandler creates a new CostingHandler.
func NewCostingHandler(costingService services.CostingService, businessService services.BusinessService) *CostingHandler {
	return &CostingHandler{costingService: costingService, businessService: businessService}
}

// GetProductCosting handles GET /products/:id/costing
func (h *CostingHandler) GetProductCosting(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var targetMargin *decimal.Decimal
	if raw := c.Query("target_margin"); raw != "" {
		pct, err := decimal.NewFromString(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "target_margin must be a decimal percentage")
			return
		}
		targetMargin = &pct
	}

	costing, err := h.costingService.ProductCosting(c.Request.Context(), productID, targetMargin)
	if err != nil {
		respondServiceError(c, err, "Failed to compute product costing")
		return
	}
	if !authorizeBusiness(c, h.businessService, costing.BusinessID) {
		return
	}
	c.JSON(http.StatusOK, costing)
}
