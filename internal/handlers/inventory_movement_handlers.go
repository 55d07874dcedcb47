package handlers

import (
	"net/http"
	"strconv"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryMovementHandler lists the ledger journal.
type InventoryMovementHandler struct {
	movementService services.InventoryMovementService
	businessService services.BusinessService
}

// NewInventoryMovementHandler creates a new InventoryMovementHandler.
func NewInventoryMovementHandler(movementService services.InventoryMovementService, businessService services.BusinessService) *InventoryMovementHandler {
	return &InventoryMovementHandler{movementService: movementService, businessService: businessService}
}

// GetInventoryMovements handles GET /businesses/:business_id/inventory-movements
func (h *InventoryMovementHandler) GetInventoryMovements(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}
	if !authorizeBusiness(c, h.businessService, businessID) {
		return
	}

	filters := models.MovementFilters{BusinessID: businessID}
	filters.ItemKind = utils.NewNullString(c.Query("item_kind"))
	if raw := c.Query("item_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "item_id must be an integer")
			return
		}
		filters.ItemID = &id
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	filters.Page = page
	filters.PageSize = pageSize

	movements, totalCount, err := h.movementService.ListMovements(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch inventory movements")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movements":   movements,
		"total_count": totalCount,
		"page":        page,
		"page_size":   pageSize,
	})
}
