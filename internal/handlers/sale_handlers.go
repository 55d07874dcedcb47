package handlers

import (
	"net/http"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SaleHandler handles HTTP requests related to sales.
type SaleHandler struct {
	saleService     services.SaleService
	cartService     services.CartService
	businessService services.BusinessService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleService services.SaleService, cartService services.CartService, businessService services.BusinessService) *SaleHandler {
	return &SaleHandler{saleService: saleService, cartService: cartService, businessService: businessService}
}

// CreateSale handles POST /businesses/:business_id/sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}
	if !authorizeBusiness(c, h.businessService, businessID) {
		return
	}

	var req services.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	req.BusinessID = businessID

	sale, err := h.saleService.CreateSale(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create sale")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

// ListSales handles GET /businesses/:business_id/sales
func (h *SaleHandler) ListSales(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}
	if !authorizeBusiness(c, h.businessService, businessID) {
		return
	}

	var filters models.SaleFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	filters.BusinessID = businessID

	sales, totalCount, err := h.saleService.ListSales(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve sales")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sales":       sales,
		"total_count": totalCount,
		"skip":        filters.Skip,
		"limit":       filters.Limit,
	})
}

// GetSale handles GET /sales/:id
func (h *SaleHandler) GetSale(c *gin.Context) {
	saleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve sale")
		return
	}
	if !authorizeOwned(c, h.businessService, sale.BusinessID, services.ErrSaleNotFound, "Failed to retrieve sale") {
		return
	}
	c.JSON(http.StatusOK, sale)
}

// FinalizeCart handles POST /carts/:id/finalize
// The caller must hold the cart (its customer, or the session_token query parameter of an
// anonymous cart) or have access to the cart's business.
func (h *SaleHandler) FinalizeCart(c *gin.Context) {
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), cartID)
	if err != nil {
		respondServiceError(c, err, "Failed to finalize cart")
		return
	}
	if !holdsCart(c, cart) && !authorizeOwned(c, h.businessService, cart.BusinessID, services.ErrCartNotFound, "Failed to finalize cart") {
		return
	}

	var req services.FinalizeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	sale, err := h.saleService.FinalizeCart(c.Request.Context(), cartID, req)
	if err != nil {
		respondServiceError(c, err, "Failed to finalize cart")
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func holdsCart(c *gin.Context, cart *models.Cart) bool {
	userID, _ := currentUser(c)
	if cart.CustomerID != nil {
		return *cart.CustomerID == userID
	}
	token := c.Query("session_token")
	return cart.SessionToken != nil && token != "" && token == *cart.SessionToken
}
