package handlers

import (
	"net/http"

	"bizhub_backend/internal/models"
	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartHandler handles HTTP requests related to carts.
type CartHandler struct {
	cartService services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type cartResponse struct {
	*models.Cart
	Subtotal decimal.Decimal `json:"subtotal"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	return cartResponse{Cart: cart, Subtotal: cart.Subtotal()}
}

// CreateCart handles POST /businesses/:business_id/carts
func (h *CartHandler) CreateCart(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}

	var req services.CreateCartRequest
	// An empty body asks for an anonymous cart.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidPayload(c, err)
			return
		}
	}
	req.BusinessID = businessID

	cart, err := h.cartService.CreateCart(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create cart")
		return
	}
	c.JSON(http.StatusCreated, newCartResponse(cart))
}

// GetActiveCart handles GET /businesses/:business_id/carts/active
func (h *CartHandler) GetActiveCart(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}

	var customerID *int64
	if raw := c.Query("customer_id"); raw != "" {
		id, err := utils.StrToInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "customer_id must be an integer")
			return
		}
		customerID = &id
	}
	sessionToken := utils.NewNullString(c.Query("session_token"))

	cart, err := h.cartService.GetActiveCart(c.Request.Context(), businessID, customerID, sessionToken)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve active cart")
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// GetCart handles GET /carts/:id
func (h *CartHandler) GetCart(c *gin.Context) {
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cart, err := h.cartService.GetCart(c.Request.Context(), cartID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve cart")
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart))
}

// AddItem handles POST /carts/:id/items
func (h *CartHandler) AddItem(c *gin.Context) {
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	item, err := h.cartService.AddItem(c.Request.Context(), cartID, req)
	if err != nil {
		respondServiceError(c, err, "Failed to add item to cart")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PATCH /carts/:id/items/:item_id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var req services.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	item, err := h.cartService.UpdateItemQuantity(c.Request.Context(), cartID, itemID, *req.Quantity)
	if err != nil {
		respondServiceError(c, err, "Failed to update cart item")
		return
	}
	if item == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, item)
}

// RemoveItem handles DELETE /carts/:id/items/:item_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}
	if err := h.cartService.RemoveItem(c.Request.Context(), cartID, itemID); err != nil {
		respondServiceError(c, err, "Failed to remove cart item")
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearCart handles DELETE /carts/:id/items
func (h *CartHandler) ClearCart(c *gin.Context) {
	cartID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.cartService.Clear(c.Request.Context(), cartID); err != nil {
		respondServiceError(c, err, "Failed to clear cart")
		return
	}
	c.Status(http.StatusNoContent)
}
