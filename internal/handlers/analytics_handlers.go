package handlers

import (
	"net/http"
	"strconv"

	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves sales reports and stock alerts.
type AnalyticsHandler struct {
	analyticsService   services.AnalyticsService
	businessService    services.BusinessService
	defaultHorizonDays int
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsService, businessService services.BusinessService, defaultHorizonDays int) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService:   analyticsService,
		businessService:    businessService,
		defaultHorizonDays: defaultHorizonDays,
	}
}

// GetSalesAnalysis handles GET /businesses/:business_id/analytics/sales
func (h *AnalyticsHandler) GetSalesAnalysis(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}
	if !authorizeBusiness(c, h.businessService, businessID) {
		return
	}

	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")
	if utils.IsEmpty(dateFrom) || utils.IsEmpty(dateTo) {
		utils.RespondValidationFailed(c, "date_from and date_to are required (YYYY-MM-DD)")
		return
	}

	topN := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondValidationFailed(c, "top must be a positive integer")
			return
		}
		topN = n
	}

	analysis, err := h.analyticsService.GetSalesAnalysis(c.Request.Context(), businessID, dateFrom, dateTo, topN)
	if err != nil {
		respondServiceError(c, err, "Failed to compute sales analysis")
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetLowStockAlerts handles GET /businesses/:business_id/alerts/low-stock
func (h *AnalyticsHandler) GetLowStockAlerts(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}
	if !authorizeBusiness(c, h.businessService, businessID) {
		return
	}

	alerts, err := h.analyticsService.GetLowStockAlerts(c.Request.Context(), businessID)
	if err != nil {
		respondServiceError(c, err, "Failed to compute low stock alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetExpiryAlerts handles GET /businesses/:business_id/alerts/expiry
func (h *AnalyticsHandler) GetExpiryAlerts(c *gin.Context) {
	businessID, ok := parseIDParam(c, "business_id")
	if !ok {
		return
	}
	if !authorizeBusiness(c, h.businessService, businessID) {
		return
	}

	horizon := h.defaultHorizonDays
	if raw := c.Query("horizon_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondValidationFailed(c, "horizon_days must be a non-negative integer")
			return
		}
		horizon = n
	}

	alerts, err := h.analyticsService.GetExpiryAlerts(c.Request.Context(), businessID, horizon)
	if err != nil {
		respondServiceError(c, err, "Failed to compute expiry alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}
