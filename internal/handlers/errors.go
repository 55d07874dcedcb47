package handlers

import (
	"errors"
	"net/http"

	"bizhub_backend/internal/middleware"
	"bizhub_backend/internal/repositories"
	"bizhub_backend/internal/services"
	"bizhub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error onto the API error envelope.
func respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrBusinessNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrIngredientNotFound),
		errors.Is(err, services.ErrSaleNotFound),
		errors.Is(err, services.ErrCartNotFound),
		errors.Is(err, services.ErrCartItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, message, err.Error()))
	case errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrInsufficientIngredient):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, message, err.Error()))
	case errors.Is(err, services.ErrEmptyCart):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeEmptyCart, message, err.Error()))
	case errors.Is(err, services.ErrCartAlreadyFinalized):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeAlreadyFinalized, message, err.Error()))
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrCartIdentityRequired),
		errors.Is(err, services.ErrInvalidDateRange):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, message, err.Error()))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, message, err.Error()))
	case errors.Is(err, repositories.ErrDuplicateKey),
		errors.Is(err, repositories.ErrForeignKey):
		utils.LogError(err, message)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeIntegrityViolation, message, err.Error()))
	default:
		utils.LogError(err, message)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, message, err.Error()))
	}
}

// currentUser reads the identity AuthMiddleware stored on the context.
func currentUser(c *gin.Context) (int64, string) {
	return c.GetInt64(middleware.ContextUserID), c.GetString(middleware.ContextUserRole)
}

// parseIDParam reads a positive int64 path parameter, answering 400 otherwise.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid "+name+" format", c.Param(name)))
		return 0, false
	}
	return id, true
}

// authorizeBusiness answers 403/404 unless the caller may operate on the business.
func authorizeBusiness(c *gin.Context, businessService services.BusinessService, businessID int64) bool {
	userID, role := currentUser(c)
	if _, err := businessService.EnsureAccess(c.Request.Context(), businessID, userID, role); err != nil {
		respondServiceError(c, err, "Access to business denied")
		return false
	}
	return true
}

// authorizeOwned guards a resource addressed by its own ID. A caller without access to the owning
// business gets the same 404 as for a missing ID, so IDs of other businesses are not disclosed.
func authorizeOwned(c *gin.Context, businessService services.BusinessService, businessID int64, notFound error, message string) bool {
	userID, role := currentUser(c)
	_, err := businessService.EnsureAccess(c.Request.Context(), businessID, userID, role)
	if err == nil {
		return true
	}
	if errors.Is(err, services.ErrForbidden) {
		err = notFound
	}
	respondServiceError(c, err, message)
	return false
}

func respondInvalidPayload(c *gin.Context, err error) {
	utils.LogError(err, "Invalid request payload")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}
