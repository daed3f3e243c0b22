package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	services "github.com/phillip/orphanage-fund-go/services"
	store "github.com/phillip/orphanage-fund-go/store"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	var tErr *services.InvalidTransitionError
	var cErr *services.CampaignClosedError
	var pErr *services.PaymentConfirmationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &tErr):
		c.JSON(http.StatusConflict, gin.H{"error": tErr.Error(), "current_status": tErr.Current})
	case errors.As(err, &cErr):
		c.JSON(http.StatusConflict, gin.H{"error": cErr.Error()})
	case errors.As(err, &pErr):
		// generic, retry-safe message for the donor
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":           "payment could not be confirmed, please try again",
			"contribution_id": pErr.ContributionID,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
