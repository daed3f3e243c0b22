package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	services "github.com/phillip/orphanage-fund-go/services"
	utils "github.com/phillip/orphanage-fund-go/utils"
)

// ---------------- LIST ----------------
// Public projection of campaigns with their fundraiser and rollup.
func ListCampaigns(ledger *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var status models.CampaignStatus
		if s := c.Query("status"); s != "" {
			status = models.CampaignStatus(s)
		}

		views, err := ledger.ListCampaigns(c.Request.Context(), status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch campaigns"})
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// ---------------- GET ----------------
func GetCampaign(ledger *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		view, err := ledger.CampaignSummary(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		etag := utils.GenerateETag(view.Campaign.ID, view.Campaign.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", view.Campaign.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, view)
	}
}
