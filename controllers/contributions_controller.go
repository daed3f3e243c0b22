package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	services "github.com/phillip/orphanage-fund-go/services"
	store "github.com/phillip/orphanage-fund-go/store"
	utils "github.com/phillip/orphanage-fund-go/utils"
)

// ---------------- CREATE ----------------
// Public donor flow: validate, confirm payment, fold into the rollup.
func CreateContribution(ledger *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Email         string  `json:"email" binding:"required"`
			Amount        float64 `json:"amount" binding:"required"`
			PaymentMethod string  `json:"payment_method" binding:"required"`
			AccountNumber string  `json:"account_number"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctn, rollup, err := ledger.RecordContribution(c.Request.Context(), campaignID, services.ContributionInput{
			Email:      input.Email,
			Amount:     input.Amount,
			Method:     models.PaymentMethod(input.PaymentMethod),
			AccountRef: input.AccountNumber,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":     ctn.ID.Hex(),
			"status": ctn.Status,
			"rollup": rollup,
		})
	}
}

// ---------------- CONFIRM ----------------
// Gateway callback: folds a PENDING contribution once the provider reports
// the money settled. Safe to call twice, the duplicate gets a 409.
func ConfirmContribution(ledger *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
			return
		}

		rollup, err := ledger.ConfirmContribution(c.Request.Context(), oid)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":     oid.Hex(),
			"status": models.ContributionCompleted,
			"rollup": rollup,
		})
	}
}

// ---------------- LIST ----------------
// Staff view, filterable by campaign and status.
func ListContributions(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.ContributionFilter{}
		if campaignID := c.Query("campaign_id"); campaignID != "" {
			if oid, err := primitive.ObjectIDFromHex(campaignID); err == nil {
				filter.CampaignID = &oid
			}
		}
		if status := c.Query("status"); status != "" {
			filter.Status = models.ContributionStatus(status)
		}

		contributions, err := st.ListContributions(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch contributions"})
			return
		}

		if len(contributions) == 0 {
			c.JSON(http.StatusOK, []models.Contribution{})
			return
		}

		latest := contributions[0]
		for _, ctn := range contributions {
			if ctn.UpdatedAt.After(latest.UpdatedAt) {
				latest = ctn
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, contributions)
	}
}

// ---------------- GET ----------------
func GetContribution(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contribution id"})
			return
		}

		ctn, err := st.GetContribution(c.Request.Context(), oid)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		etag := utils.GenerateETag(ctn.ID, ctn.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, ctn)
	}
}
