package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/orphanage-fund-go/models"
	services "github.com/phillip/orphanage-fund-go/services"
	store "github.com/phillip/orphanage-fund-go/store"
	utils "github.com/phillip/orphanage-fund-go/utils"
)

// actorFromContext rebuilds the request actor from the auth middleware claims.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return services.Actor{}, false
	}
	actor := services.Actor{UserID: userID, Role: c.GetString("role")}
	if bid := c.GetString("branch_id"); bid != "" {
		branchID, err := primitive.ObjectIDFromHex(bid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid branch id"})
			return services.Actor{}, false
		}
		actor.BranchID = branchID
	}
	return actor, true
}

func parseDate(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ---------------- SUBMIT ----------------
func SubmitFundraiser(lifecycle *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}

		var input struct {
			EventName        string  `form:"event_name" binding:"required"`
			Purpose          string  `form:"purpose"`
			Reason           string  `form:"reason"`
			BudgetBreakdown  string  `form:"budget_breakdown"`
			CoordinatorName  string  `form:"coordinator_name" binding:"required"`
			CoordinatorEmail string  `form:"coordinator_email" binding:"required"`
			CoordinatorPhone string  `form:"coordinator_phone" binding:"required"`
			GoalAmount       float64 `form:"goal_amount" binding:"required"`
			SuggestedAmount  float64 `form:"suggested_amount"`
			StartDate        string  `form:"start_date" binding:"required"`
			EndDate          string  `form:"end_date" binding:"required"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		start, ok := parseDate(input.StartDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date format, use RFC3339 or YYYY-MM-DD"})
			return
		}
		end, ok := parseDate(input.EndDate)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date format, use RFC3339 or YYYY-MM-DD"})
			return
		}

		// optional image
		var imageURL string
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		if form != nil {
			if files := form.File["image"]; len(files) > 0 {
				file, err := files[0].Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
					return
				}
				url, err := utils.UploadToCloudinary(file, files[0])
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed", "details": err.Error()})
					return
				}
				imageURL = url
			}
		}

		f, err := lifecycle.Submit(c.Request.Context(), actor, services.FundraiserDraft{
			EventName:        input.EventName,
			Purpose:          input.Purpose,
			Reason:           input.Reason,
			BudgetBreakdown:  input.BudgetBreakdown,
			CoordinatorName:  input.CoordinatorName,
			CoordinatorEmail: input.CoordinatorEmail,
			CoordinatorPhone: input.CoordinatorPhone,
			GoalAmount:       input.GoalAmount,
			SuggestedAmount:  input.SuggestedAmount,
			StartDate:        start,
			EndDate:          end,
			ImageURL:         imageURL,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusCreated, f)
	}
}

// ---------------- LIST ----------------
func ListFundraisers(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}

		filter := store.FundraiserFilter{Query: c.Query("q")}
		if status := c.Query("status"); status != "" {
			filter.Status = models.FundraiserStatus(status)
		}
		// branch staff only see their own submissions
		if actor.Role != "admin" {
			filter.BranchID = &actor.BranchID
		}

		fundraisers, err := st.ListFundraisers(c.Request.Context(), filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch fundraisers"})
			return
		}

		if len(fundraisers) == 0 {
			c.JSON(http.StatusOK, []models.Fundraiser{})
			return
		}

		latest := fundraisers[0]
		for _, f := range fundraisers {
			if f.UpdatedAt.After(latest.UpdatedAt) {
				latest = f
			}
		}

		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, fundraisers)
	}
}

// ---------------- GET ----------------
func GetFundraiser(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fundraiser id"})
			return
		}

		f, err := st.GetFundraiser(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		if actor.Role != "admin" && f.BranchID != actor.BranchID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		etag := utils.GenerateETag(f.ID, f.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, f)
	}
}

// ---------------- APPROVE ----------------
func ApproveFundraiser(lifecycle *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fundraiser id"})
			return
		}

		campaign, err := lifecycle.Approve(c.Request.Context(), actor, id)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":  "fundraiser approved",
			"status":   models.FundraiserApproved,
			"campaign": campaign,
		})
	}
}

// ---------------- REJECT ----------------
func RejectFundraiser(lifecycle *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fundraiser id"})
			return
		}

		var input struct {
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := lifecycle.Reject(c.Request.Context(), actor, id, input.Reason); err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "fundraiser rejected", "status": models.FundraiserRejected})
	}
}

// ---------------- COMPLETE ----------------
func CompleteFundraiser(lifecycle *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fundraiser id"})
			return
		}

		// reason is optional on complete; an empty body is fine
		var input struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&input)

		if err := lifecycle.Complete(c.Request.Context(), actor, id, input.Reason); err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "fundraiser completed", "status": models.FundraiserCompleted})
	}
}

// ---------------- CANCEL ----------------
func CancelFundraiser(lifecycle *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fundraiser id"})
			return
		}

		var input struct {
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := lifecycle.Cancel(c.Request.Context(), actor, id, input.Reason); err != nil {
			writeServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "fundraiser cancelled", "status": models.FundraiserCancelled})
	}
}

// ---------------- ARCHIVE ----------------
var deleteImage = utils.DeleteFromCloudinary

func ArchiveFundraiser(lifecycle *services.LifecycleService, st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fundraiser id"})
			return
		}

		f, err := st.GetFundraiser(c.Request.Context(), id)
		if err != nil {
			writeServiceError(c, err)
			return
		}

		if err := lifecycle.Archive(c.Request.Context(), actor, id); err != nil {
			writeServiceError(c, err)
			return
		}

		// best effort; the archive itself already succeeded
		if f.ImageURL != "" {
			_ = deleteImage(f.ImageURL)
		}

		c.JSON(http.StatusOK, gin.H{"message": "fundraiser archived", "id": id.Hex()})
	}
}
