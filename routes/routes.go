package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/phillip/orphanage-fund-go/config"
	controllers "github.com/phillip/orphanage-fund-go/controllers"
	middleware "github.com/phillip/orphanage-fund-go/middleware"
	services "github.com/phillip/orphanage-fund-go/services"
	store "github.com/phillip/orphanage-fund-go/store"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, st store.Store, lifecycle *services.LifecycleService, ledger *services.LedgerService) {
	// public donation surface
	campaigns := r.Group("/campaigns")
	{
		campaigns.GET("", controllers.ListCampaigns(ledger))
		campaigns.GET("/:id", controllers.GetCampaign(ledger))
		campaigns.POST("/:id/contribute", controllers.CreateContribution(ledger))
	}

	// payment gateway confirmation callback
	r.POST("/contributions/:id/confirm", controllers.ConfirmContribution(ledger))

	// staff surface
	auth := middleware.AuthMiddleware(cfg)
	admin := middleware.RequireRole("admin")

	fundraisers := r.Group("/fundraisers")
	fundraisers.Use(auth)
	{
		fundraisers.POST("", controllers.SubmitFundraiser(lifecycle))
		fundraisers.GET("", controllers.ListFundraisers(st))
		fundraisers.GET("/:id", controllers.GetFundraiser(st))
		fundraisers.PATCH("/:id/approve", admin, controllers.ApproveFundraiser(lifecycle))
		fundraisers.PATCH("/:id/reject", admin, controllers.RejectFundraiser(lifecycle))
		fundraisers.PATCH("/:id/complete", controllers.CompleteFundraiser(lifecycle))
		fundraisers.PATCH("/:id/cancel", controllers.CancelFundraiser(lifecycle))
		fundraisers.DELETE("/:id", admin, controllers.ArchiveFundraiser(lifecycle, st))
	}

	contributions := r.Group("/contributions")
	contributions.Use(auth)
	{
		contributions.GET("", controllers.ListContributions(st))
		contributions.GET("/:id", controllers.GetContribution(st))
	}
}
