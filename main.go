package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	config "github.com/phillip/orphanage-fund-go/config"
	payments "github.com/phillip/orphanage-fund-go/payments"
	routes "github.com/phillip/orphanage-fund-go/routes"
	services "github.com/phillip/orphanage-fund-go/services"
	store "github.com/phillip/orphanage-fund-go/store"
	utils "github.com/phillip/orphanage-fund-go/utils"
)

func main() {
	defer logger.Init("orphanage-fund", true, false, os.Stdout).Close()

	cfg := config.Load()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = cfg.MongoClient.Disconnect(ctx)
	}()

	st := store.NewMongo(cfg.MongoClient, cfg.DBName)
	confirmer := payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentTimeout)

	lifecycle := services.NewLifecycleService(st, cfg.OrphanageSplit, utils.NewStatusNotifier())
	ledger := services.NewLedgerService(st, confirmer, cfg.PendingTimeout)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"ETag", "Last-Modified"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, cfg, st, lifecycle, ledger)

	// janitor: contributions stuck in PENDING never silently count later
	go func() {
		for {
			time.Sleep(time.Minute)
			if _, err := ledger.ExpireStalePending(context.Background()); err != nil {
				log.Printf("janitor: %v", err)
			}
		}
	}()

	log.Printf("Server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
