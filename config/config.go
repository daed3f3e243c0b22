package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	Port        string
	MongoClient *mongo.Client
	DBName      string
	JWTSecret   string

	// OrphanageSplit is the fraction of every accepted contribution routed
	// to the orphanage operating fund; the rest goes to the event fund.
	// Frozen onto each campaign at approval time.
	OrphanageSplit float64

	// PendingTimeout is how long a contribution may sit in PENDING before
	// the janitor marks it FAILED.
	PendingTimeout time.Duration

	PaymentAPIURL  string
	PaymentTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("mongo not reachable: %v", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		MongoClient:    client,
		DBName:         getEnv("DB_NAME", "orphanage_fund"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		OrphanageSplit: getEnvFloat("ORPHANAGE_SPLIT", 0.20),
		PendingTimeout: getEnvDuration("PENDING_TIMEOUT", 15*time.Minute),
		PaymentAPIURL:  os.Getenv("PAYMENT_API_URL"),
		PaymentTimeout: getEnvDuration("PAYMENT_TIMEOUT", 30*time.Second),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.OrphanageSplit < 0 || cfg.OrphanageSplit > 1 {
		log.Fatalf("ORPHANAGE_SPLIT must be between 0 and 1, got %v", cfg.OrphanageSplit)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
