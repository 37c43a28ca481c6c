package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	JWTSecret     string
	AllowedOrigin string
	// Postgres (orders, addresses)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// MongoDB (catalog, carts, wishlists)
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
	// Redis (idempotency keys); empty falls back to the in-memory store
	RedisURL       string
	IdempotencyTTL time.Duration
	// Kafka (order events); empty brokers logs events instead
	KafkaBrokers    []string
	KafkaOrderTopic string
	// Carrier
	CarrierBaseURL        string
	CarrierEmail          string
	CarrierPassword       string
	CarrierTimeout        time.Duration
	CarrierTokenTTL       time.Duration
	CarrierPickupLocation string
	PackageWeightKg       float64
	PackageLengthCm       float64
	PackageBreadthCm      float64
	PackageHeightCm       float64
	// Similar products
	SimilarDefaultLimit int
	SimilarMaxLimit     int
	CacheSimilarTTL     time.Duration
	// Orders
	PendingOrderGrace time.Duration
	// Business Rules
	MaxCartQuantity int
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	return cfg
}

const defaultJWTSecret = "default_secret_CHANGE_ME"

// FromEnv reads the configuration from the process environment only.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 20),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 2),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		MongoURI:            getEnv("MONGO_URI", ""),
		MongoDatabase:       getEnv("MONGO_DB", "nutrastore"),
		MongoConnectTimeout: getDurationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		RedisURL:       getEnv("REDIS_URL", ""),
		IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers:    getListEnv("KAFKA_BROKERS", nil),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "order.events"),

		CarrierBaseURL:        getEnv("CARRIER_BASE_URL", "https://apiv2.shiprocket.in/v1/external"),
		CarrierEmail:          getEnv("CARRIER_EMAIL", ""),
		CarrierPassword:       getEnv("CARRIER_PASSWORD", ""),
		CarrierTimeout:        getDurationEnv("CARRIER_TIMEOUT", 15*time.Second),
		CarrierTokenTTL:       getDurationEnv("CARRIER_TOKEN_TTL", 24*time.Hour),
		CarrierPickupLocation: getEnv("CARRIER_PICKUP_LOCATION", "Primary"),
		PackageWeightKg:       getFloatEnv("PACKAGE_WEIGHT_KG", 0.5),
		PackageLengthCm:       getFloatEnv("PACKAGE_LENGTH_CM", 10),
		PackageBreadthCm:      getFloatEnv("PACKAGE_BREADTH_CM", 10),
		PackageHeightCm:       getFloatEnv("PACKAGE_HEIGHT_CM", 10),

		SimilarDefaultLimit: getIntEnv("SIMILAR_DEFAULT_LIMIT", 10),
		SimilarMaxLimit:     getIntEnv("SIMILAR_MAX_LIMIT", 50),
		CacheSimilarTTL:     getDurationEnv("CACHE_SIMILAR_TTL", 10*time.Minute),

		PendingOrderGrace: getDurationEnv("PENDING_ORDER_GRACE", 5*time.Minute),

		MaxCartQuantity: getIntEnv("MAX_CART_QUANTITY", 100),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.DBUrl == "" {
		errs = append(errs, errors.New("DB_DSN environment variable is required"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI environment variable is required"))
	}
	if c.CarrierEmail == "" || c.CarrierPassword == "" {
		errs = append(errs, errors.New("CARRIER_EMAIL and CARRIER_PASSWORD are required"))
	}
	if c.SimilarDefaultLimit <= 0 || c.SimilarMaxLimit < c.SimilarDefaultLimit {
		errs = append(errs, errors.New("SIMILAR_DEFAULT_LIMIT must be positive and not exceed SIMILAR_MAX_LIMIT"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
