package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrastore-backend/config"
	"nutrastore-backend/internal/delivery/http/middleware"
	v1 "nutrastore-backend/internal/delivery/http/v1"
	"nutrastore-backend/internal/domain"
	"nutrastore-backend/internal/infrastructure/cache"
	"nutrastore-backend/internal/infrastructure/idempotency"
	"nutrastore-backend/internal/infrastructure/kafka"
	"nutrastore-backend/internal/infrastructure/shipping"
	"nutrastore-backend/internal/repository/mongorepo"
	"nutrastore-backend/internal/repository/pgrepo"
	"nutrastore-backend/internal/usecase"
	"nutrastore-backend/pkg/logger"
	"nutrastore-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const serviceName = "nutrastore-api"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	// Money goes out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	// PostgreSQL (orders, addresses)
	pgxPool, err := pgrepo.NewPgxPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	if err := pgrepo.Migrate(ctx, pgxPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	log.Info().Msg("Connected to PostgreSQL")

	// MongoDB (catalog, carts, wishlists)
	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI, cfg.MongoConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	mongoDB := mongoClient.Database(cfg.MongoDatabase)
	if err := mongorepo.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
	}

	// Initialize Cache (In-Memory)
	// Default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	healthChecks := map[string]v1.HealthCheck{
		"postgres": pgxPool.Ping,
		"mongo": func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		},
	}

	// Idempotency store: Redis when configured, otherwise process-local.
	var idemStore idempotency.Store
	closeRedis := func() error { return nil }
	if cfg.RedisURL != "" {
		rdb, err := idempotency.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		idemStore = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
		closeRedis = rdb.Close
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Msg("Idempotency keys stored in Redis")
	} else {
		idemStore = idempotency.NewMemoryStore(memCache, cfg.IdempotencyTTL)
		log.Warn().Msg("REDIS_URL not set, idempotency keys are kept in memory")
	}

	// Order events: Kafka when brokers are configured, otherwise logged.
	var publisher domain.EventPublisher = kafka.LogPublisher{}
	closeEvents := func() error { return nil }
	if len(cfg.KafkaBrokers) > 0 {
		eventPublisher := kafka.NewOrderEventPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic), cfg.KafkaOrderTopic)
		publisher = eventPublisher
		closeEvents = eventPublisher.Close
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaOrderTopic).Msg("Publishing order events to Kafka")
	}

	// Initialize Repositories
	productRepo := mongorepo.NewProductRepository(mongoDB)
	cartRepo := mongorepo.NewCartRepository(mongoDB)
	wishlistRepo := mongorepo.NewWishlistRepository(mongoDB)
	orderRepo := pgrepo.NewOrderRepository(pgxPool)
	addressRepo := pgrepo.NewAddressRepository(pgxPool)
	txManager := pgrepo.NewTransactionManager(pgxPool)

	carrier := shipping.NewClient(cfg, memCache)

	// --- Modules Initialization ---
	similarUC := usecase.NewSimilarUsecase(productRepo, memCache, cfg)
	cartUC := usecase.NewCartUsecase(cartRepo, productRepo, cfg.MaxCartQuantity)
	wishlistUC := usecase.NewWishlistUsecase(wishlistRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(orderRepo, productRepo, addressRepo, carrier, publisher, txManager, cfg)

	// Set up Router
	mux := http.NewServeMux()
	v1.RegisterRoutes(mux, v1.Handlers{
		Catalog:     v1.NewCatalogHandler(similarUC),
		Cart:        v1.NewCartHandler(cartUC),
		Wishlist:    v1.NewWishlistHandler(wishlistUC),
		Order:       v1.NewOrderHandler(orderUC),
		AdminOrder:  v1.NewAdminOrderHandler(orderUC),
		Health:      v1.NewHealthHandler(healthChecks),
		Idempotency: middleware.Idempotency(idemStore),
	})

	// 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		50,            // requests per second
		100,           // burst
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	// CORS, Request Logger, Rate Limit, then Gzip outermost
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Must outlive a carrier call plus the cancel retry.
		WriteTimeout: 3*cfg.CarrierTimeout + 10*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart(serviceName, "1.0.0", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	rateLimiter.Shutdown()
	if err := closeEvents(); err != nil {
		log.Error().Err(err).Msg("Failed to flush order events")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect MongoDB")
	}
	pgxPool.Close()
	if err := closeRedis(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis")
	}

	logger.ServiceStop(serviceName)
}
