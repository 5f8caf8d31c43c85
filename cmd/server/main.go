package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dodream/cart/internal"
	"github.com/dodream/cart/internal/catalog"
	"github.com/dodream/cart/internal/cookie"
	"github.com/dodream/cart/internal/events"
	"github.com/dodream/cart/internal/guestcart"
	"github.com/dodream/cart/internal/handler"
	"github.com/dodream/cart/internal/middleware"
	"github.com/dodream/cart/internal/postgres"
	"github.com/dodream/cart/internal/router"
	"github.com/dodream/cart/internal/routes"
	"github.com/dodream/cart/internal/service"
	"github.com/dodream/cart/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize Redis client for guest carts
	redisOpts, err := redis.ParseURL(cfg.RedisUrl)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("Redis connection established")

	// Initialize event publisher (no-op when NATS is not configured)
	var publisher events.Publisher = events.Noop{}
	if cfg.NatsUrl != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsUrl)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = natsPublisher
		logger.Info("NATS connection established")
	}
	defer publisher.Close()

	// Initialize catalog client
	books := catalog.NewClient(cfg.Book.BaseURL, cfg.Book.Timeout)

	// Initialize metrics
	cartMetrics := telemetry.NewCartMetrics("cart")
	httpMetrics := middleware.NewMetrics("cart")

	// Initialize stores and services
	guestStore := guestcart.New(
		guestcart.NewRedisKV(redisClient),
		books,
		guestcart.Config{
			TTL:         cfg.GuestCart.TTL,
			MaxItems:    cfg.GuestCart.MaxItems,
			MaxQuantity: cfg.GuestCart.MaxQuantity,
		},
		logger,
	)

	cartRepo := postgres.NewCartRepository(pool)
	cartService := service.NewCartService(cartRepo, books, publisher, logger)

	evictor := service.NewEvictor(guestStore, cfg.Evict.MaxRetry, cfg.Evict.Delay, logger)
	mergeCoordinator := service.NewMergeCoordinator(
		guestStore, cartRepo, books, evictor, publisher, cartMetrics, logger)

	// Guest identity cookie lives as long as the guest cart itself.
	cookies := cookie.NewConfig(cfg.CookieSecure && cfg.Env == "prod")
	guestID := middleware.GuestID(cookies, int(cfg.GuestCart.TTL.Seconds()))

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		httpMetrics.Middleware,
		router.Logger(logger),
	)

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		httpMetrics.Handler().ServeHTTP(w, req)
	})

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	routes.Register(r, guestID, routes.Deps{
		Cart:  handler.NewCartHandler(cartService, mergeCoordinator),
		Items: handler.NewCartItemHandler(cartService),
		Guest: handler.NewGuestCartHandler(guestStore),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting cart server", "address", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
