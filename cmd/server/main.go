package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hsrini/wellness/internal"
	"github.com/hsrini/wellness/internal/cache"
	"github.com/hsrini/wellness/internal/events"
	"github.com/hsrini/wellness/internal/handler/api"
	"github.com/hsrini/wellness/internal/middleware"
	wmongo "github.com/hsrini/wellness/internal/mongo"
	"github.com/hsrini/wellness/internal/router"
	"github.com/hsrini/wellness/internal/routes"
	"github.com/hsrini/wellness/internal/service"
	"github.com/hsrini/wellness/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Connect to MongoDB
	logger.Info("Connecting to MongoDB...")
	db, err := wmongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return fmt.Errorf("mongodb connection failed: %w", err)
	}
	defer func() {
		if err := wmongo.Disconnect(context.Background(), db); err != nil {
			logger.Error("mongodb disconnect failed", "error", err)
		}
	}()

	if err := wmongo.EnsureCartIndexes(ctx, db); err != nil {
		return fmt.Errorf("cart index bootstrap failed: %w", err)
	}
	if err := wmongo.EnsureSequenceDefaults(ctx, db); err != nil {
		return fmt.Errorf("sequence bootstrap failed: %w", err)
	}
	logger.Info("MongoDB connection established")

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	logger.Info("Redis connection established")

	// Connect to NATS; events are optional and disabled when no URL is
	// configured
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer nc.Drain()
		publisher = events.NewNATSPublisher(nc)
		logger.Info("NATS connection established", "url", cfg.NATS.URL)
	} else {
		logger.Warn("NATS_URL not set, order events disabled")
	}

	// Metrics
	httpMetrics := middleware.NewMetrics("wellness")
	businessMetrics := telemetry.NewBusinessMetrics("wellness")

	// Wire the cart service
	cartService := service.NewCartService(
		wmongo.NewCartStore(db),
		wmongo.NewProductCatalog(db),
		wmongo.NewSequenceCounter(db),
		cache.NewRedisCache(redisClient),
		publisher,
		businessMetrics,
		logger,
	)

	// Handlers
	cartHandler := api.NewCartHandler(cartService, logger)
	healthHandler := api.NewHealthHandler(map[string]api.Pinger{
		"mongodb": api.PingerFunc(func(ctx context.Context) error {
			return db.Client().Ping(ctx, readpref.Primary())
		}),
		"redis": api.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})

	// Router with the global middleware chain
	r := router.New(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.CORS(cfg.CORSOrigins),
		middleware.BodyLimit(15<<20),
		httpMetrics.Middleware,
		middleware.Logger(logger),
	)

	routes.Register(r, routes.Deps{
		CartHandler:    cartHandler,
		HealthHandler:  healthHandler,
		AdminToken:     cfg.Admin.Token,
		MetricsHandler: httpMetrics.Handler(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
