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

	"github.com/redis/go-redis/v9"

	"cryptoledger/internal/config"
	"cryptoledger/internal/database"
	"cryptoledger/internal/lock"
	"cryptoledger/internal/logger"
	"cryptoledger/internal/middleware"
	"cryptoledger/internal/pricing"
	"cryptoledger/internal/server"
	"cryptoledger/internal/validator"
)

// @title           Crypto Ledger API
// @version         1.0
// @description     Records crypto asset purchases and sales per client, priced in fiat from a live quote feed.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Operator key required on write routes when API_KEY is set.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(database.DefaultMigrationsSource); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Price feed
	var prices pricing.PriceSource = pricing.NewCriptoYaSource(pricing.CriptoYaConfig{
		BaseURL:    appConfig.PriceBaseURL,
		Exchange:   appConfig.PriceExchange,
		Fiat:       appConfig.PriceFiat,
		Timeout:    appConfig.PriceTimeout,
		MaxRetries: appConfig.PriceMaxRetries,
		RetryBase:  appConfig.PriceRetryBase,
	})
	if appConfig.PriceCacheTTL > 0 {
		cached, err := pricing.NewCachedSource(prices, appConfig.PriceCacheTTL)
		if err != nil {
			return fmt.Errorf("failed to create price cache: %w", err)
		}
		defer cached.Close()
		prices = cached
		log.Infof("Caching prices for %s", appConfig.PriceCacheTTL)
	}

	// Sell locking
	locker, closeLocker, err := newLocker(ctx, appConfig)
	if err != nil {
		return err
	}
	defer closeLocker()

	validator.Register()

	limiter := middleware.NewRateLimiter(appConfig.RateLimitRPS, appConfig.RateLimitBurst)
	go limiter.Run(time.Minute, ctx.Done())

	router := server.NewRouter(server.Deps{
		DB:          dbManager.DB(),
		Prices:      prices,
		Locker:      locker,
		APIKey:      appConfig.APIKey,
		CORSOrigins: appConfig.CORSOrigins,
		RateLimiter: limiter,
	})
	if appConfig.APIKey == "" {
		log.Warn("API_KEY is not set, write routes are open")
	}

	srv := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting crypto ledger server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// newLocker uses Redis when REDIS_URL is set so sales serialize across
// instances, and an in-process lock otherwise.
func newLocker(ctx context.Context, appConfig *config.Config) (lock.Locker, func(), error) {
	if appConfig.RedisURL == "" {
		logger.Get().Info("REDIS_URL not set, using in-process sell lock")
		return lock.NewKeyedMutex(), func() {}, nil
	}

	opts, err := redis.ParseURL(appConfig.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Get().Info("Using Redis sell lock")
	return lock.NewRedisLocker(client, appConfig.SellLockTTL), func() {
		if err := client.Close(); err != nil {
			logger.Get().Warnf("redis close error: %v", err)
		}
	}, nil
}
