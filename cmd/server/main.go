package main

import (
	"context"
	"log"
	"mpvrp-verify-service/internal/adapters/cache"
	"mpvrp-verify-service/internal/adapters/repositories"
	"mpvrp-verify-service/internal/api"
	"mpvrp-verify-service/internal/config"
	"mpvrp-verify-service/internal/platform/db"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/services"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires the verifier and the optional Postgres/Redis adapters behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", ""))
	if err != nil {
		log.Fatal(err)
	}

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	obs.RegisterDefault()

	deps := api.Deps{
		Verifier:     services.NewVerifier(logger, cfg.Tolerance, cfg.Workers),
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}

	// Storage is optional: without DATABASE_URL verdicts are returned but not kept.
	if cfg.Store.DatabaseURL != "" {
		sqlDB, err := db.Open(cfg.Store.DatabaseURL)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		defer sqlDB.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repositories.InitSchema(ctx, sqlDB)
		cancel()
		if err != nil {
			logger.Fatal("init schema", zap.Error(err))
		}
		deps.Repo = repositories.NewPostgresVerdictRepository(sqlDB)
	}

	if cfg.Store.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := cache.NewRedisClient(ctx, cfg.Store.RedisURL)
		cancel()
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		deps.Cache = cache.NewRedisVerdictCache(rdb, cfg.Store.CacheTTL)
	}

	router := api.NewRouter(deps)

	logger.Info("server listening",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Bool("store", deps.Repo != nil),
		zap.Bool("cache", deps.Cache != nil))
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
