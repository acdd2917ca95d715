// Package main is the entry point for the cloudsms HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/handler"
	"github.com/qhosting/cloudsms/internal/infrastructure/migrate"
	"github.com/qhosting/cloudsms/internal/middleware"
	"github.com/qhosting/cloudsms/internal/queue"
	"github.com/qhosting/cloudsms/internal/repository"
	"github.com/qhosting/cloudsms/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		runner := migrate.NewRunner(&migrate.Config{
			DatabaseURL:    cfg.Database.GetURL(),
			MigrationsPath: cfg.Database.MigrationsPath,
		}, logger)
		if err := runner.Up(); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis only caches external ids; the service degrades to database
	// lookups without it.
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis is unavailable, external id lookups will hit the database", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	q, err := queue.New(&cfg.Queue, cfg.Dispatch.QueueSize, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dispatch queue", zap.Error(err))
	}
	defer func() {
		if err := q.Close(); err != nil {
			logger.Error("Failed to close dispatch queue", zap.Error(err))
		}
	}()

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, redisClient, q, logger)

	if err := svc.Pool.Start(ctx); err != nil {
		logger.Fatal("Failed to start submission pool", zap.Error(err))
	}

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := q.Consume(ctx, svc.Pool.Enqueue); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Dispatch queue consumer stopped", zap.Error(err))
		}
	}()

	config.Watch(func(c *config.Config, err error) {
		if err != nil {
			logger.Error("Failed to reload configuration", zap.Error(err))
			return
		}
		svc.Pool.SetRate(c.Carrier.RatePerSec)
	})

	h := handler.NewHandler(svc, logger, handler.WithMaxParts(cfg.Dispatch.MaxParts))

	router := setupRouter(h)

	middlewareConfig := &middleware.Config{
		Logger: logger,
		CORS: &middleware.CORSConfig{
			AllowedOrigins:   cfg.Middleware.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           86400,
		},
		RateLimit:       rate.Limit(cfg.Middleware.RateLimit),
		RateLimitBurst:  cfg.Middleware.RateLimitBurst,
		RateLimitExempt: []string{"/api/v1/webhooks/"},
		RequestTimeout:  time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	if !cfg.Middleware.EnableCORS {
		middlewareConfig.CORS = nil
	}

	finalHandler := middleware.Chain(middlewareConfig)(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      finalHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout+5) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := svc.Scheduler.Start(); err != nil {
		logger.Error("Failed to start recovery sweep on startup", zap.Error(err))
	} else {
		logger.Info("Recovery sweep started automatically on application startup")
	}

	go func() {
		logger.Info("Starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if svc.Scheduler.IsRunning() {
		if err := svc.Scheduler.Stop(); err != nil {
			logger.Error("Failed to stop recovery sweep", zap.Error(err))
		}
	}

	// Stop intake first so no campaign is handed to a stopping pool.
	cancel()
	<-consumerDone

	if err := svc.Pool.Stop(); err != nil {
		logger.Error("Failed to stop submission pool", zap.Error(err))
	}

	logger.Info("Server exited")
}
