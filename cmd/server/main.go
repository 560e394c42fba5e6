package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/aggregate"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/cache"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/catalog"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/config"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/handlers"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/middleware"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/repository"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/warmer"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Golem stats API",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database connections
	pgRepo, err := repository.NewPostgresRepository(&cfg.PostgreSQL)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgRepo.Close()
	logger.Info("Connected to PostgreSQL", zap.String("host", cfg.PostgreSQL.Host))

	chRepo, err := repository.NewClickHouseRepository(&cfg.ClickHouse)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer chRepo.Close()
	logger.Info("Connected to ClickHouse", zap.String("host", cfg.ClickHouse.Host))

	snapshotCache, err := cache.New(cfg.Cache, cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer snapshotCache.Close()

	// Preload the GPU-class catalog; a failure degrades display names only.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	gpuCatalog := catalog.Load(startupCtx, pgRepo, logger)
	startupCancel()

	// Aggregation pipeline
	freshnessOffset := time.Duration(cfg.Cache.FreshnessOffsetHours) * time.Hour
	service := aggregate.NewService(pgRepo, chRepo, gpuCatalog, freshnessOffset, logger)

	// Background cache warmer
	var cacheWarmer *warmer.Warmer
	if cfg.Cache.WarmerEnabled {
		cacheWarmer = warmer.New(
			service,
			snapshotCache,
			aggregate.Periods,
			snapshotCache.TTL(),
			cfg.Cache.WarmRatio,
			time.Duration(cfg.Cache.WarmGraceSeconds)*time.Second,
			logger,
		)
		cacheWarmer.Start()
		logger.Info("Cache warmer started",
			zap.Float64("warm_ratio", cfg.Cache.WarmRatio),
			zap.Int("ttl_seconds", cfg.Cache.TTLSeconds),
		)
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(pgRepo, chRepo, snapshotCache, cacheWarmer)
	usageHandler := handlers.NewUsageHandler(service, snapshotCache, logger)

	// Setup Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	// Request logging middleware
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("[%s] %s %s %d %s %s\n",
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
				param.ErrorMessage,
			)
		},
	}))

	// Health check endpoints (no auth required)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/health/live", healthHandler.LivenessProbe)
	router.GET("/health/ready", healthHandler.ReadinessProbe)
	router.GET("/metrics", handlers.PrometheusHandler())

	// API v1 routes
	rateLimiter := middleware.NewRateLimiter(120, time.Minute)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(rateLimiter))

	v1.GET("/metrics/usage", usageHandler.GetUsageSnapshot)

	// Admin routes
	admin := v1.Group("")
	admin.Use(middleware.AuthMiddleware(&cfg.Auth))
	admin.DELETE("/metrics/cache", usageHandler.DeleteCachedSnapshot)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cacheWarmer != nil {
		cacheWarmer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.OutputPath != "" {
		zapCfg.OutputPaths = []string{cfg.OutputPath}
	}

	return zapCfg.Build()
}
