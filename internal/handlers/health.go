package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/cache"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/repository"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/warmer"
)

type HealthHandler struct {
	postgresRepo   *repository.PostgresRepository
	clickhouseRepo *repository.ClickHouseRepository
	cache          *cache.Cache
	warmer         *warmer.Warmer
}

func NewHealthHandler(pg *repository.PostgresRepository, ch *repository.ClickHouseRepository, c *cache.Cache, w *warmer.Warmer) *HealthHandler {
	return &HealthHandler{
		postgresRepo:   pg,
		clickhouseRepo: ch,
		cache:          c,
		warmer:         w,
	}
}

// LivenessProbe checks if the service is alive (always returns 200 if running)
// GET /health/live
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// ReadinessProbe checks if the service can serve requests: store
// connections are up and, when a warmer is running, every configured
// period already has a cached snapshot.
// GET /health/ready
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.postgresRepo.Ping(ctx); err != nil {
		checks["postgresql"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["postgresql"] = "healthy"
	}

	if err := h.clickhouseRepo.Ping(ctx); err != nil {
		checks["clickhouse"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["clickhouse"] = "healthy"
	}

	if h.warmer != nil {
		if h.warmer.Ready(ctx) {
			checks["warm_cache"] = "ready"
		} else {
			checks["warm_cache"] = "not_ready"
			allHealthy = false
		}
	}

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}

// HealthCheck provides detailed health information
// GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]interface{})

	pgStart := time.Now()
	pgErr := h.postgresRepo.Ping(ctx)
	pgDuration := time.Since(pgStart)

	checks["postgresql"] = map[string]interface{}{
		"healthy":     pgErr == nil,
		"response_ms": pgDuration.Milliseconds(),
		"error":       formatError(pgErr),
	}

	chStart := time.Now()
	chErr := h.clickhouseRepo.Ping(ctx)
	chDuration := time.Since(chStart)

	checks["clickhouse"] = map[string]interface{}{
		"healthy":     chErr == nil,
		"response_ms": chDuration.Milliseconds(),
		"error":       formatError(chErr),
	}

	redisErr := h.cache.Ping(ctx)
	checks["redis"] = map[string]interface{}{
		"healthy": redisErr == nil,
		"enabled": h.cache.Enabled(),
		"error":   formatError(redisErr),
	}

	allHealthy := pgErr == nil && chErr == nil && redisErr == nil
	status := "healthy"
	statusCode := http.StatusOK

	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

func formatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
