package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/aggregate"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/cache"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/metrics"
	"github.com/cory-salad/salad-golem-stats-sub000/pkg/utils"
)

type UsageHandler struct {
	service *aggregate.Service
	cache   *cache.Cache
	log     *zap.Logger
}

func NewUsageHandler(service *aggregate.Service, c *cache.Cache, log *zap.Logger) *UsageHandler {
	return &UsageHandler{
		service: service,
		cache:   c,
		log:     log,
	}
}

// GetUsageSnapshot returns the aggregated usage snapshot for a period,
// cache-first. A miss computes the snapshot and fills the same fingerprint
// key the warmer would; a cold cache is never an error, just slower.
// GET /api/v1/metrics/usage?period=7d
func (h *UsageHandler) GetUsageSnapshot(c *gin.Context) {
	period, err := aggregate.ParsePeriod(c.DefaultQuery("period", string(aggregate.Period24H)))
	if err != nil {
		utils.BadRequestError(c, err.Error())
		return
	}

	key := cache.SnapshotKey(string(period))
	if h.cache.Enabled() {
		if payload, err := h.cache.Get(c.Request.Context(), key); err == nil {
			metrics.CacheHits.Inc()
			c.Data(http.StatusOK, "application/json", payload)
			return
		} else if !cache.IsMiss(err) {
			h.log.Warn("Snapshot cache read failed", zap.Error(err))
		}
	}
	metrics.CacheMisses.Inc()

	snapshot, err := h.service.Snapshot(c.Request.Context(), period)
	if err != nil {
		if errors.Is(err, aggregate.ErrInvalidPeriod) {
			utils.BadRequestError(c, err.Error())
			return
		}
		h.log.Error("Snapshot computation failed",
			zap.String("period", string(period)),
			zap.Error(err),
		)
		utils.ServiceUnavailableError(c, "failed to compute usage snapshot")
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		utils.InternalServerError(c, "failed to serialize snapshot")
		return
	}

	if h.cache.Enabled() {
		if err := h.cache.Set(c.Request.Context(), key, payload); err != nil {
			h.log.Warn("Snapshot cache write failed", zap.Error(err))
		}
	}

	c.Data(http.StatusOK, "application/json", payload)
}

// DeleteCachedSnapshot evicts one period's cached snapshot. Admin only.
// DELETE /api/v1/metrics/cache?period=7d
func (h *UsageHandler) DeleteCachedSnapshot(c *gin.Context) {
	period, err := aggregate.ParsePeriod(c.Query("period"))
	if err != nil {
		utils.BadRequestError(c, err.Error())
		return
	}

	if err := h.cache.Delete(c.Request.Context(), cache.SnapshotKey(string(period))); err != nil {
		utils.InternalServerError(c, "failed to delete cached snapshot")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
		"period": string(period),
	})
}
