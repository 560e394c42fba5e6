package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/aggregate"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/cache"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/catalog"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/config"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

type stubIntervalStore struct {
	intervals []models.UsageInterval
	err       error
}

func (s *stubIntervalStore) IntervalsOverlapping(context.Context, *time.Time, time.Time) ([]models.UsageInterval, error) {
	return s.intervals, s.err
}

func (s *stubIntervalStore) EarliestIntervalStart(context.Context) (time.Time, error) {
	return time.Time{}, s.err
}

type stubTxStore struct{}

func (stubTxStore) TransactionsBetween(context.Context, time.Time, time.Time) ([]models.Transaction, error) {
	return nil, nil
}

type stubCatalogLoader struct{}

func (stubCatalogLoader) GpuClasses(context.Context) ([]models.GpuClass, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, intervals *stubIntervalStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat := catalog.Load(context.Background(), stubCatalogLoader{}, zap.NewNop())
	service := aggregate.NewService(intervals, stubTxStore{}, cat, 48*time.Hour, zap.NewNop())

	disabled, err := cache.New(config.CacheConfig{TTLSeconds: 60}, config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	handler := NewUsageHandler(service, disabled, zap.NewNop())
	router := gin.New()
	router.GET("/api/v1/metrics/usage", handler.GetUsageSnapshot)
	router.DELETE("/api/v1/metrics/cache", handler.DeleteCachedSnapshot)
	return router
}

func TestGetUsageSnapshot(t *testing.T) {
	router := newTestRouter(t, &stubIntervalStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/usage?period=7d", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var snap models.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	require.Equal(t, "7d", snap.Period)
	require.Equal(t, "hourly", snap.Granularity)
	require.Len(t, snap.TimeSeries, len(snap.Earnings))
}

func TestGetUsageSnapshotInvalidPeriod(t *testing.T) {
	router := newTestRouter(t, &stubIntervalStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/usage?period=1y", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetUsageSnapshotStoreFailure(t *testing.T) {
	router := newTestRouter(t, &stubIntervalStore{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/usage?period=24h", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Contains(t, resp["error"], "failed to compute")
}

func TestDeleteCachedSnapshotRequiresPeriod(t *testing.T) {
	router := newTestRouter(t, &stubIntervalStore{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/metrics/cache", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
