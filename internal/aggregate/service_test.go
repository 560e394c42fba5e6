package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/catalog"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

type fakeIntervalStore struct {
	intervals []models.UsageInterval
	earliest  time.Time
	err       error

	gotLower *time.Time
	gotUpper time.Time
}

func (f *fakeIntervalStore) IntervalsOverlapping(_ context.Context, lower *time.Time, upper time.Time) ([]models.UsageInterval, error) {
	f.gotLower = lower
	f.gotUpper = upper
	return f.intervals, f.err
}

func (f *fakeIntervalStore) EarliestIntervalStart(context.Context) (time.Time, error) {
	return f.earliest, f.err
}

type fakeTxStore struct {
	txs []models.Transaction
	err error

	gotFrom time.Time
	gotTo   time.Time
}

func (f *fakeTxStore) TransactionsBetween(_ context.Context, from, to time.Time) ([]models.Transaction, error) {
	f.gotFrom = from
	f.gotTo = to
	return f.txs, f.err
}

type fakeCatalogLoader struct {
	classes []models.GpuClass
	err     error
}

func (f *fakeCatalogLoader) GpuClasses(context.Context) ([]models.GpuClass, error) {
	return f.classes, f.err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	loader := &fakeCatalogLoader{classes: []models.GpuClass{
		{ID: 1, Name: "RTX 4090", VRAMGB: 24},
		{ID: 2, Name: "RTX 3060", VRAMGB: 12},
	}}
	return catalog.Load(context.Background(), loader, zap.NewNop())
}

func newTestService(ivs *fakeIntervalStore, txs *fakeTxStore, now time.Time) *Service {
	s := NewService(ivs, txs, nil, 48*time.Hour, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func TestSnapshotEndToEnd(t *testing.T) {
	now := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	cutoff := now.Add(-48 * time.Hour)

	gpu := int64(1)
	ivs := &fakeIntervalStore{intervals: []models.UsageInterval{
		{NodeID: "n1", Start: cutoff.Add(-2 * time.Hour), Stop: timePtr(cutoff.Add(-time.Hour)), CPUCores: 4, RAMMB: 8192, Fee: 2, GpuClassID: &gpu},
		{NodeID: "n2", Start: cutoff.Add(-90 * time.Minute), CPUCores: 2, RAMMB: 4096, Fee: 3},
	}}
	txs := &fakeTxStore{txs: []models.Transaction{
		{Timestamp: now.Add(-30 * time.Minute), TxType: "payment", Amount: 1.25},
	}}

	svc := newTestService(ivs, txs, now)
	svc.catalog = testCatalog(t)

	snap, err := svc.Snapshot(context.Background(), Period6H)
	require.NoError(t, err)

	require.Equal(t, "6h", snap.Period)
	require.Equal(t, "hourly", snap.Granularity)
	require.Equal(t, cutoff, snap.DataCutoff)
	require.Equal(t, now, snap.DisplayRange.End)
	require.Equal(t, 48*time.Hour, snap.DisplayRange.End.Sub(snap.DataCutoff))

	// Interval query bounded below by the grid start, clamped above at cutoff.
	require.NotNil(t, ivs.gotLower)
	require.Equal(t, cutoff, ivs.gotUpper)
	// Transaction query runs against now, unshifted.
	require.Equal(t, now, txs.gotTo)
	require.Equal(t, ivs.gotLower.Add(48*time.Hour), txs.gotFrom)

	require.Len(t, snap.Earnings, len(snap.TimeSeries))
	var observed float64
	for _, p := range snap.Earnings {
		observed += p.Observed
	}
	require.InDelta(t, 1.25, observed, epsilon)

	// Open interval n2 runs up to the cutoff.
	require.Equal(t, 2, snap.Totals.ActiveNodes)
	require.InDelta(t, 1.0+1.5, snap.Totals.ComputeHours, epsilon)
	require.InDelta(t, 1.0, snap.Totals.GPUHours, epsilon)

	// Four categorical breakdowns on the shared axis, catalog names resolved.
	require.Len(t, snap.CategorySeries.ByModel.GPUHours.Labels, len(snap.TimeSeries))
	names := make(map[string]bool)
	for _, s := range snap.CategorySeries.ByModel.Fees.Series {
		names[s.Name] = true
	}
	require.True(t, names["RTX 4090"])
	require.True(t, names[catalog.NoGPU])
}

func TestSnapshotUnboundedPeriodQueriesWithoutLowerBound(t *testing.T) {
	now := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)

	ivs := &fakeIntervalStore{earliest: now.Add(-10 * 24 * time.Hour)}
	txs := &fakeTxStore{}

	svc := newTestService(ivs, txs, now)
	svc.catalog = testCatalog(t)

	snap, err := svc.Snapshot(context.Background(), PeriodAll)
	require.NoError(t, err)
	require.Nil(t, ivs.gotLower)
	require.Equal(t, "daily", snap.Granularity)
}

func TestSnapshotInvalidPeriod(t *testing.T) {
	svc := newTestService(&fakeIntervalStore{}, &fakeTxStore{}, time.Now())
	svc.catalog = testCatalog(t)

	_, err := svc.Snapshot(context.Background(), Period("2y"))
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSnapshotStoreFailurePropagates(t *testing.T) {
	storeErr := errors.New("connection refused")

	svc := newTestService(&fakeIntervalStore{err: storeErr}, &fakeTxStore{}, time.Now())
	svc.catalog = testCatalog(t)

	snap, err := svc.Snapshot(context.Background(), Period24H)
	require.ErrorIs(t, err, storeErr)
	require.Nil(t, snap, "no partial snapshot on store failure")
}

func TestSnapshotDegradedCatalogUsesRawIdentifiers(t *testing.T) {
	now := time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
	cutoff := now.Add(-48 * time.Hour)

	gpu := int64(7)
	ivs := &fakeIntervalStore{intervals: []models.UsageInterval{
		{NodeID: "n1", Start: cutoff.Add(-time.Hour), Stop: timePtr(cutoff), GpuClassID: &gpu, Fee: 1},
	}}

	svc := newTestService(ivs, &fakeTxStore{}, now)
	svc.catalog = catalog.Load(context.Background(), &fakeCatalogLoader{err: errors.New("boom")}, zap.NewNop())
	require.True(t, svc.catalog.Degraded())

	snap, err := svc.Snapshot(context.Background(), Period6H)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, s := range snap.CategorySeries.ByModel.Fees.Series {
		names[s.Name] = true
	}
	require.True(t, names["gpu-7"])
}
