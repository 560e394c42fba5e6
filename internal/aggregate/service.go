package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/catalog"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

// IntervalStore is the usage-interval collaborator. Records whose lifetime
// intersects the window are returned; lower is optional so the unbounded
// period runs the same query without a lower bound.
type IntervalStore interface {
	IntervalsOverlapping(ctx context.Context, lower *time.Time, upper time.Time) ([]models.UsageInterval, error)
	EarliestIntervalStart(ctx context.Context) (time.Time, error)
}

// TransactionStore is the on-chain payment collaborator.
type TransactionStore interface {
	TransactionsBetween(ctx context.Context, from, to time.Time) ([]models.Transaction, error)
}

// Service runs the full aggregation pipeline for one period: bucket
// planning, overlap apportionment, totals, cross-source alignment and the
// categorical breakdowns, assembled into a MetricsSnapshot.
type Service struct {
	intervals IntervalStore
	txs       TransactionStore
	catalog   *catalog.Catalog
	offset    time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewService(intervals IntervalStore, txs TransactionStore, cat *catalog.Catalog, freshnessOffset time.Duration, log *zap.Logger) *Service {
	return &Service{
		intervals: intervals,
		txs:       txs,
		catalog:   cat,
		offset:    freshnessOffset,
		log:       log,
		now:       time.Now,
	}
}

// Snapshot computes the full aggregated snapshot for a period. Store
// failures propagate to the caller unmodified; a partial snapshot is never
// returned.
func (s *Service) Snapshot(ctx context.Context, period Period) (*models.MetricsSnapshot, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.offset)

	var earliest time.Time
	if period == PeriodAll {
		var err error
		earliest, err = s.intervals.EarliestIntervalStart(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve earliest interval: %w", err)
		}
	}

	gran, buckets, err := Plan(period, cutoff, earliest)
	if err != nil {
		return nil, err
	}

	rangeStart := buckets[0].Start
	displayStart := rangeStart.Add(s.offset)

	// The bucketed series, totals and all four breakdowns derive from the
	// interval read; the observed series derives from the transaction
	// read. Both are issued together and jointly awaited: alignment and
	// ranking need the complete data set before they may start.
	var (
		intervals []models.UsageInterval
		txs       []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var lower *time.Time
		if period != PeriodAll {
			lower = &rangeStart
		}
		var err error
		intervals, err = s.intervals.IntervalsOverlapping(gctx, lower, cutoff)
		if err != nil {
			return fmt.Errorf("query usage intervals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.txs.TransactionsBetween(gctx, displayStart, now)
		if err != nil {
			return fmt.Errorf("query chain transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bucketed := AggregateBuckets(buckets, intervals, cutoff)
	totals := AggregateTotals(rangeStart, cutoff, intervals)
	earnings := AlignEarnings(bucketed, txs, s.offset, gran.Step())

	labels := make([]time.Time, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Start
	}

	s.log.Debug("Aggregated period snapshot",
		zap.String("period", string(period)),
		zap.Int("buckets", len(buckets)),
		zap.Int("intervals", len(intervals)),
		zap.Int("transactions", len(txs)),
	)

	byModel := func(iv models.UsageInterval) string { return s.catalog.ModelName(iv.GpuClassID) }
	byVRAM := func(iv models.UsageInterval) string { return s.catalog.VRAMLabel(iv.GpuClassID) }
	fees := feesValue(cutoff)

	group := func(keyFn func(models.UsageInterval) string, value CategoryValueFunc) models.GroupedSeries {
		series, order := CategoryValues(buckets, intervals, cutoff, keyFn, value)
		return TopNWithOther(labels, series, order, TopCategories)
	}

	return &models.MetricsSnapshot{
		Period:      string(period),
		Granularity: string(gran),
		DataCutoff:  cutoff,
		DisplayRange: models.Period{
			Start: displayStart,
			End:   now,
		},
		Totals:     totals,
		TimeSeries: bucketed,
		Earnings:   earnings,
		CategorySeries: models.CategorySeries{
			ByModel: models.CategoryBreakdown{
				GPUHours: group(byModel, GPUHoursValue),
				Fees:     group(byModel, fees),
			},
			ByVRAM: models.CategoryBreakdown{
				GPUHours: group(byVRAM, GPUHoursValue),
				Fees:     group(byVRAM, fees),
			},
		},
	}, nil
}
