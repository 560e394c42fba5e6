package warmer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/aggregate"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/cache"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/metrics"
	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

// SnapshotSource computes a snapshot for one period.
type SnapshotSource interface {
	Snapshot(ctx context.Context, period aggregate.Period) (*models.MetricsSnapshot, error)
}

// Store is the cache surface the warmer needs.
type Store interface {
	Enabled() bool
	Set(ctx context.Context, key string, value []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Warmer precomputes period snapshots in the background and stores them
// under their fingerprint keys so on-demand requests hit the cache. The
// lifecycle is Idle -> Warming -> Idle; at most one cycle runs at a time.
type Warmer struct {
	source   SnapshotSource
	store    Store
	periods  []aggregate.Period
	interval time.Duration
	grace    time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	warming bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(source SnapshotSource, store Store, periods []aggregate.Period, ttl time.Duration, warmRatio float64, grace time.Duration, log *zap.Logger) *Warmer {
	return &Warmer{
		source:   source,
		store:    store,
		periods:  periods,
		interval: time.Duration(float64(ttl) * warmRatio),
		grace:    grace,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the schedule: one cycle after the startup grace delay,
// then one per interval (TTL x ratio, so entries refresh before expiry).
func (w *Warmer) Start() {
	go w.loop()
}

// Stop cancels the schedule. An in-flight cycle is allowed to finish.
func (w *Warmer) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Warmer) loop() {
	defer close(w.done)

	timer := time.NewTimer(w.grace)
	defer timer.Stop()

	select {
	case <-w.stop:
		return
	case <-timer.C:
	}
	w.RunCycle(context.Background())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.RunCycle(context.Background())
		}
	}
}

// tryBegin flips Idle -> Warming; false means a cycle is already running.
func (w *Warmer) tryBegin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.warming {
		return false
	}
	w.warming = true
	return true
}

func (w *Warmer) end() {
	w.mu.Lock()
	w.warming = false
	w.mu.Unlock()
	metrics.WarmerWarming.Set(0)
}

// RunCycle warms every configured period once. A start while a cycle is
// already warming is a logged no-op, not queued. Without a cache backend
// the whole cycle is skipped: the warmer exists solely to populate the
// cache, so uncached computation would be wasted work. One period's
// failure is logged and does not abort the rest.
func (w *Warmer) RunCycle(ctx context.Context) {
	if !w.tryBegin() {
		w.log.Info("Warm cycle already in flight, skipping")
		return
	}
	defer w.end()
	metrics.WarmerWarming.Set(1)

	if w.store == nil || !w.store.Enabled() {
		w.log.Warn("Cache backend unavailable, skipping warm cycle", zap.Error(cache.ErrCacheUnavailable))
		return
	}

	started := time.Now()
	warmed := 0
	for _, period := range w.periods {
		if err := w.warmPeriod(ctx, period); err != nil {
			metrics.WarmStepFailures.Inc()
			w.log.Error("Warm step failed",
				zap.String("period", string(period)),
				zap.Error(err),
			)
			continue
		}
		warmed++
	}

	metrics.WarmCycles.Inc()
	w.log.Info("Warm cycle finished",
		zap.Int("warmed", warmed),
		zap.Int("periods", len(w.periods)),
		zap.Duration("took", time.Since(started)),
	)
}

func (w *Warmer) warmPeriod(ctx context.Context, period aggregate.Period) error {
	snapshot, err := w.source.Snapshot(ctx, period)
	if err != nil {
		return fmt.Errorf("compute snapshot: %w", err)
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}

	if err := w.store.Set(ctx, cache.SnapshotKey(string(period)), payload); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Ready reports whether every configured period currently has a cache
// entry. Pure read, no side effects.
func (w *Warmer) Ready(ctx context.Context) bool {
	if w.store == nil || !w.store.Enabled() {
		return false
	}
	for _, period := range w.periods {
		ok, err := w.store.Exists(ctx, cache.SnapshotKey(string(period)))
		if err != nil || !ok {
			return false
		}
	}
	return true
}
