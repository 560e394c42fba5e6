package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golem_stats_snapshot_cache_hits_total",
		Help: "Snapshot requests served from the cache",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golem_stats_snapshot_cache_misses_total",
		Help: "Snapshot requests that had to compute",
	})

	WarmCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golem_stats_warm_cycles_total",
		Help: "Completed cache warm cycles",
	})

	WarmStepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "golem_stats_warm_step_failures_total",
		Help: "Per-period failures inside warm cycles",
	})

	WarmerWarming = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "golem_stats_warmer_warming",
		Help: "1 while a warm cycle is in flight",
	})
)
