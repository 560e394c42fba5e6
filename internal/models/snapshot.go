package models

import "time"

// TimeBucket is a half-open [Start, End) aggregation window. Within one
// request all buckets share the same width.
type TimeBucket struct {
	Start time.Time
	End   time.Time
}

// Period represents a time range
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BucketMetrics contains the apportioned usage metrics for one bucket.
type BucketMetrics struct {
	Bucket       time.Time `json:"ts"`
	ComputeHours float64   `json:"compute_hours"`
	CoreHours    float64   `json:"core_hours"`
	RAMGBHours   float64   `json:"ram_gb_hours"`
	GPUHours     float64   `json:"gpu_hours"`
	Fees         float64   `json:"fees"`
	ActiveNodes  int       `json:"active_nodes"`
}

// Totals contains whole-range aggregates. ActiveNodes is the distinct node
// count over the full range, not a sum of per-bucket counts.
type Totals struct {
	ComputeHours float64 `json:"compute_hours"`
	CoreHours    float64 `json:"core_hours"`
	RAMGBHours   float64 `json:"ram_gb_hours"`
	GPUHours     float64 `json:"gpu_hours"`
	Fees         float64 `json:"fees"`
	ActiveNodes  int     `json:"active_nodes"`
}

// EarningsPoint reconciles expected (interval-derived) earnings with
// observed on-chain payments for one displayed bucket.
type EarningsPoint struct {
	Bucket        time.Time `json:"ts"`
	Expected      float64   `json:"expected"`
	Observed      float64   `json:"observed"`
	ObservedCount int       `json:"observed_count"`
}

// NamedSeries is one category's per-bucket values, zero-filled to the
// shared label axis.
type NamedSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// GroupedSeries is a categorical breakdown over a shared label axis.
type GroupedSeries struct {
	Labels []time.Time   `json:"labels"`
	Series []NamedSeries `json:"series"`
}

// CategoryBreakdown holds the two grouped metrics for one category axis.
type CategoryBreakdown struct {
	GPUHours GroupedSeries `json:"gpu_hours"`
	Fees     GroupedSeries `json:"fees"`
}

// CategorySeries holds all four grouped series of a snapshot.
type CategorySeries struct {
	ByModel CategoryBreakdown `json:"by_model"`
	ByVRAM  CategoryBreakdown `json:"by_vram"`
}

// MetricsSnapshot is the full aggregated output for one period.
type MetricsSnapshot struct {
	Period         string          `json:"period"`
	Granularity    string          `json:"granularity"`
	DataCutoff     time.Time       `json:"data_cutoff"`
	DisplayRange   Period          `json:"display_range"`
	Totals         Totals          `json:"totals"`
	TimeSeries     []BucketMetrics `json:"time_series"`
	Earnings       []EarningsPoint `json:"earnings"`
	CategorySeries CategorySeries  `json:"category_series"`
}
