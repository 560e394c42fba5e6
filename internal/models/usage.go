package models

import "time"

// UsageInterval is one recorded span of provider activity. Stop is nil while
// the activity is still running; such intervals are clamped at the query
// cutoff during aggregation.
type UsageInterval struct {
	NodeID     string
	Start      time.Time
	Stop       *time.Time
	CPUCores   float64
	RAMMB      float64
	GpuClassID *int64
	Fee        float64
}

// GpuClass describes one GPU model from the hardware catalog.
type GpuClass struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	VRAMGB int64  `json:"vram_gb"`
}

// Transaction is an on-chain payment observed by the chain importer. It is a
// point event: no duration, no overlap semantics.
type Transaction struct {
	Timestamp time.Time
	TxType    string
	Amount    float64
}
