package aggregate

import (
	"time"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

const msPerHour = 3_600_000

// mbPerGB converts stored RAM amounts (MB) to GB for reporting.
const mbPerGB = 1024.0

// effectiveStop returns the instant an interval stops counting: its stop
// time when present, clamped so nothing past the cutoff is attributed.
func effectiveStop(iv models.UsageInterval, cutoff time.Time) time.Time {
	if iv.Stop != nil && iv.Stop.Before(cutoff) {
		return *iv.Stop
	}
	return cutoff
}

// overlapMS returns the milliseconds of iv's clamped lifetime that fall
// inside the half-open window [ws, we).
func overlapMS(iv models.UsageInterval, ws, we, cutoff time.Time) int64 {
	stop := effectiveStop(iv, cutoff)
	if stop.After(we) {
		stop = we
	}
	start := iv.Start
	if start.Before(ws) {
		start = ws
	}
	ms := stop.Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// durationMS is iv's clamped lifetime in milliseconds, floored at 1 ms so a
// degenerate zero-duration interval can still have its fee apportioned.
func durationMS(iv models.UsageInterval, cutoff time.Time) int64 {
	ms := effectiveStop(iv, cutoff).Sub(iv.Start).Milliseconds()
	if ms < 1 {
		return 1
	}
	return ms
}

// accumulate adds iv's share for a window of ov milliseconds into m.
func accumulate(m *models.BucketMetrics, iv models.UsageInterval, ov int64, cutoff time.Time) {
	hours := float64(ov) / msPerHour
	m.ComputeHours += hours
	m.CoreHours += iv.CPUCores * hours
	m.RAMGBHours += (iv.RAMMB / mbPerGB) * hours
	if iv.GpuClassID != nil {
		m.GPUHours += hours
	}
	m.Fees += iv.Fee * float64(ov) / float64(durationMS(iv, cutoff))
}

// AggregateBuckets apportions every interval's metrics across the buckets
// it overlaps. For a single interval the overlap milliseconds across all
// buckets sum to its clamped lifetime: nothing is double counted or lost.
// ActiveNodes per bucket counts distinct nodes with any overlap there.
func AggregateBuckets(buckets []models.TimeBucket, intervals []models.UsageInterval, cutoff time.Time) []models.BucketMetrics {
	out := make([]models.BucketMetrics, len(buckets))
	nodes := make([]map[string]struct{}, len(buckets))
	for i, b := range buckets {
		out[i].Bucket = b.Start
		nodes[i] = make(map[string]struct{})
	}

	for _, iv := range intervals {
		for i, b := range buckets {
			ov := overlapMS(iv, b.Start, b.End, cutoff)
			if ov <= 0 {
				continue
			}
			accumulate(&out[i], iv, ov, cutoff)
			nodes[i][iv.NodeID] = struct{}{}
		}
	}

	for i := range out {
		out[i].ActiveNodes = len(nodes[i])
	}
	return out
}
