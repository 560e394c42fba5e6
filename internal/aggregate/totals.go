package aggregate

import (
	"time"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

// AggregateTotals computes whole-range totals with the same overlap formula
// applied against the single window [start, cutoff). It is computed
// directly rather than by summing the bucketed series; the two agree within
// floating-point tolerance. ActiveNodes is the distinct node count over the
// whole window.
func AggregateTotals(start, cutoff time.Time, intervals []models.UsageInterval) models.Totals {
	var m models.BucketMetrics
	nodes := make(map[string]struct{})

	for _, iv := range intervals {
		ov := overlapMS(iv, start, cutoff, cutoff)
		if ov <= 0 {
			continue
		}
		accumulate(&m, iv, ov, cutoff)
		nodes[iv.NodeID] = struct{}{}
	}

	return models.Totals{
		ComputeHours: m.ComputeHours,
		CoreHours:    m.CoreHours,
		RAMGBHours:   m.RAMGBHours,
		GPUHours:     m.GPUHours,
		Fees:         m.Fees,
		ActiveNodes:  len(nodes),
	}
}
