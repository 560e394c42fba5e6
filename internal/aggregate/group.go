package aggregate

import (
	"sort"
	"time"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

// TopCategories is how many categories survive a collapse before the rest
// are folded into "Other".
const TopCategories = 6

// OtherCategory is the catch-all series name for collapsed categories.
const OtherCategory = "Other"

// CategoryValueFunc computes one interval's contribution to a grouped
// metric given its overlap with a bucket in milliseconds.
type CategoryValueFunc func(iv models.UsageInterval, overlapMS int64) float64

// GPUHoursValue contributes overlap hours only when a GPU class is present.
func GPUHoursValue(iv models.UsageInterval, ov int64) float64 {
	if iv.GpuClassID == nil {
		return 0
	}
	return float64(ov) / msPerHour
}

// FeesValue contributes the fee share covered by the overlap. The cutoff
// clamp is applied by the caller through the overlap itself, so the
// denominator uses the same clamped lifetime as the bucketed series.
func feesValue(cutoff time.Time) CategoryValueFunc {
	return func(iv models.UsageInterval, ov int64) float64 {
		return iv.Fee * float64(ov) / float64(durationMS(iv, cutoff))
	}
}

// CategoryValues builds a per-category, per-bucket value matrix for one
// metric. keyFn maps an interval to its category label (the sentinel for
// intervals without a GPU class is the catalog's concern). The returned
// order records first appearance, which the collapse uses to break ties.
func CategoryValues(buckets []models.TimeBucket, intervals []models.UsageInterval, cutoff time.Time, keyFn func(models.UsageInterval) string, value CategoryValueFunc) (map[string][]float64, []string) {
	series := make(map[string][]float64)
	var order []string

	for _, iv := range intervals {
		key := keyFn(iv)
		row, ok := series[key]
		if !ok {
			row = make([]float64, len(buckets))
			series[key] = row
			order = append(order, key)
		}
		for i, b := range buckets {
			ov := overlapMS(iv, b.Start, b.End, cutoff)
			if ov <= 0 {
				continue
			}
			row[i] += value(iv, ov)
		}
	}

	return series, order
}

// TopNWithOther collapses a categorical breakdown to its n largest
// categories plus a synthetic "Other" series holding everything else.
// Ranking is by whole-range sum, descending, ties broken by first-seen
// order; the ranking is recomputed from the full matrix every time, so the
// result does not depend on input arrival order. "Other" is appended only
// if it is nonzero somewhere. Every emitted series is zero-filled to the
// shared label axis.
func TopNWithOther(labels []time.Time, series map[string][]float64, order []string, n int) models.GroupedSeries {
	type ranked struct {
		name  string
		total float64
		seen  int
	}

	rankings := make([]ranked, 0, len(order))
	for i, name := range order {
		var total float64
		for _, v := range series[name] {
			total += v
		}
		rankings = append(rankings, ranked{name: name, total: total, seen: i})
	}
	sort.SliceStable(rankings, func(a, b int) bool {
		if rankings[a].total != rankings[b].total {
			return rankings[a].total > rankings[b].total
		}
		return rankings[a].seen < rankings[b].seen
	})

	out := models.GroupedSeries{Labels: labels}
	other := make([]float64, len(labels))
	otherNonzero := false

	for i, r := range rankings {
		if i < n {
			values := series[r.name]
			if values == nil {
				values = make([]float64, len(labels))
			}
			out.Series = append(out.Series, models.NamedSeries{Name: r.name, Values: values})
			continue
		}
		for j, v := range series[r.name] {
			other[j] += v
			if v != 0 {
				otherNonzero = true
			}
		}
	}

	if otherNonzero {
		out.Series = append(out.Series, models.NamedSeries{Name: OtherCategory, Values: other})
	}
	return out
}
