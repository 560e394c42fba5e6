package aggregate

import (
	"time"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
)

// AlignEarnings reconciles the interval-derived expected fees with observed
// on-chain payments on one displayed axis.
//
// The expected series is computed against the cutoff (now − offset) because
// its source pipeline lags; each bucket's displayed label is therefore
// shifted forward by the offset so both series end "now" for the consumer.
// Transactions are authoritative immediately: they are queried against now,
// unshifted, and matched into the displayed label windows. A displayed
// bucket with no matching transactions reports observed 0, never null.
func AlignEarnings(bucketed []models.BucketMetrics, txs []models.Transaction, offset, step time.Duration) []models.EarningsPoint {
	if len(bucketed) == 0 {
		return nil
	}

	points := make([]models.EarningsPoint, len(bucketed))
	for i, b := range bucketed {
		points[i] = models.EarningsPoint{
			Bucket:   b.Bucket.Add(offset),
			Expected: b.Fees,
		}
	}

	first := points[0].Bucket
	n := len(points)
	for _, tx := range txs {
		if tx.Timestamp.Before(first) {
			continue
		}
		idx := int(tx.Timestamp.Sub(first) / step)
		if idx >= n {
			// A payment on the exact upper boundary attaches to the
			// final displayed bucket.
			if tx.Timestamp.Sub(first) > time.Duration(n)*step {
				continue
			}
			idx = n - 1
		}
		points[idx].Observed += tx.Amount
		points[idx].ObservedCount++
	}

	return points
}
