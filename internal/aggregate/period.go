package aggregate

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-salad/salad-golem-stats-sub000/internal/models"
	"github.com/cory-salad/salad-golem-stats-sub000/pkg/utils"
)

// ErrInvalidPeriod is returned for a period tag outside the fixed enumeration.
var ErrInvalidPeriod = errors.New("invalid period")

// Granularity is the bucket width of a series.
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
)

// Step returns the bucket width.
func (g Granularity) Step() time.Duration {
	if g == GranularityHourly {
		return time.Hour
	}
	return 24 * time.Hour
}

// Period is one of the fixed reporting windows.
type Period string

const (
	Period6H  Period = "6h"
	Period24H Period = "24h"
	Period7D  Period = "7d"
	Period30D Period = "30d"
	Period90D Period = "90d"
	PeriodAll Period = "all"
)

// Periods lists every supported period, in warm order.
var Periods = []Period{Period6H, Period24H, Period7D, Period30D, Period90D, PeriodAll}

var lookbacks = map[Period]time.Duration{
	Period6H:  6 * time.Hour,
	Period24H: 24 * time.Hour,
	Period7D:  7 * 24 * time.Hour,
	Period30D: 30 * 24 * time.Hour,
	Period90D: 90 * 24 * time.Hour,
}

// ParsePeriod validates a period tag from a request or config.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := lookbacks[p]; ok || p == PeriodAll {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Lookback returns the period's window length. ok is false for the
// unbounded period, whose lower bound comes from the data instead.
func (p Period) Lookback() (d time.Duration, ok bool) {
	d, ok = lookbacks[p]
	return d, ok
}

// Hourly buckets are only produced for lookbacks up to one week; anything
// longer gets daily buckets to keep series sizes bounded.
const hourlyMaxLookback = 168 * time.Hour

// Granularity resolves the bucket width for the period. The unbounded
// period is always daily.
func (p Period) Granularity() Granularity {
	if lb, ok := p.Lookback(); ok && lb <= hourlyMaxLookback {
		return GranularityHourly
	}
	return GranularityDaily
}

// Plan resolves a period into its granularity and an ascending, contiguous
// bucket grid covering [rangeStart, cutoff]. The grid is aligned to UTC
// bucket boundaries; the final bucket may extend past the cutoff, which the
// overlap math clamps. earliest is the earliest interval start known to the
// store and is only consulted for the unbounded period; a zero earliest
// falls back to a single bucket around the cutoff.
func Plan(period Period, cutoff time.Time, earliest time.Time) (Granularity, []models.TimeBucket, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return "", nil, err
	}

	gran := period.Granularity()
	step := gran.Step()

	var rangeStart time.Time
	if lb, ok := period.Lookback(); ok {
		rangeStart = cutoff.Add(-lb)
	} else if !earliest.IsZero() {
		rangeStart = earliest
	} else {
		rangeStart = cutoff
	}

	var buckets []models.TimeBucket
	end := cutoff.UTC()
	for t := utils.TruncateUTC(rangeStart, step); t.Before(end) || len(buckets) == 0; t = t.Add(step) {
		buckets = append(buckets, models.TimeBucket{Start: t, End: t.Add(step)})
	}

	return gran, buckets, nil
}
