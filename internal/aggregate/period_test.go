package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods {
		parsed, err := ParsePeriod(string(p))
		require.NoError(t, err)
		require.Equal(t, p, parsed)
	}

	_, err := ParsePeriod("fortnight")
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = ParsePeriod("")
	require.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGranularityBoundary(t *testing.T) {
	// 7d is exactly 168h and must stay hourly; the next period up is daily.
	lb, ok := Period7D.Lookback()
	require.True(t, ok)
	require.Equal(t, 168*time.Hour, lb)
	require.Equal(t, GranularityHourly, Period7D.Granularity())

	require.Equal(t, GranularityDaily, Period30D.Granularity())
	require.Equal(t, GranularityDaily, Period90D.Granularity())
	require.Equal(t, GranularityDaily, PeriodAll.Granularity())

	require.Equal(t, GranularityHourly, Period6H.Granularity())
	require.Equal(t, GranularityHourly, Period24H.Granularity())
}

func TestPlanHourlyGrid(t *testing.T) {
	cutoff := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	gran, buckets, err := Plan(Period6H, cutoff, time.Time{})
	require.NoError(t, err)
	require.Equal(t, GranularityHourly, gran)

	// Covers [cutoff-6h, cutoff] on hour boundaries: 08:00 .. 14:00.
	require.Len(t, buckets, 7)
	require.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), buckets[0].Start)
	require.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), buckets[len(buckets)-1].Start)

	// Ascending and contiguous.
	for i := 1; i < len(buckets); i++ {
		require.Equal(t, buckets[i-1].End, buckets[i].Start)
		require.True(t, buckets[i].Start.After(buckets[i-1].Start))
	}
}

func TestPlanDailyGrid(t *testing.T) {
	cutoff := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	gran, buckets, err := Plan(Period30D, cutoff, time.Time{})
	require.NoError(t, err)
	require.Equal(t, GranularityDaily, gran)

	require.Equal(t, time.Date(2025, 2, 8, 0, 0, 0, 0, time.UTC), buckets[0].Start)
	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), buckets[len(buckets)-1].Start)
	require.Len(t, buckets, 31)
	for _, b := range buckets {
		require.Equal(t, 24*time.Hour, b.End.Sub(b.Start))
	}
}

func TestPlanUnboundedDerivesStartFromData(t *testing.T) {
	cutoff := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
	earliest := time.Date(2025, 3, 2, 9, 45, 0, 0, time.UTC)

	gran, buckets, err := Plan(PeriodAll, cutoff, earliest)
	require.NoError(t, err)
	require.Equal(t, GranularityDaily, gran)
	require.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), buckets[0].Start)
	require.Len(t, buckets, 9)
}

func TestPlanUnboundedEmptyStore(t *testing.T) {
	cutoff := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	_, buckets, err := Plan(PeriodAll, cutoff, time.Time{})
	require.NoError(t, err)
	require.NotEmpty(t, buckets)
}

func TestPlanInvalidPeriod(t *testing.T) {
	_, _, err := Plan(Period("1y"), time.Now(), time.Time{})
	require.ErrorIs(t, err, ErrInvalidPeriod)
}
