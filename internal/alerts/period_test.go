package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plant-cold-alerts/internal/forecast"
)

var t0 = time.Date(2026, time.November, 4, 18, 0, 0, 0, time.UTC)

func hourlySamples(start time.Time, temps ...float64) []forecast.Sample {
	samples := make([]forecast.Sample, len(temps))
	for i, temp := range temps {
		samples[i] = forecast.Sample{
			Timestamp:   start.Add(time.Duration(i) * time.Hour),
			Temperature: temp,
		}
	}
	return samples
}

func TestDetectEmptyInput(t *testing.T) {
	assert.Empty(t, Detect(nil, 0.0))
	assert.Empty(t, Detect([]forecast.Sample{}, 3.0))
}

func TestDetectAllAboveThreshold(t *testing.T) {
	samples := hourlySamples(t0, 5, 6, 7, 8)
	assert.Empty(t, Detect(samples, 3.0))
}

func TestDetectTwoDistinctFreezePeriods(t *testing.T) {
	samples := hourlySamples(t0, -2, 1, 3, -1, -3)

	periods := Detect(samples, 0.0)
	require.Len(t, periods, 2)

	assert.Equal(t, t0, periods[0].Start)
	assert.Equal(t, t0, periods[0].End)
	assert.Equal(t, -2.0, periods[0].MinTemp)
	assert.Equal(t, t0, periods[0].MinTempAt)

	assert.Equal(t, t0.Add(3*time.Hour), periods[1].Start)
	assert.Equal(t, t0.Add(4*time.Hour), periods[1].End)
	assert.Equal(t, -3.0, periods[1].MinTemp)
	assert.Equal(t, t0.Add(4*time.Hour), periods[1].MinTempAt)
}

func TestDetectSingleSamplePeriod(t *testing.T) {
	samples := hourlySamples(t0, 4, -1, 4)

	periods := Detect(samples, 0.0)
	require.Len(t, periods, 1)
	assert.Equal(t, periods[0].Start, periods[0].End)
	assert.Equal(t, periods[0].Start, periods[0].MinTempAt)
}

func TestDetectOpenPeriodAtHorizonEnd(t *testing.T) {
	samples := hourlySamples(t0, 5, 2, 1, 0.5)

	periods := Detect(samples, 3.0)
	require.Len(t, periods, 1)
	assert.Equal(t, t0.Add(1*time.Hour), periods[0].Start)
	assert.Equal(t, t0.Add(3*time.Hour), periods[0].End)
	assert.Equal(t, 0.5, periods[0].MinTemp)
}

func TestDetectStrictComparison(t *testing.T) {
	// a sample exactly at the threshold is not cold
	samples := hourlySamples(t0, 3.0, 2.9, 3.0)

	periods := Detect(samples, 3.0)
	require.Len(t, periods, 1)
	assert.Equal(t, t0.Add(time.Hour), periods[0].Start)
	assert.Equal(t, t0.Add(time.Hour), periods[0].End)
}

func TestDetectMinTieKeepsEarliest(t *testing.T) {
	samples := hourlySamples(t0, -1, -2, -2, -1)

	periods := Detect(samples, 0.0)
	require.Len(t, periods, 1)
	assert.Equal(t, -2.0, periods[0].MinTemp)
	assert.Equal(t, t0.Add(1*time.Hour), periods[0].MinTempAt)
}

func TestDetectThresholdsIndependent(t *testing.T) {
	samples := hourlySamples(t0, 2, -1, 2)

	vigilance := Detect(samples, 3.0)
	freeze := Detect(samples, 0.0)

	// the freeze excursion shows up in both scans, never suppressed
	require.Len(t, vigilance, 1)
	require.Len(t, freeze, 1)
	assert.Equal(t, t0, vigilance[0].Start)
	assert.Equal(t, t0.Add(2*time.Hour), vigilance[0].End)
	assert.Equal(t, t0.Add(time.Hour), freeze[0].Start)
	assert.Equal(t, t0.Add(time.Hour), freeze[0].End)
}

func TestDetectCoverageAndExclusivity(t *testing.T) {
	temps := []float64{1, -1, -2, 4, 4, -0.5, 2, -3, -3, -1, 6, -2}
	samples := hourlySamples(t0, temps...)
	threshold := 0.0

	periods := Detect(samples, threshold)

	for _, s := range samples {
		covering := 0
		for _, p := range periods {
			if !s.Timestamp.Before(p.Start) && !s.Timestamp.After(p.End) {
				covering++
			}
		}
		if s.Temperature < threshold {
			assert.Equal(t, 1, covering, "cold sample at %s must belong to exactly one period", s.Timestamp)
		} else {
			assert.Zero(t, covering, "warm sample at %s must not be covered", s.Timestamp)
		}
	}

	// no two periods adjacent: a warm sample separates consecutive periods
	for i := 1; i < len(periods); i++ {
		gap := periods[i].Start.Sub(periods[i-1].End)
		assert.GreaterOrEqual(t, gap, 2*time.Hour, "periods %d and %d would have been merged", i-1, i)
	}

	for _, p := range periods {
		assert.False(t, p.MinTempAt.Before(p.Start))
		assert.False(t, p.MinTempAt.After(p.End))
	}
}

func TestColdPeriodDuration(t *testing.T) {
	p := ColdPeriod{Start: t0, End: t0.Add(5 * time.Hour)}
	assert.Equal(t, 5*time.Hour, p.Duration())

	inverted := ColdPeriod{Start: t0, End: t0.Add(-time.Hour)}
	assert.Equal(t, time.Duration(0), inverted.Duration())
}
