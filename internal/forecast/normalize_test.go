package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allYear(t *testing.T) SeasonWindow {
	t.Helper()
	window, err := ParseSeasonWindow("01-01", "12-31", time.UTC)
	require.NoError(t, err)
	return window
}

func TestNormalizeFiltersHorizon(t *testing.T) {
	now := time.Date(2026, time.November, 4, 12, 0, 0, 0, time.UTC)
	raw := []Sample{
		{Timestamp: now.Add(-time.Hour), Temperature: 1},   // already past
		{Timestamp: now, Temperature: 2},                   // boundary, kept
		{Timestamp: now.Add(48 * time.Hour), Temperature: 3},
		{Timestamp: now.Add(49 * time.Hour), Temperature: 4}, // beyond horizon
	}

	samples, err := Normalize(raw, now, 48*time.Hour, allYear(t))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 2.0, samples[0].Temperature)
	assert.Equal(t, 3.0, samples[1].Temperature)
}

func TestNormalizeDedupesLastWinsAndSorts(t *testing.T) {
	now := time.Date(2026, time.November, 4, 12, 0, 0, 0, time.UTC)
	raw := []Sample{
		{Timestamp: now.Add(2 * time.Hour), Temperature: 5},
		{Timestamp: now.Add(1 * time.Hour), Temperature: 3},
		{Timestamp: now.Add(2 * time.Hour), Temperature: 6}, // repeat, last wins
	}

	samples, err := Normalize(raw, now, 48*time.Hour, allYear(t))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 3.0, samples[0].Temperature)
	assert.Equal(t, 6.0, samples[1].Temperature)
	assert.True(t, samples[0].Timestamp.Before(samples[1].Timestamp))
}

func TestNormalizeSeasonFilter(t *testing.T) {
	window, err := ParseSeasonWindow("10-15", "05-15", time.UTC)
	require.NoError(t, err)

	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	raw := []Sample{
		{Timestamp: now.Add(2 * time.Hour), Temperature: 1},  // Oct 14, out of season
		{Timestamp: now.Add(13 * time.Hour), Temperature: 2}, // Oct 15, in season
	}

	samples, err := Normalize(raw, now, 48*time.Hour, window)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 2.0, samples[0].Temperature)
}

func TestNormalizeEmptyIsDataUnavailable(t *testing.T) {
	now := time.Date(2026, time.November, 4, 12, 0, 0, 0, time.UTC)

	_, err := Normalize(nil, now, 48*time.Hour, allYear(t))
	assert.ErrorIs(t, err, ErrDataUnavailable)

	stale := []Sample{{Timestamp: now.Add(-2 * time.Hour), Temperature: 1}}
	_, err = Normalize(stale, now, 48*time.Hour, allYear(t))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestSeasonWindowWrapsYearBoundary(t *testing.T) {
	window, err := ParseSeasonWindow("10-15", "05-15", time.UTC)
	require.NoError(t, err)

	assert.True(t, window.Contains(time.Date(2026, time.December, 25, 0, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, window.Contains(time.Date(2026, time.May, 15, 23, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2026, time.July, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, window.Contains(time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)))
}

func TestSeasonWindowTimezoneMatters(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	window, err := ParseSeasonWindow("10-15", "05-15", paris)
	require.NoError(t, err)

	// 23:30 UTC on Oct 14 is already Oct 15 in Paris
	assert.True(t, window.Contains(time.Date(2026, time.October, 14, 23, 30, 0, 0, time.UTC)))
}

func TestParseMonthDayRejectsGarbage(t *testing.T) {
	_, err := ParseMonthDay("15-10-2026")
	assert.Error(t, err)
}

func TestSeasonWindowZeroValueComparesInUTC(t *testing.T) {
	// a zero-value window matches nothing and must not panic on a nil location
	var window SeasonWindow
	assert.False(t, window.Contains(time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)))
}
