package forecast

import (
	"sort"
	"time"
)

// Normalize restricts raw provider samples to the anticipation horizon and the
// active season, deduplicates by timestamp (last write wins), and sorts ascending.
// An empty result is reported as ErrDataUnavailable so callers skip the run instead
// of treating it as an alert-clearing forecast.
func Normalize(raw []Sample, now time.Time, horizon time.Duration, season SeasonWindow) ([]Sample, error) {
	cutoff := now.Add(horizon)

	byTime := make(map[time.Time]Sample, len(raw))
	for _, s := range raw {
		ts := s.Timestamp.UTC()
		if ts.Before(now) || ts.After(cutoff) {
			continue
		}
		if !season.Contains(ts) {
			continue
		}
		s.Timestamp = ts
		byTime[ts] = s
	}

	if len(byTime) == 0 {
		return nil, ErrDataUnavailable
	}

	out := make([]Sample, 0, len(byTime))
	for _, s := range byTime {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
