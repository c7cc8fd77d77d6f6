package alerts

import (
	"time"

	"plant-cold-alerts/internal/forecast"
)

// ColdPeriod is a maximal contiguous run of forecast samples strictly below a
// threshold. Start <= MinTempAt <= End always holds; End is the last cold sample,
// not the end of the forecast window.
type ColdPeriod struct {
	Threshold float64
	Start     time.Time
	End       time.Time
	MinTemp   float64
	MinTempAt time.Time
}

// Duration is the span between the first and last cold sample.
func (p ColdPeriod) Duration() time.Duration {
	if p.End.Before(p.Start) {
		return 0
	}
	return p.End.Sub(p.Start)
}

// Alert is the persisted belief about an ongoing or upcoming cold episode for one
// threshold.
type Alert struct {
	ID             int64
	Threshold      float64
	Start          time.Time
	End            time.Time
	MinTemp        float64
	MinTempAt      time.Time
	CreatedAt      time.Time
	LastNotifiedAt *time.Time
}

// Period returns the cold period the alert currently describes.
func (a Alert) Period() ColdPeriod {
	return ColdPeriod{
		Threshold: a.Threshold,
		Start:     a.Start,
		End:       a.End,
		MinTemp:   a.MinTemp,
		MinTempAt: a.MinTempAt,
	}
}

// Detect scans a chronologically ordered sample sequence once and returns the
// maximal set of non-overlapping cold periods for the given threshold. Adjacent
// qualifying samples merge into one period; an accumulator still open at the end of
// the horizon is emitted as-is, since the system must not wait for confirmed
// recovery before warning.
func Detect(samples []forecast.Sample, threshold float64) []ColdPeriod {
	var periods []ColdPeriod
	var open *ColdPeriod

	for _, s := range samples {
		if s.Temperature < threshold {
			if open == nil {
				open = &ColdPeriod{
					Threshold: threshold,
					Start:     s.Timestamp,
					End:       s.Timestamp,
					MinTemp:   s.Temperature,
					MinTempAt: s.Timestamp,
				}
				continue
			}
			open.End = s.Timestamp
			// strict <: ties keep the earliest occurrence
			if s.Temperature < open.MinTemp {
				open.MinTemp = s.Temperature
				open.MinTempAt = s.Timestamp
			}
			continue
		}
		if open != nil {
			periods = append(periods, *open)
			open = nil
		}
	}

	if open != nil {
		periods = append(periods, *open)
	}
	return periods
}
