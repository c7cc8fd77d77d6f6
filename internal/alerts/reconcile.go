package alerts

import (
	"math"
	"sort"
	"time"
)

// ActionType is the lifecycle decision for one candidate/alert pair.
type ActionType string

const (
	// ActionCreate inserts a new alert from a candidate with no match.
	ActionCreate ActionType = "create"
	// ActionUpdate rewrites the matched alert from the candidate.
	ActionUpdate ActionType = "update"
	// ActionExpire deletes an alert whose window already passed, silently.
	ActionExpire ActionType = "expire"
	// ActionRetract deletes an alert whose window evaporated before it occurred.
	ActionRetract ActionType = "retract"
	// ActionNone leaves the store untouched.
	ActionNone ActionType = "none"
)

// Reason qualifies why an action was produced.
type Reason string

const (
	ReasonNewPeriod Reason = "new_period"
	ReasonExtended  Reason = "period_extended"
	ReasonShortened Reason = "period_shortened"
	ReasonRefined   Reason = "period_refined"
	ReasonEnded     Reason = "period_ended"
	ReasonRetracted Reason = "period_retracted"
	ReasonUnchanged Reason = "no_change"
)

// minTempTolerance absorbs provider jitter when comparing minimum temperatures.
const minTempTolerance = 0.1

// Options tune the reconciliation policy.
type Options struct {
	// MinChange is the shortening below which no notification is sent. Zero means
	// every shortening notifies; negative falls back to the 6h default.
	MinChange time.Duration
	// SampleInterval is the forecast cadence; candidates within one interval of an
	// alert count as adjacent and therefore the same episode.
	SampleInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MinChange < 0 {
		o.MinChange = 6 * time.Hour
	}
	if o.SampleInterval <= 0 {
		o.SampleInterval = time.Hour
	}
	return o
}

// Action is one reconciliation outcome. It carries the candidate period and the
// previous alert state so the dispatcher can render a message without re-querying
// the store.
type Action struct {
	Type      ActionType
	Reason    Reason
	Threshold float64
	Period    *ColdPeriod
	Previous  *Alert
	Notify    bool

	HoursExtended  float64
	HoursShortened float64
}

// Reconcile diffs detected candidate periods against persisted alerts and decides,
// per the anti-spam policy, which lifecycle actions to take. now is the current
// run's timestamp, passed explicitly so boundary cases stay deterministic in tests.
func Reconcile(candidates []ColdPeriod, existing []Alert, now time.Time, opts Options) []Action {
	opts = opts.withDefaults()

	byThresholdNew := make(map[float64][]ColdPeriod)
	for _, p := range candidates {
		byThresholdNew[p.Threshold] = append(byThresholdNew[p.Threshold], p)
	}
	byThresholdOld := make(map[float64][]Alert)
	for _, a := range existing {
		byThresholdOld[a.Threshold] = append(byThresholdOld[a.Threshold], a)
	}

	thresholds := make([]float64, 0, len(byThresholdNew)+len(byThresholdOld))
	seen := make(map[float64]bool)
	for t := range byThresholdNew {
		if !seen[t] {
			thresholds = append(thresholds, t)
			seen[t] = true
		}
	}
	for t := range byThresholdOld {
		if !seen[t] {
			thresholds = append(thresholds, t)
			seen[t] = true
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(thresholds)))

	var actions []Action
	for _, threshold := range thresholds {
		news := byThresholdNew[threshold]
		olds := byThresholdOld[threshold]
		sort.Slice(news, func(i, j int) bool { return news[i].Start.Before(news[j].Start) })
		sort.Slice(olds, func(i, j int) bool { return olds[i].Start.Before(olds[j].Start) })

		matched := make(map[int64]bool)

		for i := range news {
			period := news[i]
			var match *Alert
			for j := range olds {
				if matched[olds[j].ID] {
					continue
				}
				if overlapOrAdjacent(period, olds[j], opts.SampleInterval) {
					match = &olds[j]
					break
				}
			}

			if match == nil {
				actions = append(actions, Action{
					Type:      ActionCreate,
					Reason:    ReasonNewPeriod,
					Threshold: threshold,
					Period:    &news[i],
					Notify:    true,
				})
				continue
			}

			matched[match.ID] = true
			actions = append(actions, evaluate(period, *match, opts))
		}

		for j := range olds {
			if matched[olds[j].ID] {
				continue
			}
			act := Action{
				Threshold: threshold,
				Previous:  &olds[j],
			}
			if olds[j].End.Before(now) {
				// the episode concluded as predicted
				act.Type = ActionExpire
				act.Reason = ReasonEnded
			} else {
				act.Type = ActionRetract
				act.Reason = ReasonRetracted
				act.Notify = true
			}
			actions = append(actions, act)
		}
	}

	return actions
}

// evaluate applies the reconcile sub-policy for a matched candidate/alert pair. The
// dominant signal is the end timestamp: any lengthening notifies, shortening only
// when it reaches MinChange, and magnitude-only refinements stay silent.
func evaluate(period ColdPeriod, alert Alert, opts Options) Action {
	act := Action{
		Threshold: period.Threshold,
		Period:    &period,
		Previous:  &alert,
	}

	switch {
	case period.End.After(alert.End):
		act.Type = ActionUpdate
		act.Reason = ReasonExtended
		act.Notify = true
		act.HoursExtended = period.End.Sub(alert.End).Hours()
	case period.End.Before(alert.End):
		delta := alert.End.Sub(period.End)
		act.Type = ActionUpdate
		act.Reason = ReasonShortened
		act.HoursShortened = delta.Hours()
		act.Notify = delta >= opts.MinChange
	default:
		if period.Start.Equal(alert.Start) &&
			period.MinTempAt.Equal(alert.MinTempAt) &&
			math.Abs(period.MinTemp-alert.MinTemp) < minTempTolerance {
			act.Type = ActionNone
			act.Reason = ReasonUnchanged
			return act
		}
		// same end: the stored alert must stay accurate, but neither duration nor
		// severity tier changed, so no notification
		act.Type = ActionUpdate
		act.Reason = ReasonRefined
	}

	return act
}

func overlapOrAdjacent(p ColdPeriod, a Alert, interval time.Duration) bool {
	return !p.Start.After(a.End.Add(interval)) && !a.Start.After(p.End.Add(interval))
}
