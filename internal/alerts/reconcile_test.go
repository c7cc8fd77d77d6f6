package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2026, time.November, 5, 7, 0, 0, 0, time.UTC)

func period(threshold float64, start time.Time, hours int, minTemp float64) ColdPeriod {
	end := start.Add(time.Duration(hours) * time.Hour)
	return ColdPeriod{
		Threshold: threshold,
		Start:     start,
		End:       end,
		MinTemp:   minTemp,
		MinTempAt: start,
	}
}

func alertFrom(id int64, p ColdPeriod) Alert {
	return Alert{
		ID:        id,
		Threshold: p.Threshold,
		Start:     p.Start,
		End:       p.End,
		MinTemp:   p.MinTemp,
		MinTempAt: p.MinTempAt,
		CreatedAt: runTime.Add(-12 * time.Hour),
	}
}

func TestReconcileNothingToDo(t *testing.T) {
	assert.Empty(t, Reconcile(nil, nil, runTime, Options{}))
}

func TestReconcileCreateAlwaysNotifies(t *testing.T) {
	candidate := period(0.0, runTime.Add(2*time.Hour), 5, -2.5)

	actions := Reconcile([]ColdPeriod{candidate}, nil, runTime, Options{})
	require.Len(t, actions, 1)

	act := actions[0]
	assert.Equal(t, ActionCreate, act.Type)
	assert.Equal(t, ReasonNewPeriod, act.Reason)
	assert.True(t, act.Notify)
	assert.Equal(t, 0.0, act.Threshold)
	require.NotNil(t, act.Period)
	assert.Equal(t, candidate, *act.Period)
}

func TestReconcileUnchangedIsNoOp(t *testing.T) {
	candidate := period(3.0, runTime.Add(2*time.Hour), 8, 1.2)
	existing := alertFrom(7, candidate)

	actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, Options{})
	require.Len(t, actions, 1)
	assert.Equal(t, ActionNone, actions[0].Type)
	assert.Equal(t, ReasonUnchanged, actions[0].Reason)
	assert.False(t, actions[0].Notify)

	// reconciling the same state twice never produces a second notification
	again := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime.Add(time.Hour), Options{})
	require.Len(t, again, 1)
	assert.False(t, again[0].Notify)
}

func TestReconcileLengtheningAlwaysNotifies(t *testing.T) {
	existing := alertFrom(1, period(3.0, runTime, 10, 1.0))
	candidate := period(3.0, runTime, 11, 1.0) // one hour longer

	actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, Options{})
	require.Len(t, actions, 1)

	act := actions[0]
	assert.Equal(t, ActionUpdate, act.Type)
	assert.Equal(t, ReasonExtended, act.Reason)
	assert.True(t, act.Notify)
	assert.InDelta(t, 1.0, act.HoursExtended, 1e-9)
}

func TestReconcileShorteningBoundary(t *testing.T) {
	opts := Options{MinChange: 6 * time.Hour}

	cases := []struct {
		name       string
		shortenBy  int
		wantNotify bool
	}{
		{"at threshold notifies", 6, true},
		{"below threshold stays silent", 5, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			existing := alertFrom(1, period(3.0, runTime, 20, 1.0))
			candidate := period(3.0, runTime, 20-tc.shortenBy, 1.0)

			actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, opts)
			require.Len(t, actions, 1)

			act := actions[0]
			// the stored alert must stay accurate either way
			assert.Equal(t, ActionUpdate, act.Type)
			assert.Equal(t, ReasonShortened, act.Reason)
			assert.Equal(t, tc.wantNotify, act.Notify)
			assert.InDelta(t, float64(tc.shortenBy), act.HoursShortened, 1e-9)
		})
	}
}

func TestReconcileColderMinSameEndStaysSilent(t *testing.T) {
	existing := alertFrom(1, period(0.0, runTime, 10, -1.0))
	candidate := period(0.0, runTime, 10, -4.0)
	candidate.MinTempAt = candidate.Start.Add(3 * time.Hour)

	actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, Options{})
	require.Len(t, actions, 1)

	act := actions[0]
	assert.Equal(t, ActionUpdate, act.Type)
	assert.Equal(t, ReasonRefined, act.Reason)
	assert.False(t, act.Notify)
}

func TestReconcileExpirePastEndIsSilent(t *testing.T) {
	stale := alertFrom(4, period(0.0, runTime.Add(-30*time.Hour), 10, -2.0)) // ended 20h ago

	actions := Reconcile(nil, []Alert{stale}, runTime, Options{})
	require.Len(t, actions, 1)
	assert.Equal(t, ActionExpire, actions[0].Type)
	assert.Equal(t, ReasonEnded, actions[0].Reason)
	assert.False(t, actions[0].Notify)
	require.NotNil(t, actions[0].Previous)
	assert.Equal(t, int64(4), actions[0].Previous.ID)
}

func TestReconcileRetractionNotifies(t *testing.T) {
	upcoming := alertFrom(4, period(0.0, runTime.Add(5*time.Hour), 10, -2.0))

	actions := Reconcile(nil, []Alert{upcoming}, runTime, Options{})
	require.Len(t, actions, 1)
	assert.Equal(t, ActionRetract, actions[0].Type)
	assert.Equal(t, ReasonRetracted, actions[0].Reason)
	assert.True(t, actions[0].Notify)
}

func TestReconcileDisjointCandidateIsNewAlert(t *testing.T) {
	existing := alertFrom(9, period(0.0, runTime.Add(2*time.Hour), 4, -1.0))
	// far beyond adjacency of the existing episode
	candidate := period(0.0, runTime.Add(20*time.Hour), 4, -2.0)

	actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, Options{SampleInterval: time.Hour})
	require.Len(t, actions, 2)

	assert.Equal(t, ActionCreate, actions[0].Type)
	assert.True(t, actions[0].Notify)
	assert.Equal(t, ActionRetract, actions[1].Type)
	assert.Equal(t, int64(9), actions[1].Previous.ID)
}

func TestReconcileAdjacentWithinOneIntervalMatches(t *testing.T) {
	existing := alertFrom(2, period(0.0, runTime, 4, -1.0))
	// starts exactly one sampling interval after the stored end
	candidate := period(0.0, existing.End.Add(time.Hour), 3, -1.5)

	actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, Options{SampleInterval: time.Hour})
	require.Len(t, actions, 1)
	assert.Equal(t, ActionUpdate, actions[0].Type)
	assert.Equal(t, ReasonExtended, actions[0].Reason)
	assert.True(t, actions[0].Notify)
}

func TestReconcileThresholdsIndependent(t *testing.T) {
	vigilance := period(3.0, runTime.Add(time.Hour), 10, -2.0)
	freeze := period(0.0, runTime.Add(3*time.Hour), 4, -2.0)

	actions := Reconcile([]ColdPeriod{vigilance, freeze}, nil, runTime, Options{})
	require.Len(t, actions, 2)

	// vigilance first (descending threshold order), both notified independently
	assert.Equal(t, 3.0, actions[0].Threshold)
	assert.Equal(t, 0.0, actions[1].Threshold)
	for _, act := range actions {
		assert.Equal(t, ActionCreate, act.Type)
		assert.True(t, act.Notify)
	}
}

func TestReconcileZeroMinChangeNotifiesEveryShortening(t *testing.T) {
	existing := alertFrom(1, period(3.0, runTime, 20, 1.0))
	candidate := period(3.0, runTime, 19, 1.0) // one hour shorter

	actions := Reconcile([]ColdPeriod{candidate}, []Alert{existing}, runTime, Options{MinChange: 0})
	require.Len(t, actions, 1)
	assert.Equal(t, ReasonShortened, actions[0].Reason)
	assert.True(t, actions[0].Notify, "zero min-change means every shortening notifies")
}

func TestReconcileMultipleExistingSameThreshold(t *testing.T) {
	first := alertFrom(1, period(0.0, runTime.Add(-20*time.Hour), 4, -1.0)) // already over
	second := alertFrom(2, period(0.0, runTime.Add(10*time.Hour), 6, -2.0))
	unchanged := second.Period()

	actions := Reconcile([]ColdPeriod{unchanged}, []Alert{first, second}, runTime, Options{})
	require.Len(t, actions, 2)

	assert.Equal(t, ActionNone, actions[0].Type)
	assert.Equal(t, ActionExpire, actions[1].Type)
	assert.Equal(t, int64(1), actions[1].Previous.ID)
}
