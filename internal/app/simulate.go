package app

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"plant-cold-alerts/internal/forecast"
	"plant-cold-alerts/internal/service"
)

// SimulateOptions describe a mocked forecast run.
type SimulateOptions struct {
	// Temperatures becomes a literal hourly sample sequence in place of the
	// provider call.
	Temperatures []float64
	Start        time.Time
	Step         time.Duration
	DryRun       bool
	// UseStore reconciles against the real database instead of an empty state.
	UseStore bool
}

// Simulate runs detection and reconciliation end to end against a literal
// temperature sequence, for deterministic testing of the pipeline.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Step <= 0 {
		opts.Step = time.Hour
	}
	start := opts.Start
	if start.IsZero() {
		start = a.Clock.Now().UTC().Truncate(opts.Step)
	}

	samples := make([]forecast.Sample, 0, len(opts.Temperatures))
	for i, temp := range opts.Temperatures {
		samples = append(samples, forecast.Sample{
			Timestamp:   start.Add(time.Duration(i) * opts.Step),
			Temperature: temp,
		})
	}

	svcOpts, err := a.serviceOptions(opts.DryRun)
	if err != nil {
		return err
	}
	// the literal sequence is authoritative; never mix in a cached fetch
	svcOpts.CacheTTL = 0
	svcOpts.SampleInterval = opts.Step

	var store service.Store
	if opts.UseStore {
		s, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.New("database.dsn not configured; drop --use-store for a transient run")
		}
		defer closeStore()
		store = s
	}

	// freeze the clock at the sequence start so horizon and expiry checks are
	// reproducible regardless of when the command runs
	clock := clockwork.NewFakeClockAt(start)

	svc := service.New(svcOpts, staticFetcher{samples: samples}, store, a.newNotifiers(), clock, a.Logger)
	return svc.RunOnce(ctx)
}

type staticFetcher struct {
	samples []forecast.Sample
}

func (s staticFetcher) Fetch(ctx context.Context) ([]forecast.Sample, error) {
	return s.samples, nil
}

var _ forecast.Fetcher = staticFetcher{}
