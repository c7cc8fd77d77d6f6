package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"plant-cold-alerts/internal/alerting"
	"plant-cold-alerts/internal/alerts"
	"plant-cold-alerts/internal/forecast"
	"plant-cold-alerts/internal/storage"
)

// Options parameterise one detection/reconciliation run.
type Options struct {
	Thresholds     []float64
	FreezeAt       float64
	Horizon        time.Duration
	Season         forecast.SeasonWindow
	MinChange      time.Duration
	SampleInterval time.Duration
	CacheTTL       time.Duration
	DryRun         bool
}

// Store opens the transaction that scopes one run's reads and writes.
type Store interface {
	Begin(ctx context.Context) (storage.AlertTx, error)
}

// Service executes the batch workflow: fetch, detect, reconcile, persist, dispatch.
type Service struct {
	fetcher   forecast.Fetcher
	store     Store
	notifiers []alerting.Notifier
	clock     clockwork.Clock
	logger    zerolog.Logger
	opts      Options
}

// New constructs the workflow service. store may be nil for transient runs
// (simulate); notifiers may be empty when no channel is configured.
func New(opts Options, fetcher forecast.Fetcher, store Store, notifiers []alerting.Notifier, clock clockwork.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		fetcher:   fetcher,
		store:     store,
		notifiers: notifiers,
		clock:     clock,
		logger:    logger.With().Str("component", "service").Logger(),
		opts:      opts,
	}
}

// RunOnce performs one complete scheduled run. A forecast failure skips the run and
// returns nil (the next scheduled run is the retry); a storage failure aborts with
// an error before any notification is sent; delivery failures are logged only,
// since the notify decision is already committed.
func (s *Service) RunOnce(ctx context.Context) error {
	now := s.clock.Now().UTC()
	logger := s.logger.With().Time("run", now).Logger()

	var tx storage.AlertTx
	if s.store != nil {
		var err error
		tx, err = s.store.Begin(ctx)
		if err != nil {
			return fmt.Errorf("store unavailable: %w", err)
		}
		defer tx.Rollback(ctx)
	}

	samples, err := s.loadForecast(ctx, tx, now)
	if err != nil {
		if errors.Is(err, forecast.ErrDataUnavailable) {
			// skip this run; stale alerts are never expired on a failed fetch
			logger.Warn().Err(err).Msg("forecast unavailable, skipping run")
			return nil
		}
		return err
	}

	var existing []alerts.Alert
	if tx != nil {
		existing, err = tx.ListCurrentAlerts(ctx)
		if err != nil {
			return fmt.Errorf("store unavailable: %w", err)
		}
	}

	var candidates []alerts.ColdPeriod
	for _, threshold := range s.opts.Thresholds {
		periods := alerts.Detect(samples, threshold)
		logger.Debug().Float64("threshold", threshold).Int("periods", len(periods)).Msg("detection pass complete")
		candidates = append(candidates, periods...)
	}

	actions := alerts.Reconcile(candidates, existing, now, alerts.Options{
		MinChange:      s.opts.MinChange,
		SampleInterval: s.opts.SampleInterval,
	})

	messages, err := s.applyActions(ctx, tx, actions, now, logger)
	if err != nil {
		return err
	}

	if s.opts.DryRun {
		logger.Info().Int("actions", len(actions)).Int("notifications", len(messages)).
			Msg("dry-run complete, discarding store changes")
		return nil
	}

	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("store unavailable: %w", err)
		}
	}

	s.dispatch(ctx, messages, logger)
	return nil
}

// loadForecast returns the normalized sample sequence for this run, reusing the
// cached snapshot when it is fresh enough to skip a provider call.
func (s *Service) loadForecast(ctx context.Context, tx storage.AlertStore, now time.Time) ([]forecast.Sample, error) {
	if tx != nil && s.opts.CacheTTL > 0 {
		entry, err := tx.GetForecastCache(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("forecast cache read failed, fetching live")
		} else if entry != nil && now.Sub(entry.FetchedAt) < s.opts.CacheTTL {
			samples, normErr := forecast.Normalize(entry.Samples, now, s.opts.Horizon, s.opts.Season)
			if normErr == nil {
				s.logger.Debug().Time("fetched_at", entry.FetchedAt).Msg("using cached forecast")
				return samples, nil
			}
		}
	}

	raw, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	samples, err := forecast.Normalize(raw, now, s.opts.Horizon, s.opts.Season)
	if err != nil {
		return nil, err
	}

	if tx != nil {
		if err := tx.UpsertForecastCache(ctx, storage.ForecastCacheEntry{Samples: samples, FetchedAt: now}); err != nil {
			s.logger.Warn().Err(err).Msg("forecast cache write failed")
		}
	}
	return samples, nil
}

// applyActions persists each reconciliation outcome and collects the messages to
// dispatch after commit. Notification history entries are written here so the
// notify decision is durable even if delivery later fails.
func (s *Service) applyActions(ctx context.Context, tx storage.AlertStore, actions []alerts.Action, now time.Time, logger zerolog.Logger) ([]alerting.Message, error) {
	channels := make([]string, 0, len(s.notifiers))
	for _, n := range s.notifiers {
		channels = append(channels, n.Name())
	}

	var messages []alerting.Message
	for i := range actions {
		act := actions[i]
		actLogger := logger.With().
			Str("action", string(act.Type)).
			Str("reason", string(act.Reason)).
			Float64("threshold", act.Threshold).
			Logger()

		var alertID *int64
		switch act.Type {
		case alerts.ActionCreate:
			alert := alerts.Alert{
				Threshold: act.Threshold,
				Start:     act.Period.Start,
				End:       act.Period.End,
				MinTemp:   act.Period.MinTemp,
				MinTempAt: act.Period.MinTempAt,
				CreatedAt: now,
			}
			if act.Notify {
				when := now
				alert.LastNotifiedAt = &when
			}
			if tx != nil {
				id, err := tx.InsertAlert(ctx, alert)
				if err != nil {
					actLogger.Error().Err(err).Msg("persist failed")
					return nil, fmt.Errorf("store unavailable: %w", err)
				}
				alertID = &id
			}
			actLogger.Info().Time("start", alert.Start).Time("end", alert.End).
				Dur("duration", act.Period.Duration()).
				Float64("min_temp", alert.MinTemp).Msg("alert created")

		case alerts.ActionUpdate:
			updated := *act.Previous
			updated.Start = act.Period.Start
			updated.End = act.Period.End
			updated.MinTemp = act.Period.MinTemp
			updated.MinTempAt = act.Period.MinTempAt
			if tx != nil {
				if err := tx.UpdateAlert(ctx, updated); err != nil {
					actLogger.Error().Err(err).Msg("persist failed")
					return nil, fmt.Errorf("store unavailable: %w", err)
				}
				if act.Notify {
					if err := tx.SetLastNotified(ctx, updated.ID, now); err != nil {
						actLogger.Error().Err(err).Msg("persist failed")
						return nil, fmt.Errorf("store unavailable: %w", err)
					}
				}
			}
			alertID = &act.Previous.ID
			actLogger.Info().Bool("notify", act.Notify).Time("end", updated.End).Msg("alert updated")

		case alerts.ActionExpire, alerts.ActionRetract:
			if tx != nil {
				if err := tx.DeleteAlert(ctx, act.Previous.ID); err != nil {
					actLogger.Error().Err(err).Msg("persist failed")
					return nil, fmt.Errorf("store unavailable: %w", err)
				}
			}
			actLogger.Info().Time("end", act.Previous.End).Msg("alert removed")

		case alerts.ActionNone:
			actLogger.Debug().Msg("no change")
		}

		if !act.Notify {
			continue
		}

		msg := alerting.Render(act, s.opts.FreezeAt, now)
		messages = append(messages, msg)

		if tx != nil {
			// retracted alerts are gone; the history row keeps no back-reference
			ref := alertID
			if act.Type == alerts.ActionRetract {
				ref = nil
			}
			rec := storage.NotificationRecord{
				AlertID:  ref,
				Message:  msg.Title + ": " + msg.Body,
				Channels: channels,
				SentAt:   now,
			}
			if _, err := tx.RecordNotification(ctx, rec); err != nil {
				actLogger.Error().Err(err).Msg("persist failed")
				return nil, fmt.Errorf("store unavailable: %w", err)
			}
		}
	}

	return messages, nil
}

// dispatch fans messages out to every channel. Channels are independent: one
// failing delivery never blocks the others and never affects committed state.
func (s *Service) dispatch(ctx context.Context, messages []alerting.Message, logger zerolog.Logger) {
	for _, msg := range messages {
		for _, notifier := range s.notifiers {
			if err := notifier.Notify(ctx, msg); err != nil {
				logger.Error().Err(err).
					Str("channel", notifier.Name()).
					Str("title", msg.Title).
					Msg("delivery failed")
				continue
			}
		}
	}
}
