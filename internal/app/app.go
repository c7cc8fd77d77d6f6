package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"plant-cold-alerts/internal/alerting"
	"plant-cold-alerts/internal/config"
	"plant-cold-alerts/internal/forecast"
	"plant-cold-alerts/internal/scheduler"
	"plant-cold-alerts/internal/service"
	"plant-cold-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Clock  clockwork.Clock
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Clock:  clockwork.NewRealClock(),
	}
}

func (a *App) newFetcher() forecast.Fetcher {
	return forecast.NewClient(forecast.ClientOptions{
		BaseURL:       a.Config.Forecast.BaseURL,
		Latitude:      a.Config.Location.Latitude,
		Longitude:     a.Config.Location.Longitude,
		ForecastHours: a.Config.Forecast.ForecastHours,
		Timeout:       a.Config.Forecast.RequestTimeout,
		UserAgent:     a.Config.Forecast.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifiers() []alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}

	var notifiers []alerting.Notifier
	if a.Config.Alerting.Discord.Enabled {
		cfg := a.Config.Alerting.Discord
		notifiers = append(notifiers, alerting.NewDiscordNotifier(cfg.WebhookURL, a.Config.Forecast.RequestTimeout, a.Logger))
	}
	if a.Config.Alerting.Desktop.Enabled {
		cfg := a.Config.Alerting.Desktop
		notifiers = append(notifiers, alerting.NewDesktopNotifier(cfg.SSHHost, cfg.Timeout, a.Logger))
	}
	return notifiers
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) serviceOptions(dryRun bool) (service.Options, error) {
	season, err := a.Config.SeasonWindow()
	if err != nil {
		return service.Options{}, err
	}
	return service.Options{
		Thresholds:     a.Config.ThresholdValues(),
		FreezeAt:       a.Config.Thresholds.Freeze,
		Horizon:        a.Config.Horizon(),
		Season:         season,
		MinChange:      a.Config.MinChange(),
		SampleInterval: a.Config.Forecast.SampleInterval,
		CacheTTL:       a.Config.Forecast.CacheTTL,
		DryRun:         dryRun,
	}, nil
}

// Check executes one fetch/detect/reconcile/dispatch cycle and exits.
func (a *App) Check(ctx context.Context, dryRun bool) error {
	opts, err := a.serviceOptions(dryRun)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; use simulate for transient runs")
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := service.New(opts, a.newFetcher(), store, a.newNotifiers(), a.Clock, a.Logger)
	return svc.RunOnce(ctx)
}

// Run executes the long-running scheduled mode.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts, err := a.serviceOptions(false)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched, err := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		Cron:         a.Config.Scheduler.Cron,
		AlignToStart: a.Config.Scheduler.AlignToStart,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Clock, a.Logger)
	if err != nil {
		return err
	}

	svc := service.New(opts, a.newFetcher(), store, a.newNotifiers(), a.Clock, a.Logger)

	a.Logger.Info().Msg("starting cold alert monitor")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		return svc.RunOnce(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("monitor terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitor stopped")
	return nil
}

// InitDB creates the schema.
func (a *App) InitDB(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured")
	}
	defer closeStore()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}
	a.Logger.Info().Msg("database schema initialised")
	return nil
}
