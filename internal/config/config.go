package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"plant-cold-alerts/internal/forecast"
	"plant-cold-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig       `mapstructure:"app"`
	Logging    logging.Config  `mapstructure:"logging"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Scheduler  SchedulerConfig `mapstructure:"scheduler"`
	Location   LocationConfig  `mapstructure:"location"`
	Forecast   ForecastConfig  `mapstructure:"forecast"`
	Season     SeasonConfig    `mapstructure:"season"`
	Thresholds ThresholdConfig `mapstructure:"thresholds"`
	Alerting   AlertingConfig  `mapstructure:"alerting"`
	Export     ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs check cadence for the long-running mode.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Cron         string        `mapstructure:"cron"`
	AlignToStart bool          `mapstructure:"align_to_start"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// LocationConfig pins the single monitored location.
type LocationConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	Timezone  string  `mapstructure:"timezone"`
}

// ForecastConfig covers provider access and normalisation.
type ForecastConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ForecastHours  int           `mapstructure:"forecast_hours"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SeasonConfig bounds the months during which cold protection is active.
type SeasonConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// ThresholdConfig holds the two temperature tiers.
type ThresholdConfig struct {
	Vigilance float64 `mapstructure:"vigilance"`
	Freeze    float64 `mapstructure:"freeze"`
}

// AlertingConfig defines the anti-spam policy and channel routing.
type AlertingConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	MinChangeHours int           `mapstructure:"min_change_hours"`
	Channels       []string      `mapstructure:"channels"`
	Discord        DiscordConfig `mapstructure:"discord"`
	Desktop        DesktopConfig `mapstructure:"desktop"`
}

// DiscordConfig describes the webhook channel.
type DiscordConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// DesktopConfig describes the notify-send channel.
type DesktopConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	SSHHost string        `mapstructure:"ssh_host"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLANTALERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "plantalert")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)

	v.SetDefault("scheduler.interval", "12h")
	v.SetDefault("scheduler.align_to_start", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("location.name", "Collonges-au-Mont-d'Or")
	v.SetDefault("location.latitude", 45.8236)
	v.SetDefault("location.longitude", 4.8439)
	v.SetDefault("location.timezone", "Europe/Paris")

	v.SetDefault("forecast.base_url", "https://api.open-meteo.com")
	v.SetDefault("forecast.forecast_hours", 48)
	v.SetDefault("forecast.sample_interval", "1h")
	v.SetDefault("forecast.cache_ttl", "1h")
	v.SetDefault("forecast.request_timeout", "10s")
	v.SetDefault("forecast.user_agent", "plantalert/1.0")

	v.SetDefault("season.start", "10-01")
	v.SetDefault("season.end", "05-15")

	v.SetDefault("thresholds.vigilance", 3.0)
	v.SetDefault("thresholds.freeze", 0.0)

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.min_change_hours", 6)
	v.SetDefault("alerting.channels", []string{"discord", "desktop"})
	v.SetDefault("alerting.discord.enabled", false)
	v.SetDefault("alerting.desktop.enabled", false)
	v.SetDefault("alerting.desktop.timeout", "20s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 && c.Scheduler.Cron == "" {
		return fmt.Errorf("scheduler.interval or scheduler.cron must be set")
	}
	if c.Forecast.ForecastHours <= 0 {
		return fmt.Errorf("forecast.forecast_hours must be greater than zero")
	}
	if c.Forecast.SampleInterval <= 0 {
		return fmt.Errorf("forecast.sample_interval must be greater than zero")
	}
	if c.Thresholds.Vigilance < c.Thresholds.Freeze {
		return fmt.Errorf("thresholds.vigilance must not be below thresholds.freeze")
	}
	if c.Alerting.MinChangeHours < 0 {
		return fmt.Errorf("alerting.min_change_hours cannot be negative")
	}
	if c.Alerting.Discord.Enabled && c.Alerting.Discord.WebhookURL == "" {
		return fmt.Errorf("alerting.discord.webhook_url is required when discord is enabled")
	}
	if _, err := c.SeasonWindow(); err != nil {
		return err
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// SeasonWindow resolves the configured month-day bounds against the location
// timezone.
func (c *Config) SeasonWindow() (forecast.SeasonWindow, error) {
	loc, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return forecast.SeasonWindow{}, fmt.Errorf("location.timezone: %w", err)
	}
	window, err := forecast.ParseSeasonWindow(c.Season.Start, c.Season.End, loc)
	if err != nil {
		return forecast.SeasonWindow{}, fmt.Errorf("season window: %w", err)
	}
	return window, nil
}

// ThresholdValues returns the configured tiers in vigilance-first order.
func (c *Config) ThresholdValues() []float64 {
	return []float64{c.Thresholds.Vigilance, c.Thresholds.Freeze}
}

// MinChange converts the anti-spam threshold to a duration.
func (c *Config) MinChange() time.Duration {
	return time.Duration(c.Alerting.MinChangeHours) * time.Hour
}

// Horizon converts the anticipation horizon to a duration.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.Forecast.ForecastHours) * time.Hour
}
