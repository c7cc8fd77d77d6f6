package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const forecastPath = "/v1/forecast"

// ClientOptions parameterise the Open-Meteo fetcher.
type ClientOptions struct {
	BaseURL       string
	Latitude      float64
	Longitude     float64
	ForecastHours int
	Timeout       time.Duration
	UserAgent     string
}

// Client fetches hourly temperature forecasts from an Open-Meteo compatible API.
type Client struct {
	opts    ClientOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a forecast client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}

	if opts.ForecastHours <= 0 {
		opts.ForecastHours = 48
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "forecast_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch retrieves the hourly temperature series for the configured coordinates.
func (c *Client) Fetch(ctx context.Context) ([]Sample, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(c.opts.Latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(c.opts.Longitude, 'f', 4, 64))
	query.Set("hourly", "temperature_2m")
	query.Set("forecast_hours", strconv.Itoa(c.opts.ForecastHours))
	query.Set("timeformat", "unixtime")
	query.Set("timezone", "UTC")

	endpoint := c.baseURL + forecastPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "plantalert/1.0")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrDataUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	var decoded forecastResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrDataUnavailable, err)
	}

	if len(decoded.Hourly.Time) == 0 || len(decoded.Hourly.Time) != len(decoded.Hourly.Temperature) {
		return nil, fmt.Errorf("%w: %d timestamps, %d temperatures", ErrDataUnavailable,
			len(decoded.Hourly.Time), len(decoded.Hourly.Temperature))
	}

	samples := make([]Sample, 0, len(decoded.Hourly.Time))
	for i, ts := range decoded.Hourly.Time {
		samples = append(samples, Sample{
			Timestamp:   time.Unix(ts, 0).UTC(),
			Temperature: decoded.Hourly.Temperature[i],
		})
	}

	c.logger.Debug().Int("samples", len(samples)).Msg("forecast fetched")
	return samples, nil
}

type forecastResponse struct {
	Hourly struct {
		Time        []int64   `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Reason != "" {
		return fmt.Errorf("%w: provider error (%d): %s", ErrDataUnavailable, status, apiErr.Reason)
	}
	if len(payload) > 0 {
		return fmt.Errorf("%w: provider error (%d): %s", ErrDataUnavailable, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%w: provider error (%d)", ErrDataUnavailable, status)
}

var _ Fetcher = (*Client)(nil)
