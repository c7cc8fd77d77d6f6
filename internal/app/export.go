package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"plant-cold-alerts/internal/forecast"
)

// ExportOptions hold parameters for exporting the cached forecast.
type ExportOptions struct {
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// Export renders the most recent forecast snapshot as CSV and/or a PNG chart with
// the two threshold lines drawn in.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	if opts.MaxPoints <= 0 {
		opts.MaxPoints = a.Config.Export.MaxDataPoints
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot export")
	}
	if closeStore != nil {
		defer closeStore()
	}

	entry, err := store.GetForecastCache(ctx)
	if err != nil {
		return err
	}
	if entry == nil || len(entry.Samples) == 0 {
		a.Logger.Info().Msg("no cached forecast to export")
		return nil
	}

	samples := downsample(entry.Samples, opts.MaxPoints)
	a.Logger.Info().
		Int("total", len(entry.Samples)).
		Int("exported", len(samples)).
		Time("fetched_at", entry.FetchedAt).
		Msg("exporting forecast")

	if opts.CSVPath != "" {
		if err := writeForecastCSV(opts.CSVPath, samples); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		thresholds := a.Config.ThresholdValues()
		if err := writeForecastPNG(opts.PNGPath, samples, thresholds); err != nil {
			return err
		}
	}

	return nil
}

func downsample(samples []forecast.Sample, max int) []forecast.Sample {
	if max <= 0 || len(samples) <= max {
		return samples
	}

	result := make([]forecast.Sample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeForecastCSV(path string, samples []forecast.Sample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"timestamp", "temperature_c"}); err != nil {
		return err
	}

	for _, sample := range samples {
		record := []string{
			sample.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(sample.Temperature, 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeForecastPNG(path string, samples []forecast.Sample, thresholds []float64) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	temps := make([]float64, len(samples))
	for i, sample := range samples {
		x[i] = sample.Timestamp
		temps[i] = sample.Temperature
	}

	tempFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f°C")
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Temperature",
			XValues: x,
			YValues: temps,
		},
	}
	for _, threshold := range thresholds {
		level := make([]float64, len(samples))
		for i := range level {
			level[i] = threshold
		}
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("threshold %.1f°C", threshold),
			XValues: x,
			YValues: level,
			Style: chart.Style{
				StrokeDashArray: []float64{5.0, 5.0},
			},
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Temperature (°C)",
			ValueFormatter: tempFormatter,
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
