package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"plant-cold-alerts/internal/app"
)

var (
	simulateTemps    string
	simulateStart    string
	simulateStep     time.Duration
	simulateDryRun   bool
	simulateUseStore bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the pipeline against a literal temperature sequence",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(simulateTemps) == "" {
			return errors.New("--temps is required, e.g. --temps=-2,1,3,-1,-3")
		}

		temps, err := parseTemps(simulateTemps)
		if err != nil {
			return err
		}

		opts := app.SimulateOptions{
			Temperatures: temps,
			Step:         simulateStep,
			DryRun:       simulateDryRun,
			UseStore:     simulateUseStore,
		}
		if simulateStart != "" {
			start, err := time.Parse(time.RFC3339, simulateStart)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			opts.Start = start.UTC()
		}

		return getApp().Simulate(cmd.Context(), opts)
	},
}

func parseTemps(value string) ([]float64, error) {
	parts := strings.Split(value, ",")
	temps := make([]float64, 0, len(parts))
	for _, part := range parts {
		temp, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parse temperature %q: %w", part, err)
		}
		temps = append(temps, temp)
	}
	return temps, nil
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTemps, "temps", "", "Comma-separated hourly temperatures in °C")
	simulateCmd.Flags().StringVar(&simulateStart, "start", "", "RFC3339 timestamp of the first sample (default: now)")
	simulateCmd.Flags().DurationVar(&simulateStep, "step", time.Hour, "Spacing between samples")
	simulateCmd.Flags().BoolVar(&simulateDryRun, "dry-run", true, "Log actions without notifying or persisting")
	simulateCmd.Flags().BoolVar(&simulateUseStore, "use-store", false, "Reconcile against the real database")
}
