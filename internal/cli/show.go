package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"plant-cold-alerts/internal/app"
)

var (
	showHistory      bool
	showHistoryLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current alerts and notification history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showHistoryLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			History:      showHistory,
			HistoryLimit: showHistoryLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showHistory, "history", false, "Include recent notification history")
	showCmd.Flags().IntVar(&showHistoryLimit, "limit", 20, "Number of history entries to display")
}
