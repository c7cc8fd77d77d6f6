package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"plant-cold-alerts/internal/app"
)

var (
	exportCSV       string
	exportPNG       string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the cached forecast as CSV and/or a PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportCSV == "" && exportPNG == "" {
			return errors.New("provide --csv and/or --png")
		}

		opts := app.ExportOptions{
			CSVPath:   exportCSV,
			PNGPath:   exportPNG,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "Write the forecast samples to this CSV file")
	exportCmd.Flags().StringVar(&exportPNG, "png", "", "Render a temperature chart to this PNG file")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Cap on exported points (default from config)")
}
