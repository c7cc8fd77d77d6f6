package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	History      bool
	HistoryLimit int
}

// Show prints the currently tracked alerts and, optionally, recent notification
// history.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	alerts, err := store.ListCurrentAlerts(ctx)
	if err != nil {
		return err
	}

	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no current alerts")
	} else {
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tThreshold\tStart (UTC)\tEnd (UTC)\tMin°C\tMin at\tLast notified")
		for _, alert := range alerts {
			lastNotified := "never"
			if alert.LastNotifiedAt != nil {
				lastNotified = alert.LastNotifiedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(writer, "%d\t%.1f\t%s\t%s\t%.1f\t%s\t%s\n",
				alert.ID,
				alert.Threshold,
				alert.Start.UTC().Format(time.RFC3339),
				alert.End.UTC().Format(time.RFC3339),
				alert.MinTemp,
				alert.MinTempAt.UTC().Format(time.RFC3339),
				lastNotified,
			)
		}
		writer.Flush()
	}

	if !opts.History {
		return nil
	}

	records, err := store.ListNotifications(ctx, opts.HistoryLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no notification history")
		return nil
	}

	fmt.Fprintln(os.Stdout)
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Sent (UTC)\tAlert\tChannels\tMessage")
	for _, rec := range records {
		alertRef := "-"
		if rec.AlertID != nil {
			alertRef = fmt.Sprintf("%d", *rec.AlertID)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			rec.SentAt.UTC().Format(time.RFC3339),
			alertRef,
			strings.Join(rec.Channels, ","),
			sanitizeInline(rec.Message),
		)
	}
	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
