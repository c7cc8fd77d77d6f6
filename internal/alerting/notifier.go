package alerting

import (
	"context"
	"fmt"
	"time"

	"plant-cold-alerts/internal/alerts"
)

// Severity grades a notification for channel-specific styling.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Message is the channel-independent rendering of one alert action.
type Message struct {
	Title     string
	Body      string
	Severity  Severity
	Timestamp time.Time
}

// Notifier delivers a message over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

// Render builds the user-facing message for a notifiable action. It is a pure
// function of the action: the threshold, old and new bounds, and minimum all travel
// on the action itself, so no store access is needed here. freezeAt decides which
// severity tier a threshold belongs to.
func Render(act alerts.Action, freezeAt float64, now time.Time) Message {
	freeze := act.Threshold <= freezeAt

	title := "Cold vigilance"
	severity := SeverityWarning
	if freeze {
		title = "Freeze alert"
		severity = SeverityCritical
	}

	var body string
	switch act.Type {
	case alerts.ActionCreate:
		body = fmt.Sprintf("Cold period expected: %s\nMinimum %.1f°C around %s\nBring sensitive plants inside before tonight",
			spanString(act.Period.Start, act.Period.End),
			act.Period.MinTemp,
			hourString(act.Period.MinTempAt),
		)
	case alerts.ActionUpdate:
		switch act.Reason {
		case alerts.ReasonExtended:
			body = fmt.Sprintf("Cold period extended by %.0fh: was %s, now %s (min %.1f°C)",
				act.HoursExtended,
				spanString(act.Previous.Start, act.Previous.End),
				spanString(act.Period.Start, act.Period.End),
				act.Period.MinTemp,
			)
		case alerts.ReasonShortened:
			body = fmt.Sprintf("Cold period shortened by %.0fh: was %s, now %s (min %.1f°C)",
				act.HoursShortened,
				spanString(act.Previous.Start, act.Previous.End),
				spanString(act.Period.Start, act.Period.End),
				act.Period.MinTemp,
			)
		default:
			body = fmt.Sprintf("Cold period revised: %s, min %.1f°C",
				spanString(act.Period.Start, act.Period.End),
				act.Period.MinTemp,
			)
		}
	case alerts.ActionRetract:
		title = "Cold period cleared"
		severity = SeverityInfo
		body = fmt.Sprintf("Forecast improved, no more risk expected (was %s)",
			spanString(act.Previous.Start, act.Previous.End),
		)
	}

	return Message{
		Title:     title,
		Body:      body,
		Severity:  severity,
		Timestamp: now,
	}
}

func spanString(start, end time.Time) string {
	return fmt.Sprintf("%s → %s", hourString(start), hourString(end))
}

func hourString(t time.Time) string {
	return t.Format("02/01 15h")
}
