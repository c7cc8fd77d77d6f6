package alerting

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DesktopNotifier raises a notify-send popup, either on the local machine or on a
// remote desktop reached over SSH.
type DesktopNotifier struct {
	sshHost string
	timeout time.Duration
	logger  zerolog.Logger

	// runCommand is swappable for tests
	runCommand func(ctx context.Context, name string, args ...string) error
}

// NewDesktopNotifier constructs a notify-send notifier. An empty, "local", or
// "localhost" host runs notify-send directly instead of through SSH.
func NewDesktopNotifier(sshHost string, timeout time.Duration, logger zerolog.Logger) *DesktopNotifier {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &DesktopNotifier{
		sshHost: strings.TrimSpace(sshHost),
		timeout: timeout,
		logger:  logger.With().Str("component", "alert_desktop").Logger(),
		runCommand: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Name identifies the channel in notification history.
func (n *DesktopNotifier) Name() string { return "desktop" }

// Notify runs notify-send with the rendered message.
func (n *DesktopNotifier) Notify(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	args := notifySendArgs(msg)

	var err error
	if n.local() {
		err = n.runCommand(ctx, args[0], args[1:]...)
	} else {
		err = n.runCommand(ctx, "ssh", append([]string{n.sshHost}, args...)...)
	}
	if err != nil {
		return fmt.Errorf("notify-send (%s): %w", n.target(), err)
	}

	n.logger.Info().Str("target", n.target()).Str("title", msg.Title).Msg("notification sent")
	return nil
}

func (n *DesktopNotifier) local() bool {
	return n.sshHost == "" || n.sshHost == "local" || n.sshHost == "localhost"
}

func (n *DesktopNotifier) target() string {
	if n.local() {
		return "local"
	}
	return n.sshHost
}

func notifySendArgs(msg Message) []string {
	urgency := "normal"
	if msg.Severity == SeverityCritical {
		urgency = "critical"
	}
	return []string{
		"notify-send",
		"--urgency", urgency,
		fmt.Sprintf("PlantAlert :: %s", strings.ToUpper(string(msg.Severity))),
		fmt.Sprintf("%s\n%s", msg.Title, msg.Body),
	}
}

var _ Notifier = (*DesktopNotifier)(nil)
