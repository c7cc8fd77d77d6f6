package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type commandCall struct {
	name string
	args []string
}

func captureCommands(n *DesktopNotifier, calls *[]commandCall) {
	n.runCommand = func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, commandCall{name: name, args: args})
		return nil
	}
}

func TestDesktopNotifyLocal(t *testing.T) {
	var calls []commandCall
	n := NewDesktopNotifier("", time.Second, zerolog.Nop())
	captureCommands(n, &calls)

	msg := Message{Title: "Cold vigilance", Body: "tonight", Severity: SeverityWarning}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 command, got %d", len(calls))
	}
	if calls[0].name != "notify-send" {
		t.Fatalf("local delivery runs notify-send directly, got %q", calls[0].name)
	}
	if calls[0].args[0] != "--urgency" || calls[0].args[1] != "normal" {
		t.Fatalf("warnings use normal urgency, got %v", calls[0].args[:2])
	}
	if calls[0].args[2] != "PlantAlert :: WARNING" {
		t.Fatalf("unexpected summary: %q", calls[0].args[2])
	}
}

func TestDesktopNotifyOverSSH(t *testing.T) {
	var calls []commandCall
	n := NewDesktopNotifier("desktop.lan", time.Second, zerolog.Nop())
	captureCommands(n, &calls)

	msg := Message{Title: "Freeze alert", Body: "now", Severity: SeverityCritical}
	if err := n.Notify(context.Background(), msg); err != nil {
		t.Fatalf("Notify should succeed: %v", err)
	}

	if calls[0].name != "ssh" {
		t.Fatalf("remote delivery goes through ssh, got %q", calls[0].name)
	}
	if calls[0].args[0] != "desktop.lan" {
		t.Fatalf("ssh target mismatch: %q", calls[0].args[0])
	}
	if calls[0].args[1] != "notify-send" {
		t.Fatalf("ssh should wrap notify-send, got %q", calls[0].args[1])
	}
	if calls[0].args[3] != "critical" {
		t.Fatalf("critical severity maps to critical urgency, got %q", calls[0].args[3])
	}
}

func TestDesktopNotifyCommandFailure(t *testing.T) {
	n := NewDesktopNotifier("localhost", time.Second, zerolog.Nop())
	n.runCommand = func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	}

	if err := n.Notify(context.Background(), Message{Title: "x", Severity: SeverityInfo}); err == nil {
		t.Fatal("command failure should surface as an error")
	}
}
