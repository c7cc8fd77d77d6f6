package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DiscordNotifier posts messages to a Discord webhook as embeds.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	logger     zerolog.Logger
}

// NewDiscordNotifier constructs a Discord webhook notifier.
func NewDiscordNotifier(webhookURL string, timeout time.Duration, logger zerolog.Logger) *DiscordNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "alert_discord").Logger(),
	}
}

// Name identifies the channel in notification history.
func (n *DiscordNotifier) Name() string { return "discord" }

// Notify posts one embed to the webhook.
func (n *DiscordNotifier) Notify(ctx context.Context, msg Message) error {
	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       msg.Title,
			Description: msg.Body,
			Timestamp:   msg.Timestamp.UTC().Format(time.RFC3339),
			Color:       severityColor(msg.Severity),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}

	n.logger.Info().Str("title", msg.Title).Str("severity", string(msg.Severity)).Msg("notification sent")
	return nil
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Color       int    `json:"color"`
}

func severityColor(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0x8B0000
	case SeverityWarning:
		return 0xFFA500
	default:
		return 0x1E90FF
	}
}

var _ Notifier = (*DiscordNotifier)(nil)
