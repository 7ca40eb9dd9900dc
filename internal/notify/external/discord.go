package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/awp-dev/awpengine/internal/events"
)

// DiscordConfig configures a Discord incoming-webhook channel.
type DiscordConfig struct {
	WebhookURL string   `json:"webhook_url"`
	Username   string   `json:"username,omitempty"`
	EventTypes []string `json:"eventTypes,omitempty"`
}

// DiscordChannel posts engine events to a Discord incoming webhook.
type DiscordChannel struct {
	config DiscordConfig
	client *http.Client
}

// NewDiscordChannel creates a DiscordChannel.
func NewDiscordChannel(config DiscordConfig) *DiscordChannel {
	return &DiscordChannel{config: config, client: &http.Client{Timeout: 10 * time.Second}}
}

func (d *DiscordChannel) Name() string { return "discord" }

func (d *DiscordChannel) ShouldNotify(evt events.Event) bool {
	if len(d.config.EventTypes) == 0 {
		return true
	}
	for _, t := range d.config.EventTypes {
		if t == evt.Type {
			return true
		}
	}
	return false
}

type discordPayload struct {
	Username string `json:"username,omitempty"`
	Content  string `json:"content"`
}

// Send posts evt to the configured Discord webhook URL.
func (d *DiscordChannel) Send(evt events.Event) error {
	if d.config.WebhookURL == "" {
		return fmt.Errorf("discord webhook URL not configured")
	}

	payload := discordPayload{
		Username: d.config.Username,
		Content:  fmt.Sprintf("**%s**\n%v", evt.Type, evt.Payload),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	resp, err := d.client.Post(d.config.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to discord: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}
