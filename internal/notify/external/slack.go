// Package external implements external notification channels: Slack and
// Discord as plain net/http POSTs to incoming webhook URLs, with no
// Slack/Discord SDK dependency, and email over net/smtp.
package external

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/awp-dev/awpengine/internal/events"
)

// SlackConfig configures a Slack incoming-webhook channel.
type SlackConfig struct {
	WebhookURL string   `json:"webhook_url"`
	Channel    string   `json:"channel,omitempty"`
	Username   string   `json:"username,omitempty"`
	EventTypes []string `json:"eventTypes,omitempty"`
}

// SlackChannel posts engine events to a Slack incoming webhook.
type SlackChannel struct {
	config SlackConfig
	client *http.Client
}

// NewSlackChannel creates a SlackChannel.
func NewSlackChannel(config SlackConfig) *SlackChannel {
	return &SlackChannel{config: config, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *SlackChannel) Name() string { return "slack" }

// ShouldNotify matches evt.Type against the configured filter, or allows
// everything when no filter is set.
func (s *SlackChannel) ShouldNotify(evt events.Event) bool {
	if len(s.config.EventTypes) == 0 {
		return true
	}
	for _, t := range s.config.EventTypes {
		if t == evt.Type {
			return true
		}
	}
	return false
}

type slackAttachment struct {
	Color string `json:"color"`
	Text  string `json:"text"`
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

// Send posts evt to the configured Slack webhook URL.
func (s *SlackChannel) Send(evt events.Event) error {
	if s.config.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL not configured")
	}

	color := "good"
	if evt.Type == events.TypeSyncConflict {
		color = "danger"
	}

	payload := slackPayload{
		Channel:  s.config.Channel,
		Username: s.config.Username,
		Attachments: []slackAttachment{{
			Color: color,
			Text:  fmt.Sprintf("*%s*\n%v", evt.Type, evt.Payload),
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.client.Post(s.config.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
