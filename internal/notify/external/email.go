package external

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/awp-dev/awpengine/internal/events"
)

// EmailConfig configures an SMTP notification channel.
type EmailConfig struct {
	SMTPHost   string   `json:"smtp_host"`
	SMTPPort   int      `json:"smtp_port"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	From       string   `json:"from"`
	To         []string `json:"to"`
	EventTypes []string `json:"eventTypes,omitempty"`
}

// EmailChannel sends engine events via SMTP.
type EmailChannel struct {
	config EmailConfig
}

// NewEmailChannel creates an EmailChannel.
func NewEmailChannel(config EmailConfig) *EmailChannel {
	return &EmailChannel{config: config}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) ShouldNotify(evt events.Event) bool {
	if len(e.config.EventTypes) == 0 {
		return true
	}
	for _, t := range e.config.EventTypes {
		if t == evt.Type {
			return true
		}
	}
	return false
}

// Send delivers evt over SMTP using smtp.SendMail.
func (e *EmailChannel) Send(evt events.Event) error {
	if e.config.SMTPHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}
	if e.config.From == "" {
		return fmt.Errorf("from address not configured")
	}
	if len(e.config.To) == 0 {
		return fmt.Errorf("no recipient addresses configured")
	}

	subject := fmt.Sprintf("awpengine %s event", evt.Type)
	message := e.buildMessage(subject, e.buildBody(evt))

	addr := fmt.Sprintf("%s:%d", e.config.SMTPHost, e.config.SMTPPort)
	var auth smtp.Auth
	if e.config.Username != "" && e.config.Password != "" {
		auth = smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, e.config.From, e.config.To, []byte(message)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (e *EmailChannel) buildBody(evt events.Event) string {
	var body strings.Builder
	body.WriteString("awpengine event notification\n")
	body.WriteString("=============================\n\n")
	body.WriteString(fmt.Sprintf("Type: %s\n", evt.Type))
	body.WriteString(fmt.Sprintf("Timestamp: %s\n", evt.Timestamp.Format(time.RFC3339)))
	body.WriteString(fmt.Sprintf("Payload: %v\n", evt.Payload))
	return body.String()
}

func (e *EmailChannel) buildMessage(subject, body string) string {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", e.config.From))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(e.config.To, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.String()
}
