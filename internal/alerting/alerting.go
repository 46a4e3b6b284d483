package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/storage"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a generic webhook endpoint (Slack, Discord, or custom)
	WebhookURL string
	// WebhookType determines the payload format: "slack", "discord", or "generic".
	// Empty detects the type from the URL.
	WebhookType string
	// Timeout for HTTP requests
	Timeout time.Duration
}

// Alerter posts staff alerts to a webhook.
type Alerter struct {
	cfg     AlertConfig
	enabled bool
	client  *http.Client
}

// NewAlerter creates a new alerter instance. Without a webhook URL every send
// is a no-op.
func NewAlerter(cfg AlertConfig) *Alerter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.WebhookType == "" {
		cfg.WebhookType = detectType(cfg.WebhookURL)
	}
	return &Alerter{
		cfg:     cfg,
		enabled: cfg.WebhookURL != "",
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func detectType(url string) string {
	switch {
	case strings.Contains(url, "slack.com"):
		return "slack"
	case strings.Contains(url, "discord.com"):
		return "discord"
	default:
		return "generic"
	}
}

// Enabled reports whether a webhook is configured.
func (a *Alerter) Enabled() bool { return a.enabled }

// ServiceRequestAlert tells staff a new service request arrived.
type ServiceRequestAlert struct {
	Request storage.ServiceRequest
	// Pending is the number of requests awaiting action, including this one.
	Pending int
}

// SendServiceRequestAlert posts alert in the configured payload format.
func (a *Alerter) SendServiceRequestAlert(ctx context.Context, alert ServiceRequestAlert) error {
	if !a.enabled {
		logging.Debug("alerting: alerts disabled, skipping")
		return nil
	}

	var (
		payload []byte
		err     error
	)
	switch a.cfg.WebhookType {
	case "slack":
		payload, err = buildSlackPayload(alert)
	case "discord":
		payload, err = buildDiscordPayload(alert)
	default:
		payload, err = buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logging.Info("alerting: sent service request alert",
		zap.String("reference", alert.Request.ReferenceNumber()),
		zap.String("webhook_type", a.cfg.WebhookType))
	return nil
}

func summary(r storage.ServiceRequest) string {
	return fmt.Sprintf("%s requested %s at %s", r.Name, strings.ReplaceAll(r.ServiceType, "_", " "), r.Address)
}

func buildSlackPayload(alert ServiceRequestAlert) ([]byte, error) {
	r := alert.Request
	emoji := ":droplet:"
	if r.ServiceType == "repair" || r.ServiceType == "complaint" {
		emoji = ":warning:"
	}

	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": fmt.Sprintf("%s New service request %s", emoji, r.ReferenceNumber()),
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Type:*\n%s", r.ServiceType)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Customer:*\n%s", r.Name)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Contact:*\n%s / %s", r.Phone, r.Email)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Pending:*\n%d", alert.Pending)},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Address:* %s\n*Message:* %s", r.Address, r.Message),
				},
			},
		},
	}
	return json.Marshal(payload)
}

func buildDiscordPayload(alert ServiceRequestAlert) ([]byte, error) {
	r := alert.Request
	color := 3447003 // Blue
	if r.ServiceType == "repair" || r.ServiceType == "complaint" {
		color = 16776960 // Yellow
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       fmt.Sprintf("New service request %s", r.ReferenceNumber()),
				"description": summary(r),
				"color":       color,
				"fields": []map[string]interface{}{
					{"name": "Type", "value": r.ServiceType, "inline": true},
					{"name": "Phone", "value": r.Phone, "inline": true},
					{"name": "Pending", "value": fmt.Sprintf("%d", alert.Pending), "inline": true},
					{"name": "Message", "value": r.Message, "inline": false},
				},
				"timestamp": r.CreatedAt.Format(time.RFC3339),
			},
		},
	}
	return json.Marshal(payload)
}

func buildGenericPayload(alert ServiceRequestAlert) ([]byte, error) {
	r := alert.Request
	payload := map[string]interface{}{
		"alert_type":       "service_request_created",
		"reference_number": r.ReferenceNumber(),
		"request_id":       r.ID,
		"service_type":     r.ServiceType,
		"name":             r.Name,
		"email":            r.Email,
		"phone":            r.Phone,
		"address":          r.Address,
		"message":          r.Message,
		"pending_count":    alert.Pending,
		"timestamp":        r.CreatedAt.Format(time.RFC3339),
	}
	return json.Marshal(payload)
}
