// Package notification sends requesters a confirmation e-mail for each
// service request.
package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/storage"
)

// Notifier delivers the customer-facing confirmation for a stored request.
type Notifier interface {
	NotifyServiceRequest(ctx context.Context, req storage.ServiceRequest) error
}

// Noop is used when no mail provider is configured.
type Noop struct{}

func (Noop) NotifyServiceRequest(ctx context.Context, req storage.ServiceRequest) error {
	logging.Debug("notification: provider not configured, skipping",
		zap.String("reference", req.ReferenceNumber()))
	return nil
}

type SendgridConfig struct {
	APIKey      string
	FromAddress string
	FromName    string
	// Host overrides the API base URL; empty uses api.sendgrid.com.
	Host string
}

type SendgridNotifier struct {
	cfg SendgridConfig
}

func NewSendgrid(cfg SendgridConfig) *SendgridNotifier {
	return &SendgridNotifier{cfg: cfg}
}

// New returns a SendgridNotifier when an API key is set, otherwise Noop.
func New(cfg SendgridConfig) Notifier {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Noop{}
	}
	return NewSendgrid(cfg)
}

func (s *SendgridNotifier) NotifyServiceRequest(ctx context.Context, req storage.ServiceRequest) error {
	subject, plain, rich := confirmationMessage(req)
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromAddress)
	to := mail.NewEmail(req.Name, req.Email)
	message := mail.NewSingleEmail(from, subject, to, plain, rich)

	request := sendgrid.GetRequest(s.cfg.APIKey, "/v3/mail/send", s.cfg.Host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	logging.Info("notification: confirmation sent",
		zap.String("reference", req.ReferenceNumber()),
		zap.Int("status", resp.StatusCode))
	return nil
}

func confirmationMessage(req storage.ServiceRequest) (subject, plain, rich string) {
	ref := req.ReferenceNumber()
	subject = fmt.Sprintf("Service request %s received", ref)
	plain = fmt.Sprintf(
		"Hello %s,\n\nWe received your %s request. Your reference number is %s.\n"+
			"Our team will contact you at %s.\n\nSanta Cruz Water District",
		req.Name, readableType(req.ServiceType), ref, req.Phone)
	rich = fmt.Sprintf(
		"<p>Hello %s,</p><p>We received your %s request. Your reference number is <strong>%s</strong>.</p>"+
			"<p>Our team will contact you at %s.</p><p>Santa Cruz Water District</p>",
		html.EscapeString(req.Name), html.EscapeString(readableType(req.ServiceType)), ref, html.EscapeString(req.Phone))
	return subject, plain, rich
}

func readableType(t string) string {
	return strings.ReplaceAll(t, "_", " ")
}
