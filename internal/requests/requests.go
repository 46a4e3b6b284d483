// Package requests handles customer service request intake.
package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/alerting"
	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/notification"
	"github.com/bher20/waterportal/internal/storage"
)

// ErrInvalidRequest wraps every validation failure from Submit.
var ErrInvalidRequest = errors.New("invalid service request")

// DefaultServiceType applies when a request names no type.
const DefaultServiceType = "new_connection"

// ServiceTypes lists the accepted service_type values.
var ServiceTypes = []string{"new_connection", "repair", "meter", "billing", "complaint", "others"}

// Input is a service request as submitted by a customer.
type Input struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ServiceType string `json:"service_type"`
	Message     string `json:"message"`
}

// TestInput returns the sample request used when intake is exercised with GET.
func TestInput() Input {
	return Input{
		Name:        "Test User",
		Email:       "test@example.com",
		Phone:       "09171234567",
		Address:     "Test Address",
		ServiceType: DefaultServiceType,
		Message:     "Test message",
	}
}

// Alerter notifies staff about new requests.
type Alerter interface {
	SendServiceRequestAlert(ctx context.Context, alert alerting.ServiceRequestAlert) error
}

// Service validates, stores and announces service requests.
type Service struct {
	store    storage.Storage
	notifier notification.Notifier
	alerter  Alerter
	clock    clockwork.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the customer confirmation sender; the default is notification.Noop.
func WithNotifier(n notification.Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithAlerter enables staff alerts.
func WithAlerter(a Alerter) Option { return func(s *Service) { s.alerter = a } }

// WithClock sets the clock used for CreatedAt.
func WithClock(c clockwork.Clock) Option { return func(s *Service) { s.clock = c } }

// NewService returns a Service storing into store.
func NewService(store storage.Storage, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notification.Noop{},
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates in, stores it as a pending request and fires the
// confirmation and staff alert. Delivery failures are logged only.
func (s *Service) Submit(ctx context.Context, in Input) (*storage.ServiceRequest, error) {
	in = normalize(in)
	if err := validate(in); err != nil {
		return nil, err
	}

	req := &storage.ServiceRequest{
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Address:     in.Address,
		ServiceType: in.ServiceType,
		Message:     in.Message,
		Status:      storage.StatusPending,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateServiceRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("store service request: %w", err)
	}

	log := logging.With(zap.String("reference", req.ReferenceNumber()), zap.String("service_type", req.ServiceType))
	log.Info("requests: service request created")

	if err := s.notifier.NotifyServiceRequest(ctx, *req); err != nil {
		log.Warn("requests: confirmation not sent", zap.Error(err))
	}
	if s.alerter != nil {
		alert := alerting.ServiceRequestAlert{Request: *req}
		if counts, err := s.store.CountServiceRequestsByStatus(ctx); err == nil {
			alert.Pending = counts[storage.StatusPending]
		}
		if err := s.alerter.SendServiceRequestAlert(ctx, alert); err != nil {
			log.Warn("requests: staff alert not sent", zap.Error(err))
		}
	}
	return req, nil
}

// List returns every stored request in ID order.
func (s *Service) List(ctx context.Context) ([]storage.ServiceRequest, error) {
	return s.store.ListServiceRequests(ctx)
}

func normalize(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Message = strings.TrimSpace(in.Message)
	in.ServiceType = strings.ToLower(strings.TrimSpace(in.ServiceType))
	if in.ServiceType == "" {
		in.ServiceType = DefaultServiceType
	}
	return in
}

func validate(in Input) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	case in.Email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	case !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: email %q is not a valid address", ErrInvalidRequest, in.Email)
	case in.Phone == "":
		return fmt.Errorf("%w: phone is required", ErrInvalidRequest)
	case in.Address == "":
		return fmt.Errorf("%w: address is required", ErrInvalidRequest)
	}
	for _, t := range ServiceTypes {
		if in.ServiceType == t {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown service_type %q (expected one of %s)",
		ErrInvalidRequest, in.ServiceType, strings.Join(ServiceTypes, ", "))
}
