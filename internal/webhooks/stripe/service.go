// Package stripewebhook reconciles order status with Stripe checkout
// session events.
package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/payments"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/metrics"
)

// Outcomes recorded per handled event.
const (
	OutcomeApplied          = "applied"
	OutcomeIgnored          = "ignored"
	OutcomeFailed           = "failed"
	OutcomeDuplicate        = "duplicate"
	OutcomeInvalidSignature = "invalid_signature"
)

type statusUpdater interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, change orders.StatusChange) (*orders.OrderDTO, error)
}

type ServiceParams struct {
	Orders  statusUpdater
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type Service struct {
	orders  statusUpdater
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order status service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{orders: params.Orders, metrics: params.Metrics, logg: params.Logger}, nil
}

// Verify checks the Stripe-Signature header against the raw body and decodes
// the event. API version mismatches between account and library are accepted.
func Verify(payload []byte, header, secret string) (stripe.Event, error) {
	if strings.TrimSpace(header) == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeInvalidSignature, "stripe signature missing")
	}
	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeInvalidSignature, err, "invalid stripe signature")
	}
	return event, nil
}

// TargetStatus maps a checkout session event to the order status it implies.
func TargetStatus(eventType stripe.EventType) (enums.OrderStatus, bool) {
	switch eventType {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return enums.OrderStatusConfirmed, true
	case stripe.EventTypeCheckoutSessionExpired:
		return enums.OrderStatusCancelled, true
	default:
		return "", false
	}
}

// HandleEvent applies a verified event. Unhandled event types are logged and
// ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)

	status, ok := TargetStatus(event.Type)
	if !ok {
		s.logg.Debug(ctx, "stripe event ignored: "+eventType)
		s.metrics.IncWebhookEvent(eventType, OutcomeIgnored)
		return nil
	}

	orderID, err := orderIDFromSession(event.Data.Raw)
	if err != nil {
		s.metrics.IncWebhookEvent(eventType, OutcomeFailed)
		return err
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	if _, err := s.orders.UpdateStatus(ctx, orderID, orders.StatusChange{
		Status: status,
		Source: orders.SourceWebhook,
	}); err != nil {
		s.metrics.IncWebhookEvent(eventType, OutcomeFailed)
		return err
	}
	s.metrics.IncWebhookEvent(eventType, OutcomeApplied)
	s.logg.Info(ctx, fmt.Sprintf("stripe event %s applied (%s)", event.ID, eventType))
	return nil
}

// Record counts an outcome decided outside HandleEvent, such as a replay.
func (s *Service) Record(eventType, outcome string) {
	s.metrics.IncWebhookEvent(eventType, outcome)
}

// orderIDFromSession reads the order id from session metadata, falling back
// to client_reference_id.
func orderIDFromSession(raw json.RawMessage) (uuid.UUID, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	candidate := strings.TrimSpace(session.Metadata[payments.MetadataOrderID])
	if candidate == "" {
		candidate = strings.TrimSpace(session.ClientReferenceID)
	}
	if candidate == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session has no order reference")
	}
	id, err := uuid.Parse(candidate)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order reference")
	}
	return id, nil
}
