package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/ovenline/pizzeria-backend/api/responses"
	stripewebhook "github.com/ovenline/pizzeria-backend/internal/webhooks/stripe"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

const (
	maxStripePayloadBytes = 65536
	signatureHeader       = "Stripe-Signature"
)

// EventHandler applies verified Stripe events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
	Record(eventType, outcome string)
}

// ReplayGuard de-duplicates Stripe redeliveries by event id.
type ReplayGuard interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// StripeWebhook verifies and applies Stripe checkout events. Once the
// signature is valid the endpoint always acknowledges with 200 so Stripe does
// not retry events that failed for reasons a retry would not fix.
func StripeWebhook(svc EventHandler, guard ReplayGuard, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || secret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe webhook not configured"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStripePayloadBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read stripe payload"))
			return
		}

		event, err := stripewebhook.Verify(payload, r.Header.Get(signatureHeader), secret)
		if err != nil {
			svc.Record("unknown", stripewebhook.OutcomeInvalidSignature)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"stripe_event_id":   event.ID,
				"stripe_event_type": string(event.Type),
			})
		}

		if guard != nil {
			seen, err := guard.Seen(ctx, event.ID)
			if err != nil && logg != nil {
				logg.Warn(ctx, "stripe replay guard unavailable; processing event")
			}
			if err == nil && seen {
				svc.Record(string(event.Type), stripewebhook.OutcomeDuplicate)
				responses.WriteRaw(w, http.StatusOK, receivedResponse{Received: true})
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if logg != nil {
				logg.Error(ctx, "stripe event processing failed", err)
			}
			if guard != nil {
				if forgetErr := guard.Forget(ctx, event.ID); forgetErr != nil && logg != nil {
					logg.Error(ctx, "stripe replay guard release failed", forgetErr)
				}
			}
		}

		responses.WriteRaw(w, http.StatusOK, receivedResponse{Received: true})
	}
}
