package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

// MetadataOrderID is the session metadata key carrying the order id.
const MetadataOrderID = "order_id"

// SessionClient exposes the subset of Stripe checkout operations the gateway uses.
type SessionClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

type stripeSessionClient struct {
	api *stripe.Client
}

// NewStripeSessionClient creates checkout sessions through api, which carries
// the configured secret key.
func NewStripeSessionClient(api *stripe.Client) SessionClient {
	if api == nil || api.V1CheckoutSessions == nil {
		return nil
	}
	return &stripeSessionClient{api: api}
}

func (c *stripeSessionClient) Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	return c.api.V1CheckoutSessions.Create(ctx, params)
}

// StripeGateway charges an order through a Stripe hosted checkout session.
type StripeGateway struct {
	sessions SessionClient
	currency string
	logg     *logger.Logger
}

func NewStripeGateway(sessions SessionClient, currency string, logg *logger.Logger) (*StripeGateway, error) {
	if sessions == nil {
		return nil, fmt.Errorf("stripe session client required")
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &StripeGateway{sessions: sessions, currency: currency, logg: logg}, nil
}

// CreateCheckoutSession bills the order total as one line item so the charged
// amount always equals the stored total.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	cents := pricing.ToCents(req.Total)
	if cents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	product := &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
		Name: stripe.String(ChargeName(req.OrderID)),
	}
	if desc := Describe(req.LineItems); desc != "" {
		product.Description = stripe.String(desc)
	}

	orderID := req.OrderID.String()
	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(ResolveURL(req.SuccessURL, req.OrderID)),
		CancelURL:         stripe.String(ResolveURL(req.CancelURL, req.OrderID)),
		ClientReferenceID: stripe.String(orderID),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				UnitAmount:  stripe.Int64(cents),
				ProductData: product,
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: map[string]string{MetadataOrderID: orderID},
		},
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata(MetadataOrderID, orderID)

	session, err := g.sessions.Create(ctx, params)
	if err != nil {
		ctx = g.logg.WithOrderID(ctx, orderID)
		g.logg.Error(ctx, "stripe checkout session failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentUnavailable, err, "payment gateway unavailable")
	}
	if session == nil || session.ID == "" || session.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentUnavailable, "payment gateway returned an incomplete session")
	}
	return &CheckoutSession{SessionID: session.ID, CheckoutURL: session.URL}, nil
}
