package payments

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	pkgstripe "github.com/ovenline/pizzeria-backend/pkg/stripe"
)

type stubSessions struct {
	params  *stripe.CheckoutSessionCreateParams
	session *stripe.CheckoutSession
	err     error
}

func (s *stubSessions) Create(_ context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	s.params = params
	return s.session, s.err
}

func newGateway(t *testing.T, sessions SessionClient) *StripeGateway {
	t.Helper()
	gw, err := NewStripeGateway(sessions, " USD ", logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gw
}

func testRequest(orderID uuid.UUID) CheckoutRequest {
	return CheckoutRequest{
		OrderID:       orderID,
		CustomerEmail: "mario@example.com",
		LineItems: []LineSummary{
			{Name: "Margherita", Quantity: 2, Size: enums.PizzaSizeMedium},
			{Name: "Cola", Quantity: 1, Size: enums.PizzaSizeMedium},
		},
		Total:      decimal.RequireFromString("30.7476"),
		SuccessURL: "https://pizza.example/orders/{ORDER_ID}?paid=1",
		CancelURL:  "https://pizza.example/orders/{ORDER_ID}?cancelled=1",
	}
}

func TestCreateCheckoutSessionChargesTotalAsSingleLine(t *testing.T) {
	orderID := uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001")
	sessions := &stubSessions{session: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}}
	gw := newGateway(t, sessions)

	result, err := gw.CreateCheckoutSession(context.Background(), testRequest(orderID))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if result.SessionID != "cs_test_1" || result.CheckoutURL == "" {
		t.Fatalf("unexpected result %+v", result)
	}

	p := sessions.params
	if len(p.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(p.LineItems))
	}
	line := p.LineItems[0]
	if *line.Quantity != 1 || *line.PriceData.UnitAmount != 3075 {
		t.Fatalf("expected 1 x 3075 cents, got %d x %d", *line.Quantity, *line.PriceData.UnitAmount)
	}
	if *line.PriceData.Currency != "usd" {
		t.Fatalf("unexpected currency %q", *line.PriceData.Currency)
	}
	if got := *line.PriceData.ProductData.Name; got != "Order #3F2A9C1E" {
		t.Fatalf("unexpected charge name %q", got)
	}
	if got := *line.PriceData.ProductData.Description; got != "2x Margherita (MEDIUM), 1x Cola (MEDIUM)" {
		t.Fatalf("unexpected description %q", got)
	}
	if p.Metadata[MetadataOrderID] != orderID.String() || *p.ClientReferenceID != orderID.String() {
		t.Fatalf("order id missing from metadata/reference: %+v", p.Metadata)
	}
	if *p.SuccessURL != "https://pizza.example/orders/"+orderID.String()+"?paid=1" {
		t.Fatalf("unexpected success url %q", *p.SuccessURL)
	}
	if *p.CustomerEmail != "mario@example.com" {
		t.Fatalf("unexpected customer email %q", *p.CustomerEmail)
	}
}

func TestCreateCheckoutSessionMapsGatewayErrors(t *testing.T) {
	gw := newGateway(t, &stubSessions{err: errors.New("connection reset")})

	_, err := gw.CreateCheckoutSession(context.Background(), testRequest(uuid.New()))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodePaymentUnavailable {
		t.Fatalf("expected payment unavailable, got %s", code)
	}

	gw = newGateway(t, &stubSessions{session: &stripe.CheckoutSession{ID: "cs_only_id"}})
	_, err = gw.CreateCheckoutSession(context.Background(), testRequest(uuid.New()))
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodePaymentUnavailable {
		t.Fatalf("expected payment unavailable for incomplete session, got %s", code)
	}
}

func TestCreateCheckoutSessionRejectsZeroTotal(t *testing.T) {
	sessions := &stubSessions{}
	gw := newGateway(t, sessions)
	req := testRequest(uuid.New())
	req.Total = decimal.RequireFromString("0.004")

	if _, err := gw.CreateCheckoutSession(context.Background(), req); err == nil {
		t.Fatal("expected zero total to be rejected")
	}
	if sessions.params != nil {
		t.Fatal("gateway should not be called")
	}
}

func TestNewStripeGatewayValidates(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	if _, err := NewStripeGateway(nil, "usd", logg); err == nil {
		t.Fatal("expected error without session client")
	}
	if _, err := NewStripeGateway(&stubSessions{}, " ", logg); err == nil {
		t.Fatal("expected error without currency")
	}
	if NewStripeSessionClient(nil) != nil {
		t.Fatal("expected nil client without stripe api")
	}
}

func TestStripeSessionClientSendsConfiguredKey(t *testing.T) {
	var gotAuth, gotPath, gotOrderRef string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := r.ParseForm(); err == nil {
			gotOrderRef = r.PostForm.Get("client_reference_id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"cs_test_auth","object":"checkout.session","url":"https://checkout.stripe.com/c/cs_test_auth"}`)
	}))
	defer srv.Close()

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		MaxNetworkRetries: stripe.Int64(0),
	})
	client, err := pkgstripe.NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_pizzeria"}, nil, stripe.WithBackends(backends))
	if err != nil {
		t.Fatalf("new stripe client: %v", err)
	}
	gw := newGateway(t, NewStripeSessionClient(client.API()))

	orderID := uuid.New()
	result, err := gw.CreateCheckoutSession(context.Background(), testRequest(orderID))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if gotAuth != "Bearer sk_test_pizzeria" {
		t.Fatalf("expected configured key in Authorization header, got %q", gotAuth)
	}
	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotOrderRef != orderID.String() {
		t.Fatalf("expected client_reference_id %s, got %q", orderID, gotOrderRef)
	}
	if result.SessionID != "cs_test_auth" {
		t.Fatalf("unexpected session %+v", result)
	}
}
