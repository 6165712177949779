package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stripe/stripe-go/v84"

	"github.com/ovenline/pizzeria-backend/api/controllers"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/products"
	pkgAuth "github.com/ovenline/pizzeria-backend/pkg/auth"
	"github.com/ovenline/pizzeria-backend/pkg/auth/session"
	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: "*"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "pizzeria", ExpirationMinutes: 15},
		Stripe: config.StripeConfig{
			Secret: "whsec_router",
		},
	}
}

func bearer(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubProducts struct {
	products.Service
}

func (stubProducts) ListCategories(context.Context) ([]products.CategoryDTO, error) {
	return []products.CategoryDTO{{ID: uuid.New(), Name: "Pizzas", Slug: "pizzas"}}, nil
}

type stubCheckout struct {
	calls int
	users []uuid.UUID
}

func (s *stubCheckout) CreateOrder(_ context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*orders.CheckoutResult, error) {
	s.calls++
	s.users = append(s.users, userID)
	return &orders.CheckoutResult{Order: &orders.OrderDTO{ID: uuid.New(), UserID: userID, PaymentMethod: input.PaymentMethod}}, nil
}

type stubStatus struct {
	changes []orders.StatusChange
}

func (s *stubStatus) UpdateStatus(_ context.Context, orderID uuid.UUID, change orders.StatusChange) (*orders.OrderDTO, error) {
	s.changes = append(s.changes, change)
	return &orders.OrderDTO{ID: orderID, Status: change.Status}, nil
}

type memoryIdempotency struct {
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

func serve(handler http.Handler, method, path, auth, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, Dependencies{
		Readiness: map[string]controllers.Pinger{"database": stubPinger{}, "redis": stubPinger{}},
	})

	if rec := serve(router, http.MethodGet, "/health/live", "", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected live 200, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/health/ready", "", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected ready 200, got %d", rec.Code)
	}

	down := NewRouter(cfg, nil, Dependencies{
		Readiness: map[string]controllers.Pinger{"redis": stubPinger{err: fmt.Errorf("refused")}},
	})
	if rec := serve(down, http.MethodGet, "/health/ready", "", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected ready 503, got %d", rec.Code)
	}
}

func TestPublicMenuNeedsNoToken(t *testing.T) {
	router := NewRouter(testConfig(), nil, Dependencies{Products: stubProducts{}})

	rec := serve(router, http.MethodGet, "/api/v1/categories", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data []products.CategoryDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Slug != "pizzas" {
		t.Fatalf("unexpected categories %+v", body.Data)
	}
}

func TestCustomerRoutesRequireToken(t *testing.T) {
	router := NewRouter(testConfig(), nil, Dependencies{})

	for _, path := range []string{"/api/v1/me", "/api/v1/cart", "/api/v1/orders", "/api/v1/orders/stream"} {
		if rec := serve(router, http.MethodGet, path, "", "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	status := &stubStatus{}
	router := NewRouter(cfg, nil, Dependencies{OrderStatus: status})
	orderID := uuid.New()
	path := "/api/v1/admin/orders/" + orderID.String() + "/status"

	customer := bearer(t, cfg, uuid.New(), enums.UserRoleCustomer)
	if rec := serve(router, http.MethodPatch, path, customer, `{"status":"PREPARING"}`, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer, got %d", rec.Code)
	}

	adminID := uuid.New()
	admin := bearer(t, cfg, adminID, enums.UserRoleAdmin)
	rec := serve(router, http.MethodPatch, path, admin, `{"status":"preparing"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(status.changes) != 1 {
		t.Fatalf("expected one status change, got %d", len(status.changes))
	}
	change := status.changes[0]
	if change.Status != enums.OrderStatusPreparing || change.Source != orders.SourceAdmin {
		t.Fatalf("unexpected change %+v", change)
	}
	if change.Actor == nil || change.Actor.UserID != adminID || change.Actor.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected actor %+v", change.Actor)
	}
}

func TestCheckoutIsIdempotent(t *testing.T) {
	cfg := testConfig()
	checkout := &stubCheckout{}
	router := NewRouter(cfg, nil, Dependencies{
		Checkout:    checkout,
		Idempotency: &memoryIdempotency{data: map[string]string{}},
	})
	userID := uuid.New()
	token := bearer(t, cfg, userID, enums.UserRoleCustomer)
	payload := `{"paymentMethod":"cash_on_delivery"}`

	if rec := serve(router, http.MethodPost, "/api/v1/checkout", token, payload, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", rec.Code)
	}

	headers := map[string]string{"Idempotency-Key": "order-1"}
	first := serve(router, http.MethodPost, "/api/v1/checkout", token, payload, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}
	second := serve(router, http.MethodPost, "/api/v1/checkout", token, payload, headers)
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatal("expected replay to return the stored body")
	}
	if checkout.calls != 1 || checkout.users[0] != userID {
		t.Fatalf("expected a single checkout for %s, got %d calls", userID, checkout.calls)
	}
}

func TestStripeWebhookRejectsUnsignedPayload(t *testing.T) {
	router := NewRouter(testConfig(), nil, Dependencies{StripeWebhook: noopWebhook{}})

	rec := serve(router, http.MethodPost, "/api/v1/webhooks/stripe", "", `{"id":"evt_1"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INVALID_SIGNATURE" {
		t.Fatalf("expected INVALID_SIGNATURE, got %q", body.Error.Code)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pizzeria_orders_created_total 1\n"))
	})
	router := NewRouter(testConfig(), nil, Dependencies{Metrics: metrics})

	rec := serve(router, http.MethodGet, "/metrics", "", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pizzeria_orders_created_total") {
		t.Fatalf("unexpected metrics response %d %q", rec.Code, rec.Body.String())
	}
}

type noopWebhook struct{}

func (noopWebhook) HandleEvent(context.Context, *stripe.Event) error { return nil }

func (noopWebhook) Record(string, string) {}
