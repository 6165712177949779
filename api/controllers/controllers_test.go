package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/api/middleware"
	"github.com/ovenline/pizzeria-backend/internal/cart"
	"github.com/ovenline/pizzeria-backend/internal/coupons"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

func authedRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleCustomer))
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for k, v := range params {
			rc.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

type captureCheckout struct {
	input orders.CreateOrderInput
	err   error
}

func (c *captureCheckout) CreateOrder(_ context.Context, userID uuid.UUID, input orders.CreateOrderInput) (*orders.CheckoutResult, error) {
	c.input = input
	if c.err != nil {
		return nil, c.err
	}
	return &orders.CheckoutResult{Order: &orders.OrderDTO{UserID: userID}}, nil
}

func TestCheckoutMapsRequest(t *testing.T) {
	svc := &captureCheckout{}
	couponID := uuid.New()
	body := `{"address":"Via Roma 1","city":"Napoli","notes":" ring twice ","couponId":"` + couponID.String() + `","paymentMethod":"online"}`
	rec := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.New(), nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.input.PaymentMethod != enums.PaymentMethodOnline {
		t.Fatalf("expected ONLINE, got %q", svc.input.PaymentMethod)
	}
	if svc.input.Delivery.Address == nil || *svc.input.Delivery.Address != "Via Roma 1" {
		t.Fatalf("expected address override, got %+v", svc.input.Delivery)
	}
	if svc.input.Delivery.Phone != nil {
		t.Fatal("expected phone override to stay unset")
	}
	if svc.input.Notes == nil || *svc.input.Notes != "ring twice" {
		t.Fatalf("expected sanitized notes, got %v", svc.input.Notes)
	}
	if svc.input.CouponID == nil || *svc.input.CouponID != couponID {
		t.Fatalf("expected coupon id %s", couponID)
	}
}

func TestCheckoutSurfacesBusinessErrors(t *testing.T) {
	svc := &captureCheckout{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")}
	rec := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkout", `{"paymentMethod":"ONLINE"}`, uuid.New(), nil))

	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "EMPTY_CART" {
		t.Fatalf("expected 422 EMPTY_CART, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCheckoutRequiresPaymentMethod(t *testing.T) {
	svc := &captureCheckout{}
	rec := httptest.NewRecorder()

	Checkout(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkout", `{}`, uuid.New(), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

type capturePreview struct {
	coupons.Service
	code     string
	subtotal *decimal.Decimal
}

func (c *capturePreview) Preview(_ context.Context, code string, subtotal *decimal.Decimal) (*coupons.PreviewDTO, error) {
	c.code = code
	c.subtotal = subtotal
	return &coupons.PreviewDTO{Code: strings.ToUpper(code), DiscountAmount: "2.85"}, nil
}

func TestValidateCouponParsesSubtotal(t *testing.T) {
	for _, body := range []string{
		`{"code":"pizza10","subtotal":"28.47"}`,
		`{"code":"pizza10","subtotal":28.47}`,
	} {
		svc := &capturePreview{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/validate", strings.NewReader(body))

		ValidateCoupon(svc, nil).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", body, rec.Code, rec.Body.String())
		}
		if svc.subtotal == nil || !svc.subtotal.Equal(decimal.RequireFromString("28.47")) {
			t.Fatalf("%s: expected subtotal 28.47, got %v", body, svc.subtotal)
		}
	}
}

func TestValidateCouponSubtotalIsOptional(t *testing.T) {
	svc := &capturePreview{}
	rec := httptest.NewRecorder()
	ValidateCoupon(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"pizza10"}`)))

	if rec.Code != http.StatusOK || svc.subtotal != nil {
		t.Fatalf("expected 200 without subtotal, got %d subtotal=%v", rec.Code, svc.subtotal)
	}
}

func TestValidateCouponRejectsBadSubtotal(t *testing.T) {
	for _, body := range []string{
		`{"code":"x","subtotal":"lots"}`,
		`{"code":"x","subtotal":-1}`,
	} {
		svc := &capturePreview{}
		rec := httptest.NewRecorder()
		ValidateCoupon(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
		if svc.code != "" {
			t.Fatalf("%s: service should not be called", body)
		}
	}
}

type captureCart struct {
	cart.Service
	added   cart.AddItemInput
	removed uuid.UUID
}

func (c *captureCart) AddItem(_ context.Context, _ uuid.UUID, input cart.AddItemInput) (*cart.ItemDTO, error) {
	c.added = input
	return &cart.ItemDTO{ID: uuid.New(), ProductID: input.ProductID, Quantity: input.Quantity}, nil
}

func (c *captureCart) RemoveItem(_ context.Context, _ uuid.UUID, itemID uuid.UUID) error {
	c.removed = itemID
	return nil
}

func TestCartHandlers(t *testing.T) {
	svc := &captureCart{}
	userID := uuid.New()
	productID := uuid.New()

	rec := httptest.NewRecorder()
	body := `{"productId":"` + productID.String() + `","quantity":2,"size":"LARGE"}`
	CartAddItem(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/items", body, userID, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.added.ProductID != productID || svc.added.Quantity != 2 {
		t.Fatalf("unexpected add input %+v", svc.added)
	}

	zero := httptest.NewRecorder()
	CartAddItem(svc, nil).ServeHTTP(zero, authedRequest(http.MethodPost, "/api/v1/cart/items", `{"productId":"`+productID.String()+`","quantity":0}`, userID, nil))
	if zero.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", zero.Code)
	}

	itemID := uuid.New()
	del := httptest.NewRecorder()
	CartRemoveItem(svc, nil).ServeHTTP(del, authedRequest(http.MethodDelete, "/", "", userID, map[string]string{"itemId": itemID.String()}))
	if del.Code != http.StatusNoContent || svc.removed != itemID {
		t.Fatalf("expected 204 removing %s, got %d", itemID, del.Code)
	}
}

type captureQueries struct {
	orders.QueryService
	params pagination.Params
}

func (c *captureQueries) ListMine(_ context.Context, _ uuid.UUID, params pagination.Params) (*orders.CustomerOrderList, error) {
	c.params = params
	return &orders.CustomerOrderList{Orders: []orders.OrderDTO{}}, nil
}

func TestListMyOrdersPassesCursor(t *testing.T) {
	svc := &captureQueries{}
	rec := httptest.NewRecorder()

	ListMyOrders(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", "", uuid.New(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
}

type captureProfile struct {
	users.Service
	input users.ProfileInput
}

func (c *captureProfile) UpdateProfile(_ context.Context, userID uuid.UUID, input users.ProfileInput) (*users.UserDTO, error) {
	c.input = input
	return &users.UserDTO{ID: userID}, nil
}

func TestUpdateProfileKeepsAbsentFieldsNil(t *testing.T) {
	svc := &captureProfile{}
	rec := httptest.NewRecorder()

	UpdateProfile(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPut, "/api/v1/me", `{"city":"Napoli","phone":""}`, uuid.New(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.input.Name != nil || svc.input.City == nil || *svc.input.City != "Napoli" {
		t.Fatalf("unexpected profile input %+v", svc.input)
	}
	if svc.input.Phone == nil || *svc.input.Phone != "" {
		t.Fatal("expected empty phone to be forwarded for clearing")
	}
}

type captureCoupons struct {
	coupons.Service
	created coupons.CreateCouponInput
}

func (c *captureCoupons) Create(_ context.Context, input coupons.CreateCouponInput) (*coupons.CouponDTO, error) {
	c.created = input
	return &coupons.CouponDTO{Code: strings.ToUpper(input.Code)}, nil
}

func TestAdminCreateCoupon(t *testing.T) {
	svc := &captureCoupons{}
	rec := httptest.NewRecorder()
	body := `{"code":"slice5","discountType":"fixed","discountValue":"5","maxUses":1}`

	AdminCreateCoupon(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/admin/coupons", body, uuid.New(), nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.DiscountType != enums.DiscountTypeFixed || !svc.created.DiscountValue.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected coupon input %+v", svc.created)
	}
	if !svc.created.IsActive || !svc.created.MinOrderAmount.IsZero() {
		t.Fatalf("expected active coupon with zero minimum, got %+v", svc.created)
	}

	bad := httptest.NewRecorder()
	AdminCreateCoupon(svc, nil).ServeHTTP(bad, authedRequest(http.MethodPost, "/", `{"code":"x","discountType":"bogo","discountValue":"1"}`, uuid.New(), nil))
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown discount type, got %d", bad.Code)
	}
}

func TestHandlersRequireUserContext(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(&captureCart{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
