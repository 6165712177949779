package orders

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/internal/payments"
	"github.com/ovenline/pizzeria-backend/internal/realtime"
	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/db/dbtest"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
)

func strPtr(v string) *string { return &v }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type env struct {
	t      *testing.T
	conn   *gorm.DB
	client *db.Client
	repo   Repository
	outbox *outbox.Service
	menu   map[string]*models.Product
}

func newEnv(t *testing.T) *env {
	t.Helper()
	conn := dbtest.Open(t)
	e := &env{
		t:      t,
		conn:   conn,
		client: db.NewFromConn(conn),
		repo:   NewRepository(conn),
		outbox: outbox.NewService(outbox.NewRepository(conn), testLogger()),
		menu:   map[string]*models.Product{},
	}

	category := &models.Category{ID: uuid.New(), Name: "Menu", Slug: "menu"}
	require.NoError(t, conn.Create(category).Error)
	for _, p := range []struct {
		name, price string
		available   bool
	}{
		{"Margherita", "12.99", true},
		{"Cola", "2.49", true},
		{"Garlic Bread", "4.99", true},
		{"Espresso", "5.00", true},
		{"Hawaiian", "11.00", false},
	} {
		product := &models.Product{
			Name:        p.name,
			Slug:        uuid.NewString(),
			Price:       decimal.RequireFromString(p.price),
			CategoryID:  category.ID,
			IsAvailable: p.available,
		}
		require.NoError(t, conn.Omit("Category").Create(product).Error)
		e.menu[p.name] = product
	}
	return e
}

// customer creates a user with a complete delivery profile unless bare is set.
func (e *env) customer(bare bool) *models.User {
	e.t.Helper()
	user := &models.User{
		Email:        uuid.NewString() + "@example.com",
		Name:         "Giulia",
		PasswordHash: "hash",
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	if !bare {
		user.Phone = strPtr("555-0100")
		user.Address = strPtr("1 Via Roma")
		user.City = strPtr("Napoli")
		user.PostalCode = strPtr("80100")
	}
	require.NoError(e.t, e.conn.Create(user).Error)
	return user
}

func (e *env) addToCart(userID uuid.UUID, product string, quantity int) {
	e.t.Helper()
	item := &models.CartItem{
		UserID:    userID,
		ProductID: e.menu[product].ID,
		Size:      enums.PizzaSizeMedium,
		Quantity:  quantity,
	}
	require.NoError(e.t, e.conn.Omit("Product").Create(item).Error)
}

func (e *env) coupon(c models.Coupon) *models.Coupon {
	e.t.Helper()
	require.NoError(e.t, e.conn.Create(&c).Error)
	return &c
}

func (e *env) cartSize(userID uuid.UUID) int64 {
	var n int64
	require.NoError(e.t, e.conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func (e *env) outboxCount(eventType enums.OutboxEventType) int64 {
	var n int64
	require.NoError(e.t, e.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func (e *env) checkoutService(settings CheckoutSettings, gateway payments.Gateway) CheckoutService {
	e.t.Helper()
	svc, err := NewCheckoutService(CheckoutServiceParams{
		DB:       e.client,
		Orders:   e.repo,
		Outbox:   e.outbox,
		Gateway:  gateway,
		Settings: settings,
		Logger:   testLogger(),
	})
	require.NoError(e.t, err)
	return svc
}

func (e *env) placeOrder(userID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	e.t.Helper()
	order := &models.Order{
		UserID:            userID,
		Status:            status,
		PaymentMethod:     enums.PaymentMethodOnline,
		Subtotal:          decimal.RequireFromString("12.99"),
		Discount:          decimal.Zero,
		DeliveryFee:       decimal.NewFromInt(5),
		Tax:               decimal.RequireFromString("1.0392"),
		Total:             decimal.RequireFromString("19.0292"),
		Address:           "1 Via Roma",
		City:              "Napoli",
		PostalCode:        "80100",
		Phone:             "555-0100",
		EstimatedDelivery: createdAt.Add(45 * time.Minute),
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		Items: []models.OrderItem{{
			ProductID:   e.menu["Margherita"].ID,
			ProductName: "Margherita",
			Quantity:    1,
			Price:       decimal.RequireFromString("12.99"),
			Size:        enums.PizzaSizeMedium,
		}},
	}
	require.NoError(e.t, e.repo.Create(context.Background(), order))
	return order
}

type stubGateway struct {
	mu       sync.Mutex
	requests []payments.CheckoutRequest
	err      error
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payments.CheckoutSession{
		SessionID:   "cs_test_" + payments.ShortID(req.OrderID),
		CheckoutURL: "https://checkout.stripe.com/c/" + req.OrderID.String(),
	}, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []realtime.StatusEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event realtime.StatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) published() []realtime.StatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]realtime.StatusEvent(nil), n.events...)
}
