package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/internal/cart"
	"github.com/ovenline/pizzeria-backend/internal/coupons"
	"github.com/ovenline/pizzeria-backend/internal/payments"
	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/checkout"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/metrics"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
	"github.com/ovenline/pizzeria-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckoutService turns a customer's cart into an order.
type CheckoutService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CheckoutResult, error)
}

// CreateOrderInput is the checkout request after transport decoding.
type CreateOrderInput struct {
	Delivery      checkout.DeliveryOverride
	Notes         *string
	CouponID      *uuid.UUID
	PaymentMethod enums.PaymentMethod
}

// CheckoutServiceParams bundles checkout dependencies. Gateway may be nil when
// online payments are not configured; ONLINE orders then report a payment error.
type CheckoutServiceParams struct {
	DB       txRunner
	Orders   Repository
	Outbox   outbox.Emitter
	Gateway  payments.Gateway
	Settings CheckoutSettings
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
}

type checkoutService struct {
	db       txRunner
	orders   Repository
	outbox   outbox.Emitter
	gateway  payments.Gateway
	settings CheckoutSettings
	calc     pricing.Calculator
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewCheckoutService(params CheckoutServiceParams) (CheckoutService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settings.DeliveryETA <= 0 {
		return nil, fmt.Errorf("delivery eta must be positive")
	}
	return &checkoutService{
		db:       params.DB,
		orders:   params.Orders,
		outbox:   params.Outbox,
		gateway:  params.Gateway,
		settings: params.Settings,
		calc:     pricing.NewCalculator(params.Settings.Pricing),
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// placed is what the transaction hands to the post-commit payment step.
type placed struct {
	order    *models.Order
	customer *models.User
}

func (s *checkoutService) CreateOrder(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*CheckoutResult, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	ctx = s.logg.WithUserID(ctx, userID.String())

	var out placed
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		result, err := s.placeOrder(ctx, tx, userID, input)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	if err != nil {
		s.metrics.IncCheckoutFailure(string(pkgerrors.As(err).Code()))
		return nil, err
	}

	order := out.order
	s.metrics.IncCreated(string(order.PaymentMethod))
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "order created")

	result := &CheckoutResult{Order: FromModel(order)}
	if order.PaymentMethod == enums.PaymentMethodOnline {
		s.openPaymentSession(ctx, out, result)
	}
	return result, nil
}

func (s *checkoutService) placeOrder(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input CreateOrderInput) (placed, error) {
	cartRepo := cart.NewRepository(tx)
	couponRepo := coupons.NewRepository(tx)
	orderRepo := s.orders.WithTx(tx)
	now := s.now()

	items, err := cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return placed{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return placed{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	if unavailable := unavailableProducts(items); len(unavailable) > 0 {
		return placed{}, pkgerrors.New(pkgerrors.CodeProductUnavailable, "some products are no longer available").
			WithDetails(map[string]any{"productIds": unavailable})
	}

	customer, err := users.NewRepository(tx).FindByID(ctx, userID)
	if err != nil {
		return placed{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer == nil {
		return placed{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer not found")
	}
	delivery, err := checkout.ResolveDelivery(input.Delivery, customer)
	if err != nil {
		return placed{}, err
	}

	lines := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.LineItem{UnitPrice: item.Product.Price, Quantity: item.Quantity})
	}
	subtotal := pricing.Subtotal(lines)

	coupon := s.applicableCoupon(ctx, couponRepo, input.CouponID, subtotal, now)
	breakdown := s.calc.Price(lines, coupons.RuleFor(coupon))
	if err := s.checkCashMinimum(input.PaymentMethod, breakdown); err != nil {
		return placed{}, err
	}

	if coupon != nil {
		claimed, err := couponRepo.Claim(ctx, coupon.ID)
		if err != nil {
			return placed{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim coupon")
		}
		if !claimed {
			s.logg.Info(ctx, "coupon exhausted during checkout; pricing without discount")
			coupon = nil
			breakdown = s.calc.Price(lines, nil)
			if err := s.checkCashMinimum(input.PaymentMethod, breakdown); err != nil {
				return placed{}, err
			}
		}
	}

	order := &models.Order{
		UserID:            userID,
		Status:            enums.OrderStatusPending,
		PaymentMethod:     input.PaymentMethod,
		Subtotal:          breakdown.Subtotal,
		Discount:          breakdown.Discount,
		DeliveryFee:       breakdown.DeliveryFee,
		Tax:               breakdown.Tax,
		Total:             breakdown.Total,
		Address:           delivery.Address,
		City:              delivery.City,
		PostalCode:        delivery.PostalCode,
		Phone:             delivery.Phone,
		Notes:             trimmedOrNil(input.Notes),
		EstimatedDelivery: now.Add(s.settings.DeliveryETA),
		Items:             make([]models.OrderItem, 0, len(items)),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if coupon != nil {
		id := coupon.ID
		order.CouponID = &id
	}
	itemCount := 0
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			Price:       item.Product.Price,
			Size:        item.Size,
			CreatedAt:   now,
		})
		itemCount += item.Quantity
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return placed{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: userID, Role: customer.Role},
		OccurredAt:    now,
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        userID,
			PaymentMethod: order.PaymentMethod,
			CouponID:      order.CouponID,
			ItemCount:     itemCount,
			Subtotal:      pricing.Display(order.Subtotal),
			Discount:      pricing.Display(order.Discount),
			Total:         pricing.Display(order.Total),
		},
	}); err != nil {
		return placed{}, err
	}

	if err := cartRepo.DeleteByUser(ctx, userID); err != nil {
		return placed{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return placed{order: order, customer: customer}, nil
}

// applicableCoupon returns the coupon when it passes every rule against the
// raw subtotal. A coupon that fails validation is dropped without error and
// the order is priced without a discount.
func (s *checkoutService) applicableCoupon(ctx context.Context, repo *coupons.Repository, couponID *uuid.UUID, subtotal decimal.Decimal, now time.Time) *models.Coupon {
	if couponID == nil || *couponID == uuid.Nil {
		return nil
	}
	coupon, err := repo.FindByID(ctx, *couponID)
	if err != nil {
		s.logg.Error(ctx, "coupon lookup failed; pricing without discount", err)
		return nil
	}
	if err := coupons.Evaluate(coupon, &subtotal, now); err != nil {
		s.logg.Info(ctx, "coupon rejected at checkout: "+string(pkgerrors.As(err).Code()))
		return nil
	}
	return coupon
}

func (s *checkoutService) checkCashMinimum(method enums.PaymentMethod, breakdown pricing.Breakdown) error {
	if method != enums.PaymentMethodCashOnDelivery {
		return nil
	}
	if breakdown.Total.LessThan(s.settings.CashMinimum) {
		return pkgerrors.New(pkgerrors.CodeCODMinimumNotMet,
			fmt.Sprintf("cash on delivery requires an order total of at least %s", pricing.Display(s.settings.CashMinimum))).
			WithDetails(map[string]any{
				"minimum": pricing.Display(s.settings.CashMinimum),
				"total":   pricing.Display(breakdown.Total),
			})
	}
	return nil
}

// openPaymentSession runs after commit. Failures leave the order PENDING and
// are reported on the result.
func (s *checkoutService) openPaymentSession(ctx context.Context, out placed, result *CheckoutResult) {
	order := out.order
	if s.gateway == nil {
		s.metrics.IncPaymentSession("unconfigured")
		msg := pkgerrors.MetadataFor(pkgerrors.CodePaymentUnavailable).PublicMessage
		result.Error = &msg
		return
	}

	lines := make([]payments.LineSummary, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payments.LineSummary{Name: item.ProductName, Quantity: item.Quantity, Size: item.Size})
	}
	name := out.customer.Name
	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		OrderID:       order.ID,
		CustomerEmail: out.customer.Email,
		CustomerName:  &name,
		LineItems:     lines,
		Total:         order.Total,
		SuccessURL:    s.settings.SuccessURL,
		CancelURL:     s.settings.CancelURL,
	})
	if err != nil {
		s.metrics.IncPaymentSession("failed")
		s.logg.Error(ctx, "payment session failed; order left pending", err)
		msg := pkgerrors.As(err).Message()
		if msg == "" {
			msg = pkgerrors.MetadataFor(pkgerrors.CodePaymentUnavailable).PublicMessage
		}
		result.Error = &msg
		return
	}

	if err := s.orders.SetCheckoutSession(ctx, order.ID, session.SessionID); err != nil {
		s.logg.Error(ctx, "failed to store checkout session id", err)
	} else {
		order.CheckoutSessionID = &session.SessionID
		result.Order.CheckoutSessionID = &session.SessionID
	}
	s.metrics.IncPaymentSession("created")
	result.CheckoutURL = &session.CheckoutURL
	result.CheckoutID = &session.SessionID
}

func unavailableProducts(items []models.CartItem) []uuid.UUID {
	var out []uuid.UUID
	for _, item := range items {
		if item.Product == nil || !item.Product.IsAvailable {
			out = append(out, item.ProductID)
		}
	}
	return out
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
