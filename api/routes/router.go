package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ovenline/pizzeria-backend/api/controllers"
	webhookcontrollers "github.com/ovenline/pizzeria-backend/api/controllers/webhooks"
	"github.com/ovenline/pizzeria-backend/api/middleware"
	"github.com/ovenline/pizzeria-backend/internal/auth"
	"github.com/ovenline/pizzeria-backend/internal/cart"
	"github.com/ovenline/pizzeria-backend/internal/coupons"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/products"
	"github.com/ovenline/pizzeria-backend/internal/realtime"
	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/auth/session"
	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP surface needs.
// Nil services answer 500 on their routes.
type Dependencies struct {
	Auth          auth.Service
	Register      auth.RegisterService
	Users         users.Service
	Products      products.Service
	Cart          cart.Service
	Coupons       coupons.Service
	Checkout      orders.CheckoutService
	OrderQueries  orders.QueryService
	OrderStatus   orders.StatusService
	StripeWebhook webhookcontrollers.EventHandler
	WebhookGuard  webhookcontrollers.ReplayGuard
	Streamer      *realtime.Streamer

	Sessions    session.AccessSessionChecker
	RateLimiter middleware.RateLimiterStore
	Idempotency redis.IdempotencyStore
	Readiness   map[string]controllers.Pinger
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginLimit := middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)
	registerLimit := middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)
	idempotent := middleware.Idempotency(deps.Idempotency, logg)
	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.WebhookGuard, cfg.Stripe.Secret, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(registerLimit, idempotent).Post("/register", controllers.AuthRegister(deps.Register, logg))
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(loginLimit).Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Get("/categories", controllers.ListCategories(deps.Products, logg))
		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{slug}", controllers.GetProduct(deps.Products, logg))
		r.Post("/coupons/validate", controllers.ValidateCoupon(deps.Coupons, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/me", controllers.GetProfile(deps.Users, logg))
			r.Put("/me", controllers.UpdateProfile(deps.Users, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.With(idempotent).Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListMyOrders(deps.OrderQueries, logg))
				r.Get("/stream", controllers.OrderStream(deps.Streamer, logg))
				r.Get("/{orderId}", controllers.GetMyOrder(deps.OrderQueries, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated)
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(deps.Products, logg))
				r.With(idempotent).Post("/", controllers.AdminCreateCategory(deps.Products, logg))
				r.Put("/{categoryId}", controllers.AdminUpdateCategory(deps.Products, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.Products, logg))
			})
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Products, logg))
				r.With(idempotent).Post("/", controllers.AdminCreateProduct(deps.Products, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
			})
			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminListCoupons(deps.Coupons, logg))
				r.With(idempotent).Post("/", controllers.AdminCreateCoupon(deps.Coupons, logg))
				r.Patch("/{couponId}", controllers.AdminUpdateCoupon(deps.Coupons, logg))
				r.Delete("/{couponId}", controllers.AdminDeleteCoupon(deps.Coupons, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.OrderQueries, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(deps.OrderQueries, logg))
				r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.OrderStatus, logg))
			})
			r.Get("/customers", controllers.AdminListCustomers(deps.Users, logg))
		})
	})

	return r
}
