package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ovenline/pizzeria-backend/api/controllers"
	"github.com/ovenline/pizzeria-backend/api/routes"
	"github.com/ovenline/pizzeria-backend/internal/auth"
	"github.com/ovenline/pizzeria-backend/internal/cart"
	"github.com/ovenline/pizzeria-backend/internal/coupons"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/payments"
	"github.com/ovenline/pizzeria-backend/internal/products"
	"github.com/ovenline/pizzeria-backend/internal/realtime"
	"github.com/ovenline/pizzeria-backend/internal/users"
	stripewebhook "github.com/ovenline/pizzeria-backend/internal/webhooks/stripe"
	"github.com/ovenline/pizzeria-backend/pkg/auth/session"
	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/env"
	"github.com/ovenline/pizzeria-backend/pkg/instance"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/metrics"
	"github.com/ovenline/pizzeria-backend/pkg/migrate"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
	"github.com/ovenline/pizzeria-backend/pkg/redis"
	pkgstripe "github.com/ovenline/pizzeria-backend/pkg/stripe"
)

const (
	webhookReplayScope = "stripe-webhook"
	shutdownTimeout    = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	deps, hub, err := buildDependencies(ctx, cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to wire api dependencies", err)
		os.Exit(1)
	}

	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "order status hub stopped", err)
		}
	}()

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildDependencies(
	ctx context.Context,
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
) (routes.Dependencies, *realtime.Hub, error) {
	var deps routes.Dependencies

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return deps, nil, err
	}
	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return deps, nil, err
	}
	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Outbox:         outboxSvc,
		Login:          authSvc,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return deps, nil, err
	}
	usersSvc, err := users.NewService(userRepo)
	if err != nil {
		return deps, nil, err
	}
	productsSvc, err := products.NewService(productRepo)
	if err != nil {
		return deps, nil, err
	}
	cartSvc, err := cart.NewService(cart.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		return deps, nil, err
	}
	couponsSvc, err := coupons.NewService(coupons.NewRepository(dbClient.DB()))
	if err != nil {
		return deps, nil, err
	}

	notifier, err := realtime.NewRedisPublisher(cfg.Realtime.Channel, func(context.Context) (realtime.ChannelPublisher, error) {
		return redisClient, nil
	})
	if err != nil {
		return deps, nil, err
	}
	statusSvc, err := orders.NewStatusService(orders.StatusServiceParams{
		DB:                 dbClient,
		Orders:             orderRepo,
		Outbox:             outboxSvc,
		Notifier:           notifier,
		EnforceTransitions: cfg.Orders.EnforceStatusTransitions,
		NotifyTimeout:      cfg.Orders.NotifyTimeout,
		Metrics:            orderMetrics,
		Logger:             logg,
	})
	if err != nil {
		return deps, nil, err
	}

	checkoutParams := orders.CheckoutServiceParams{
		DB:       dbClient,
		Orders:   orderRepo,
		Outbox:   outboxSvc,
		Settings: orders.SettingsFromConfig(cfg.Checkout),
		Metrics:  orderMetrics,
		Logger:   logg,
	}
	if cfg.Stripe.APIKey != "" {
		stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return deps, nil, err
		}
		gateway, err := payments.NewStripeGateway(payments.NewStripeSessionClient(stripeClient.API()), cfg.Checkout.Currency, logg)
		if err != nil {
			return deps, nil, err
		}
		checkoutParams.Gateway = gateway
	} else {
		logg.Warn(ctx, "stripe api key not configured; online checkout disabled")
	}
	checkoutSvc, err := orders.NewCheckoutService(checkoutParams)
	if err != nil {
		return deps, nil, err
	}
	querySvc, err := orders.NewQueryService(orderRepo)
	if err != nil {
		return deps, nil, err
	}

	if cfg.Stripe.Secret != "" {
		webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Orders:  statusSvc,
			Metrics: orderMetrics,
			Logger:  logg,
		})
		if err != nil {
			return deps, nil, err
		}
		guard, err := stripewebhook.NewReplayGuard(redisClient, cfg.Eventing.WebhookReplayTTL, webhookReplayScope)
		if err != nil {
			return deps, nil, err
		}
		deps.StripeWebhook = webhookSvc
		deps.WebhookGuard = guard
	}

	hub, err := realtime.NewHub(redisClient, cfg.Realtime.Channel, logg)
	if err != nil {
		return deps, nil, err
	}

	deps.Auth = authSvc
	deps.Register = registerSvc
	deps.Users = usersSvc
	deps.Products = productsSvc
	deps.Cart = cartSvc
	deps.Coupons = couponsSvc
	deps.Checkout = checkoutSvc
	deps.OrderQueries = querySvc
	deps.OrderStatus = statusSvc
	deps.Streamer = realtime.NewStreamer(hub, cfg.App.AllowedOrigins(), cfg.Realtime.PingInterval, logg)
	deps.Sessions = sessionManager
	deps.RateLimiter = redisClient
	deps.Idempotency = redisClient
	deps.Readiness = map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}
	deps.Metrics = promhttp.Handler()
	return deps, hub, nil
}
