package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ovenline/pizzeria-backend/internal/cron"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/internal/realtime"
	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/metrics"
	"github.com/ovenline/pizzeria-backend/pkg/migrate"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
	"github.com/ovenline/pizzeria-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "cron-worker"
	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": cfg.Service.Kind})

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

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to build cron service", err)
		os.Exit(1)
	}

	if *once {
		service.RunOnce(ctx)
		return
	}
	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	outboxRepo := outbox.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	notifier, err := realtime.NewRedisPublisher(cfg.Realtime.Channel, func(context.Context) (realtime.ChannelPublisher, error) {
		return redisClient, nil
	})
	if err != nil {
		return nil, err
	}
	statusSvc, err := orders.NewStatusService(orders.StatusServiceParams{
		DB:                 dbClient,
		Orders:             orderRepo,
		Outbox:             outbox.NewService(outboxRepo, logg),
		Notifier:           notifier,
		EnforceTransitions: cfg.Orders.EnforceStatusTransitions,
		NotifyTimeout:      cfg.Orders.NotifyTimeout,
		Metrics:            metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		Logger:             logg,
	})
	if err != nil {
		return nil, err
	}

	expiry, err := cron.NewPaymentExpiryJob(cron.PaymentExpiryJobParams{
		Logger: logg,
		Orders: orderRepo,
		Status: statusSvc,
		TTL:    cfg.Cron.PaymentTTL,
	})
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		Repository:    outboxRepo,
		RetentionDays: cfg.Outbox.RetentionDays,
	})
	if err != nil {
		return nil, err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(expiry, retention),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
}
