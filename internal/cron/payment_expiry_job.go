package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

const (
	defaultPaymentTTL   = 2 * time.Hour
	paymentExpiryBatch  = 100
	paymentExpiryJobTag = "order-payment-expiry"
)

type PaymentExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    stalePendingLister
	Status    statusUpdater
	TTL       time.Duration
	BatchSize int
}

type stalePendingLister interface {
	ListStalePending(ctx context.Context, method enums.PaymentMethod, before time.Time, limit int) ([]models.Order, error)
}

type statusUpdater interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, change orders.StatusChange) (*orders.OrderDTO, error)
}

// NewPaymentExpiryJob cancels ONLINE orders that stayed PENDING past the
// payment window, covering sessions whose expiry webhook never arrived.
func NewPaymentExpiryJob(params PaymentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Status == nil {
		return nil, fmt.Errorf("order status service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPaymentTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = paymentExpiryBatch
	}
	return &paymentExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		status: params.Status,
		ttl:    ttl,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type paymentExpiryJob struct {
	logg   *logger.Logger
	orders stalePendingLister
	status statusUpdater
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *paymentExpiryJob) Name() string { return paymentExpiryJobTag }

// Run handles one batch per cycle; the remainder is picked up next cycle.
func (j *paymentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.ListStalePending(ctx, enums.PaymentMethodOnline, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale pending orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, order := range stale {
		_, err := j.status.UpdateStatus(ctx, order.ID, orders.StatusChange{
			Status: enums.OrderStatusCancelled,
			Source: orders.SourceCron,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		cancelled++
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"found":     len(stale),
		"cancelled": cancelled,
	}), "payment expiry sweep complete")
	return errs
}
