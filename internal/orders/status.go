package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/internal/realtime"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
	"github.com/ovenline/pizzeria-backend/pkg/metrics"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
	"github.com/ovenline/pizzeria-backend/pkg/outbox/payloads"
)

// Sources recorded on status change events.
const (
	SourceAdmin   = "admin"
	SourceWebhook = "webhook"
	SourceCron    = "cron"
)

const defaultNotifyTimeout = 5 * time.Second

// StatusChange describes who moved an order and why.
type StatusChange struct {
	Status enums.OrderStatus
	Source string
	Actor  *outbox.ActorRef
}

// TransitionDetail is attached to INVALID_STATUS_TRANSITION errors.
type TransitionDetail struct {
	From    enums.OrderStatus   `json:"from"`
	To      enums.OrderStatus   `json:"to"`
	Allowed []enums.OrderStatus `json:"allowed"`
}

// StatusService writes order status transitions and notifies the owner.
type StatusService interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, change StatusChange) (*OrderDTO, error)
}

// StatusServiceParams bundles status service dependencies.
type StatusServiceParams struct {
	DB                 txRunner
	Orders             Repository
	Outbox             outbox.Emitter
	Notifier           realtime.Publisher
	EnforceTransitions bool
	NotifyTimeout      time.Duration
	Metrics            *metrics.OrderMetrics
	Logger             *logger.Logger
}

type statusService struct {
	db            txRunner
	orders        Repository
	outbox        outbox.Emitter
	notifier      realtime.Publisher
	enforce       bool
	notifyTimeout time.Duration
	metrics       *metrics.OrderMetrics
	logg          *logger.Logger
	now           func() time.Time
	async         func(fn func())
}

func NewStatusService(params StatusServiceParams) (StatusService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("realtime notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &statusService{
		db:            params.DB,
		orders:        params.Orders,
		outbox:        params.Outbox,
		notifier:      params.Notifier,
		enforce:       params.EnforceTransitions,
		notifyTimeout: timeout,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           func() time.Time { return time.Now().UTC() },
		async:         func(fn func()) { go fn() },
	}, nil
}

// UpdateStatus is a no-op when the order already has the requested status.
func (s *statusService) UpdateStatus(ctx context.Context, orderID uuid.UUID, change StatusChange) (*OrderDTO, error) {
	if !change.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var (
		event   *realtime.StatusEvent
		updated *OrderDTO
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		previous := order.Status
		if previous == change.Status {
			updated = FromModel(order)
			return nil
		}
		if s.enforce && !previous.CanTransitionTo(change.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot move order from %s to %s", previous, change.Status)).
				WithDetails(TransitionDetail{From: previous, To: change.Status, Allowed: previous.NextStatuses()})
		}

		now := s.now()
		if err := repo.UpdateStatus(ctx, orderID, change.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         change.Actor,
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				PreviousStatus: previous,
				Status:         change.Status,
				Source:         change.Source,
				ChangedAt:      now,
			},
		}); err != nil {
			return err
		}

		order.Status = change.Status
		order.UpdatedAt = now
		updated = FromModel(order)
		event = &realtime.StatusEvent{
			OrderID:   order.ID,
			Status:    change.Status,
			UserID:    order.UserID,
			Timestamp: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if event != nil {
		s.metrics.IncStatusChange(string(event.Status), change.Source)
		s.logg.Info(ctx, fmt.Sprintf("order status changed to %s by %s", event.Status, change.Source))
		s.notify(ctx, *event)
	}
	return updated, nil
}

// notify publishes after commit without holding up the caller. Failures are
// logged only.
func (s *statusService) notify(ctx context.Context, event realtime.StatusEvent) {
	detached := context.WithoutCancel(ctx)
	s.async(func() {
		notifyCtx, cancel := context.WithTimeout(detached, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Publish(notifyCtx, event); err != nil {
			s.logg.Error(notifyCtx, "realtime status publish failed", err)
		}
	})
}
