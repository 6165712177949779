package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestPaymentExpiryJobCancelsStaleOnlineOrders(t *testing.T) {
	now := time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()
	lister := &fakeStaleLister{rows: []models.Order{{ID: first}, {ID: second}}}
	updater := &fakeStatusUpdater{failFor: map[uuid.UUID]error{}}
	job := newPaymentExpiryJob(t, lister, updater)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lister.method != enums.PaymentMethodOnline {
		t.Fatalf("expected ONLINE orders only, got %s", lister.method)
	}
	if want := now.Add(-defaultPaymentTTL); !lister.before.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, lister.before)
	}
	if len(updater.changes) != 2 {
		t.Fatalf("expected 2 cancellations, got %d", len(updater.changes))
	}
	for _, change := range updater.changes {
		if change.Status != enums.OrderStatusCancelled || change.Source != orders.SourceCron {
			t.Fatalf("unexpected change %+v", change)
		}
	}
}

func TestPaymentExpiryJobContinuesPastFailures(t *testing.T) {
	bad, good := uuid.New(), uuid.New()
	lister := &fakeStaleLister{rows: []models.Order{{ID: bad}, {ID: good}}}
	updater := &fakeStatusUpdater{failFor: map[uuid.UUID]error{bad: errors.New("db gone")}}
	job := newPaymentExpiryJob(t, lister, updater)

	err := job.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), bad.String()) {
		t.Fatalf("expected error naming %s, got %v", bad, err)
	}
	if len(updater.changes) != 1 || updater.ids[0] != good {
		t.Fatalf("expected good order cancelled, got %v", updater.ids)
	}
}

func TestPaymentExpiryJobListFailure(t *testing.T) {
	job := newPaymentExpiryJob(t, &fakeStaleLister{err: errors.New("timeout")}, &fakeStatusUpdater{})
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected list failure to surface")
	}
}

func TestOutboxRetentionJobPurgesPublishedRows(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPurger{deleted: 12}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: quietLogger(), Repository: repo, RetentionDays: 7})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-7 * 24 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}

	repo.err = errors.New("boom")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected purge error")
	}
}

func newPaymentExpiryJob(t *testing.T, lister *fakeStaleLister, updater *fakeStatusUpdater) *paymentExpiryJob {
	t.Helper()
	job, err := NewPaymentExpiryJob(PaymentExpiryJobParams{Logger: quietLogger(), Orders: lister, Status: updater})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job.(*paymentExpiryJob)
}

type fakeStaleLister struct {
	rows   []models.Order
	err    error
	method enums.PaymentMethod
	before time.Time
}

func (f *fakeStaleLister) ListStalePending(_ context.Context, method enums.PaymentMethod, before time.Time, _ int) ([]models.Order, error) {
	f.method = method
	f.before = before
	return f.rows, f.err
}

type fakeStatusUpdater struct {
	failFor map[uuid.UUID]error
	changes []orders.StatusChange
	ids     []uuid.UUID
}

func (f *fakeStatusUpdater) UpdateStatus(_ context.Context, orderID uuid.UUID, change orders.StatusChange) (*orders.OrderDTO, error) {
	if err := f.failFor[orderID]; err != nil {
		return nil, err
	}
	f.changes = append(f.changes, change)
	f.ids = append(f.ids, orderID)
	return &orders.OrderDTO{ID: orderID, Status: change.Status}, nil
}

type fakeOutboxPurger struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeOutboxPurger) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}
