package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovenline/pizzeria-backend/pkg/redis"
)

// ReplayGuard remembers delivered Stripe event ids so redeliveries are
// acknowledged without being applied twice.
type ReplayGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewReplayGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*ReplayGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("replay ttl must be positive")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &ReplayGuard{store: store, ttl: ttl, scope: scope}, nil
}

// Seen marks eventID and reports whether it had already been marked.
func (g *ReplayGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("mark stripe event: %w", err)
	}
	return !set, nil
}

// Forget clears the mark so a redelivery is processed again.
func (g *ReplayGuard) Forget(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, eventID))
}
