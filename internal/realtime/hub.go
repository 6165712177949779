package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

const (
	clientBuffer = 16

	defaultRetryBase = time.Second
	defaultRetryMax  = 30 * time.Second
)

type channelSubscriber interface {
	Subscribe(ctx context.Context, channels ...string) (*goredis.PubSub, error)
}

// Subscriber is one connected stream, scoped to a single user.
type Subscriber struct {
	userID uuid.UUID
	send   chan ClientMessage
}

// Messages yields the events addressed to this subscriber. It is closed on
// unregister.
func (s *Subscriber) Messages() <-chan ClientMessage {
	return s.send
}

// Hub reads the shared status channel and forwards each event to the streams
// of the order's owner.
type Hub struct {
	source  channelSubscriber
	channel string
	logg    *logger.Logger

	retryBase time.Duration
	retryMax  time.Duration

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Subscriber]struct{}
}

func NewHub(source channelSubscriber, channel string, logg *logger.Logger) (*Hub, error) {
	if source == nil {
		return nil, fmt.Errorf("redis subscriber required")
	}
	if channel == "" {
		return nil, fmt.Errorf("realtime channel required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Hub{
		source:    source,
		channel:   channel,
		logg:      logg,
		retryBase: defaultRetryBase,
		retryMax:  defaultRetryMax,
		clients:   map[uuid.UUID]map[*Subscriber]struct{}{},
	}, nil
}

// Run consumes the channel until ctx is cancelled. Failed or dropped
// subscriptions are re-established with exponential backoff.
func (h *Hub) Run(ctx context.Context) error {
	wait := h.retryBase
	for {
		subscribed, err := h.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			wait = h.retryBase
		}
		h.logg.Error(h.logg.WithFields(ctx, map[string]any{"retry_in": wait.String()}), "realtime subscription failed", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if wait *= 2; wait > h.retryMax {
			wait = h.retryMax
		}
	}
}

// consume runs one subscription. subscribed reports whether it was
// established before failing.
func (h *Hub) consume(ctx context.Context) (subscribed bool, err error) {
	sub, err := h.source.Subscribe(ctx, h.channel)
	if err != nil {
		return false, err
	}
	defer sub.Close()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-messages:
			if !ok {
				return true, fmt.Errorf("realtime subscription closed")
			}
			h.handlePayload(ctx, []byte(msg.Payload))
		}
	}
}

func (h *Hub) handlePayload(ctx context.Context, payload []byte) {
	var event StatusEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logg.Warn(ctx, "dropping malformed realtime payload")
		return
	}
	if event.UserID == uuid.Nil {
		h.logg.Warn(ctx, "dropping realtime payload without user")
		return
	}
	h.Dispatch(event)
}

// Register opens a stream for userID.
func (h *Hub) Register(userID uuid.UUID) *Subscriber {
	sub := &Subscriber{userID: userID, send: make(chan ClientMessage, clientBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		set = map[*Subscriber]struct{}{}
		h.clients[userID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unregister closes the stream. Calling it twice is safe.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[sub.userID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.send)
	if len(set) == 0 {
		delete(h.clients, sub.userID)
	}
}

// Dispatch delivers event to every stream of its user. Slow streams drop the
// event rather than block the hub.
func (h *Hub) Dispatch(event StatusEvent) int {
	msg := clientMessage(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for sub := range h.clients[event.UserID] {
		select {
		case sub.send <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

// Connections reports the number of open streams.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return total
}
