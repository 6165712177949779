package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Publisher delivers status events to the realtime channel.
type Publisher interface {
	Publish(ctx context.Context, event StatusEvent) error
}

// ChannelPublisher is the Redis surface the publisher needs.
type ChannelPublisher interface {
	Publish(ctx context.Context, channel string, message any) (int64, error)
}

// RedisPublisher publishes on a single shared channel. The underlying client
// is resolved on first use and retried on the next publish if that fails.
type RedisPublisher struct {
	channel string
	connect func(ctx context.Context) (ChannelPublisher, error)

	mu     sync.Mutex
	client ChannelPublisher
}

// NewRedisPublisher builds a lazily connected publisher.
func NewRedisPublisher(channel string, connect func(ctx context.Context) (ChannelPublisher, error)) (*RedisPublisher, error) {
	if channel == "" {
		return nil, fmt.Errorf("realtime channel required")
	}
	if connect == nil {
		return nil, fmt.Errorf("redis connector required")
	}
	return &RedisPublisher{
		channel: channel,
		connect: connect,
	}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event StatusEvent) error {
	client, err := p.resolve(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	if _, err := client.Publish(ctx, p.channel, raw); err != nil {
		return fmt.Errorf("publish status event: %w", err)
	}
	return nil
}

func (p *RedisPublisher) resolve(ctx context.Context) (ChannelPublisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := p.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect realtime publisher: %w", err)
	}
	p.client = client
	return client, nil
}
