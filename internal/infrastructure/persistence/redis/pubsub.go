package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/heron-guild/guildhall/internal/infrastructure/messaging"
)

// PubSubClient adapts go-redis Pub/Sub to messaging.RedisClient.
type PubSubClient struct {
	client *redis.Client
	subs   []*redis.PubSub
}

// NewPubSubClient wraps an existing connection.
func NewPubSubClient(client *redis.Client) *PubSubClient {
	return &PubSubClient{client: client}
}

// Publish implements messaging.RedisClient.
func (p *PubSubClient) Publish(ctx context.Context, channel string, message interface{}) error {
	if channel == "" {
		return ErrCacheKeyEmpty
	}
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe implements messaging.RedisClient. The returned channel closes
// when ctx ends.
func (p *PubSubClient) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := p.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}
	p.subs = append(p.subs, sub)

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes open subscriptions. The underlying client stays open.
func (p *PubSubClient) Close() error {
	for _, s := range p.subs {
		// Already closed when the subscribing context ended.
		_ = s.Close()
	}
	p.subs = nil
	return nil
}
