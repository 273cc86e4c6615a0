package websocket

import (
	"context"
	"encoding/json"

	"agencyportal/pkg/cache"
	"agencyportal/pkg/logger"
)

// Publisher sends a realtime event to every API instance.
type Publisher interface {
	Publish(ctx context.Context, message *Message) error
}

// LocalPublisher delivers straight to an in-process hub.
type LocalPublisher struct {
	Hub *Hub
}

func (p LocalPublisher) Publish(ctx context.Context, message *Message) error {
	p.Hub.Deliver(message)
	return nil
}

// RedisRelay fans realtime events out over redis pub/sub so each instance
// can deliver them to its own sockets.
type RedisRelay struct {
	cache   *cache.RedisCache
	channel string
	hub     *Hub
	logger  *logger.Logger
}

func NewRedisRelay(c *cache.RedisCache, channel string, hub *Hub, log *logger.Logger) *RedisRelay {
	return &RedisRelay{cache: c, channel: channel, hub: hub, logger: log}
}

func (r *RedisRelay) Publish(ctx context.Context, message *Message) error {
	return r.cache.Publish(ctx, r.channel, message)
}

// Run forwards relayed events to the local hub until ctx is done. hub may be
// nil for publish-only processes such as the worker.
func (r *RedisRelay) Run(ctx context.Context) {
	if r.hub == nil {
		return
	}

	pubsub := r.cache.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var message Message
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				r.logger.WithError(err).Warn("Dropping malformed realtime event")
				continue
			}
			r.hub.Deliver(&message)
		}
	}
}
