// Package realtime pushes per-user events over Redis pub/sub. Gateway
// processes holding websocket or SSE connections subscribe to the user
// channels; this service only publishes.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "helpdesk:user:"

// Broadcaster publishes realtime events to per-user channels. Publishing is
// fire-and-forget: failures are logged and never surfaced to callers.
type Broadcaster struct {
	client *redis.Client
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given Redis client.
func NewBroadcaster(client *redis.Client, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{client: client, logger: logger}
}

// BroadcastToUser publishes an event on the user's channel.
func (b *Broadcaster) BroadcastToUser(ctx context.Context, userID, eventName string, payload any) {
	if b == nil || b.client == nil {
		return
	}
	message, err := json.Marshal(map[string]any{
		"event":   eventName,
		"payload": payload,
	})
	if err != nil {
		b.logger.Warn("marshal realtime event", zap.String("event", eventName), zap.Error(err))
		return
	}
	if err := b.client.Publish(ctx, channelPrefix+userID, message).Err(); err != nil {
		b.logger.Warn("publish realtime event",
			zap.String("user_id", userID),
			zap.String("event", eventName),
			zap.Error(err))
	}
}
