package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/audiosync/internal/relay"
)

const (
	channelPrefix  = "audio-sync:room:"
	channelSuffix  = ":updates"
	channelPattern = channelPrefix + "*" + channelSuffix
)

func channelFor(roomID string) string {
	return channelPrefix + roomID + channelSuffix
}

// Relay routes hints through Redis Pub/Sub so every server process sharing
// the store reaches its own subscribers.
type Relay struct {
	rc        *redis.Client
	deliverer relay.Deliverer
}

func New(rc *redis.Client, d relay.Deliverer) *Relay {
	return &Relay{
		rc:        rc,
		deliverer: d,
	}
}

func (r *Relay) Publish(ctx context.Context, h relay.Hint) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to encode hint: %w", err)
	}

	receivers, err := r.rc.Publish(ctx, channelFor(h.RoomID), payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish hint: %w", err)
	}

	slog.DebugContext(ctx, "hint published", "room_id", h.RoomID, "receivers", receivers)
	return nil
}

// Run subscribes to every room channel and delivers incoming hints locally
// until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.rc.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	slog.InfoContext(ctx, "relay subscribed", "pattern", channelPattern)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var h relay.Hint
			if err := json.Unmarshal([]byte(msg.Payload), &h); err != nil {
				slog.WarnContext(ctx, "dropping malformed hint", "channel", msg.Channel, "error", err)
				continue
			}

			if h.RoomID == "" {
				h.RoomID = strings.TrimSuffix(strings.TrimPrefix(msg.Channel, channelPrefix), channelSuffix)
			}

			r.deliverer.Deliver(ctx, h)
		}
	}
}
