package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/audiosync/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanDeliverer chan relay.Hint

func (c chanDeliverer) Deliver(_ context.Context, h relay.Hint) int {
	c <- h
	return 1
}

func TestPublishReachesSubscriber(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	received := make(chanDeliverer, 16)
	r := New(rc, received)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	hint := relay.Hint{RoomID: "r1", EventType: relay.EventPlayback, Seq: 3, ActorID: "A"}

	var got relay.Hint
	require.Eventually(t, func() bool {
		require.NoError(t, r.Publish(context.Background(), hint))
		select {
		case got = <-received:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)

	assert.Equal(t, hint, got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, "audio-sync:room:r1:updates", channelFor("r1"))
}
