package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomConns map[string][]*connection.Conn

func (r roomConns) ListByRoom(roomID string) []*connection.Conn {
	return r[roomID]
}

// dialPair returns the server side of a fresh websocket and the client that
// reads from it.
func dialPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		require.NoError(t, err)
		serverSide <- ws
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return <-serverSide, client
}

// newConn registers a subscriber whose write pump runs for the test.
func newConn(t *testing.T, ws *websocket.Conn, roomID, userID string) *connection.Conn {
	t.Helper()
	conn := connection.New(ws, roomID, userID)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go conn.WritePump(ctx, time.Hour)
	return conn
}

func TestHubSkipsActor(t *testing.T) {
	wsA, clientA := dialPair(t)
	wsB, clientB := dialPair(t)
	conns := roomConns{"r1": {
		newConn(t, wsA, "r1", "A"),
		newConn(t, wsB, "r1", "B"),
	}}

	hub := NewHub(conns)
	n := hub.Deliver(context.Background(), Hint{RoomID: "r1", EventType: EventPlayback, Seq: 1, ActorID: "A"})
	assert.Equal(t, 1, n)

	var frame Frame
	require.NoError(t, clientB.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, clientB.ReadJSON(&frame))
	assert.Equal(t, MessageTypeRoomUpdated, frame.Type)
	assert.Equal(t, int64(1), frame.Payload.Seq)
	assert.Equal(t, "A", frame.Payload.ActorID)

	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	assert.Error(t, clientA.ReadJSON(&frame))
}

func TestHubUnknownRoom(t *testing.T) {
	hub := NewHub(roomConns{})
	assert.Equal(t, 0, hub.Deliver(context.Background(), Hint{RoomID: "nope"}))
}

func TestLocalPublish(t *testing.T) {
	ws, client := dialPair(t)
	local := NewLocal(NewHub(roomConns{"r1": {newConn(t, ws, "r1", "B")}}))

	require.NoError(t, local.Publish(context.Background(), Hint{RoomID: "r1", EventType: EventUserJoined, ActorID: "A"}))

	var frame Frame
	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, client.ReadJSON(&frame))
	assert.Equal(t, EventUserJoined, frame.Payload.EventType)
}

func TestHubDoesNotWaitOnStalledSubscriber(t *testing.T) {
	ctx := context.Background()
	wsStalled, clientStalled := dialPair(t)
	wsB, clientB := dialPair(t)

	// no write pump, so nothing ever drains this queue
	stalled := connection.New(wsStalled, "r1", "S", connection.WithSendBuffer(1))
	hub := NewHub(roomConns{"r1": {stalled, newConn(t, wsB, "r1", "B")}})
	local := NewLocal(hub)

	start := time.Now()
	assert.Equal(t, 2, hub.Deliver(ctx, Hint{RoomID: "r1", EventType: EventPlayback, Seq: 1, ActorID: "A"}))
	assert.Equal(t, 1, hub.Deliver(ctx, Hint{RoomID: "r1", EventType: EventPlayback, Seq: 2, ActorID: "A"}))
	require.NoError(t, local.Publish(ctx, Hint{RoomID: "r1", EventType: EventPlayback, Seq: 3, ActorID: "A"}))
	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, clientB.SetReadDeadline(time.Now().Add(time.Second)))
	for seq := int64(1); seq <= 3; seq++ {
		var frame Frame
		require.NoError(t, clientB.ReadJSON(&frame))
		assert.Equal(t, seq, frame.Payload.Seq)
	}

	assert.ErrorIs(t, stalled.Send(NewFrame(Hint{RoomID: "r1"})), connection.ErrClosed)

	require.NoError(t, clientStalled.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := clientStalled.ReadMessage()
	assert.Error(t, err)
}
