package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
	conninmemory "github.com/sharetube/audiosync/internal/repository/connection/inmemory"
	roomrepo "github.com/sharetube/audiosync/internal/repository/room"
	roominmemory "github.com/sharetube/audiosync/internal/repository/room/inmemory"
	"github.com/sharetube/audiosync/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomResponse struct {
	Room struct {
		ID         string `json:"id"`
		HostUserID string `json:"hostUserId"`
		Users      []struct {
			ID     string `json:"id"`
			IsHost bool   `json:"isHost"`
		} `json:"users"`
		Media *struct {
			Type     string `json:"type"`
			FileName string `json:"fileName"`
		} `json:"media"`
		Playback struct {
			Seq     int64  `json:"seq"`
			Status  string `json:"status"`
			ActorID string `json:"actorId"`
		} `json:"playback"`
	} `json:"room"`
}

type roomStore interface {
	Get(ctx context.Context, roomID string) (domain.Room, error)
	Set(ctx context.Context, room domain.Room) error
	Delete(ctx context.Context, roomID string) error
}

func newServer(t *testing.T, store roomStore, status roomrepo.Status) *httptest.Server {
	t.Helper()
	if store == nil {
		store = roominmemory.NewRepo(time.Hour, nil)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	connRepo := conninmemory.NewRepo()
	publisher := relay.NewLocal(relay.NewHub(connRepo))
	service := room.NewService(store, connRepo, publisher, room.Config{StoreStatus: status})

	srv := httptest.NewServer(NewController(service, logger, Config{}).GetMux())
	t.Cleanup(srv.Close)
	return srv
}

func memoryStatus() roomrepo.Status {
	return roomrepo.Status{Mode: roomrepo.ModeMemory, Available: true, Provider: "none"}
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeRoom(t *testing.T, data []byte) roomResponse {
	t.Helper()
	var res roomResponse
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func createRoom(t *testing.T, base string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, base+"/api/v1/rooms", map[string]string{"roomId": "r1", "userId": "A", "username": "alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, base+"/api/v1/rooms/r1/join", map[string]string{"userId": "B", "username": "bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoomLifecycle(t *testing.T) {
	srv := newServer(t, nil, memoryStatus())
	createRoom(t, srv.URL)

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/r1/control", map[string]string{"userId": "B", "action": "play"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decodeRoom(t, data)
	assert.Equal(t, int64(1), res.Room.Playback.Seq)
	assert.Equal(t, "playing", res.Room.Playback.Status)
	assert.Equal(t, "B", res.Room.Playback.ActorID)

	resp, data = doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/r1/media/local", map[string]string{"userId": "A", "url": "https://cdn.example/a.mp3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decodeRoom(t, data)
	assert.Equal(t, "stopped", res.Room.Playback.Status)
	require.NotNil(t, res.Room.Media)
	assert.Equal(t, "Shared audio", res.Room.Media.FileName)

	resp, data = doJSON(t, http.MethodGet, srv.URL+"/api/v1/rooms/r1?user-id=B", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res = decodeRoom(t, data)
	assert.Len(t, res.Room.Users, 2)
	assert.Equal(t, "A", res.Room.HostUserID)
	assert.Equal(t, int64(2), res.Room.Playback.Seq)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/rooms/r1?user-id=A", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/rooms/r1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t, nil, memoryStatus())

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/missing/control", map[string]string{"userId": "A", "action": "rewind"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), `"errors"`)

	resp, data = doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/missing/control", map[string]string{"userId": "A", "action": "play"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"room not found"}`, string(data))

	createRoom(t, srv.URL)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/r1/media/youtube", map[string]string{"userId": "B", "url": "https://youtu.be/dQw4w9WgXcQ"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/r1/control", map[string]string{"roomId": "other", "userId": "A", "action": "play"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/r1/join", map[string]string{"userId": "C", "username": "carol", "color": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/rooms/r1?user-id=B", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, nil, memoryStatus())
	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/v1/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"store":{"mode":"memory","durable":false,"requireDurable":false,"available":true,"provider":"none"}}`, string(data))
}

func TestUnavailableStore(t *testing.T) {
	status := roomrepo.Status{Mode: roomrepo.ModeRedis, Durable: true, RequireDurable: true, Available: false, Provider: "redis"}
	srv := newServer(t, roomrepo.NewUnavailable(errors.New("connection refused")), status)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, data := doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms", map[string]string{"roomId": "r1", "userId": "A", "username": "alice"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"error":"store backend unavailable"}`, string(data))
}

type corruptStore struct {
	roomStore
}

func (corruptStore) Get(context.Context, string) (domain.Room, error) {
	return domain.Room{}, fmt.Errorf("%w: invalid character", roomrepo.ErrCorruptRoom)
}

func TestCorruptRecordIsInternalError(t *testing.T) {
	srv := newServer(t, corruptStore{roomStore: roominmemory.NewRepo(time.Hour, nil)}, memoryStatus())

	resp, data := doJSON(t, http.MethodGet, srv.URL+"/api/v1/rooms/r1", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal server error"}`, string(data))
}

func dialRoom(t *testing.T, base, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(base, "http") + "/api/v1/ws/rooms/r1?user-id=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	frame := readFrame(t, ws)
	require.Equal(t, "SUBSCRIBED", frame.Type)
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) Output {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var out struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, ws.ReadJSON(&out))
	var payload map[string]any
	require.NoError(t, json.Unmarshal(out.Payload, &payload))
	return Output{Type: out.Type, Payload: payload}
}

func TestWebsocketHints(t *testing.T) {
	srv := newServer(t, nil, memoryStatus())
	createRoom(t, srv.URL)

	wsA := dialRoom(t, srv.URL, "A")
	wsB := dialRoom(t, srv.URL, "B")

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/rooms/r1/control", map[string]string{"userId": "A", "action": "play"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frame := readFrame(t, wsB)
	assert.Equal(t, relay.MessageTypeRoomUpdated, frame.Type)
	payload := frame.Payload.(map[string]any)
	assert.Equal(t, "r1", payload["roomId"])
	assert.Equal(t, "playback", payload["eventType"])
	assert.Equal(t, float64(1), payload["seq"])
	assert.Equal(t, "A", payload["actorId"])

	require.NoError(t, wsA.WriteJSON(map[string]any{"type": "NOTIFY_ROOM_UPDATE", "payload": map[string]string{"eventType": "seek"}}))
	frame = readFrame(t, wsB)
	assert.Equal(t, "seek", frame.Payload.(map[string]any)["eventType"])

	// the actor never hears its own hints
	require.NoError(t, wsA.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var out Output
	assert.Error(t, wsA.ReadJSON(&out))
}

func TestWebsocketErrors(t *testing.T) {
	srv := newServer(t, nil, memoryStatus())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/rooms/r1?user-id=A"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	createRoom(t, srv.URL)
	ws := dialRoom(t, srv.URL, "A")

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "ALIVE"}))
	require.NoError(t, ws.WriteJSON(map[string]any{"type": "JUMP"}))
	frame := readFrame(t, ws)
	assert.Equal(t, "ERROR", frame.Type)
	assert.Contains(t, frame.Payload.(map[string]any)["error"], "unknown message type")

	require.NoError(t, ws.WriteJSON(map[string]any{"type": "NOTIFY_ROOM_UPDATE", "payload": map[string]string{}}))
	frame = readFrame(t, ws)
	assert.Equal(t, "ERROR", frame.Type)
}
