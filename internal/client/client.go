package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
)

const httpTimeout = 5 * time.Second

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrBackendUnavailable = errors.New("store backend unavailable")
)

// APIError carries the server's status and message. errors.Is matches it
// against the sentinel for its status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRoomNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrInvalidArgument:
		return e.Status == http.StatusBadRequest
	case ErrBackendUnavailable:
		return e.Status == http.StatusServiceUnavailable
	}
	return false
}

// Client talks to the room API of one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: httpTimeout},
		dialer:     websocket.DefaultDialer,
	}
}

type roomEnvelope struct {
	Room domain.Room `json:"room"`
}

func (c *Client) roomURL(roomID string) string {
	return c.baseURL + "/rooms/" + url.PathEscape(roomID)
}

func (c *Client) CreateRoom(ctx context.Context, roomID, userID, username string) (domain.Room, error) {
	return c.doRoom(ctx, http.MethodPost, c.baseURL+"/rooms", map[string]string{
		"roomId":   roomID,
		"userId":   userID,
		"username": username,
	})
}

func (c *Client) JoinRoom(ctx context.Context, roomID, userID, username string) (domain.Room, error) {
	return c.doRoom(ctx, http.MethodPost, c.roomURL(roomID)+"/join", map[string]string{
		"userId":   userID,
		"username": username,
	})
}

// GetRoom fetches the snapshot. A non-empty userID also marks the caller as seen.
func (c *Client) GetRoom(ctx context.Context, roomID, userID string) (domain.Room, error) {
	endpoint := c.roomURL(roomID)
	if userID != "" {
		endpoint += "?user-id=" + url.QueryEscape(userID)
	}
	return c.doRoom(ctx, http.MethodGet, endpoint, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, roomID, userID string) error {
	return c.do(ctx, http.MethodDelete, c.roomURL(roomID)+"?user-id="+url.QueryEscape(userID), nil, nil)
}

func (c *Client) LoadYouTube(ctx context.Context, roomID, userID, videoURL string) (domain.Room, error) {
	return c.doRoom(ctx, http.MethodPost, c.roomURL(roomID)+"/media/youtube", map[string]string{
		"userId": userID,
		"url":    videoURL,
	})
}

func (c *Client) LoadLocal(ctx context.Context, roomID, userID, mediaURL, fileName string) (domain.Room, error) {
	return c.doRoom(ctx, http.MethodPost, c.roomURL(roomID)+"/media/local", map[string]string{
		"userId":   userID,
		"url":      mediaURL,
		"fileName": fileName,
	})
}

func (c *Client) Control(ctx context.Context, roomID, userID string, action domain.Action) (domain.Room, error) {
	return c.doRoom(ctx, http.MethodPost, c.roomURL(roomID)+"/control", map[string]string{
		"userId": userID,
		"action": string(action),
	})
}

func (c *Client) doRoom(ctx context.Context, method, endpoint string, payload any) (domain.Room, error) {
	var env roomEnvelope
	if err := c.do(ctx, method, endpoint, payload, &env); err != nil {
		return domain.Room{}, err
	}
	return env.Room, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: readResponseError(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func readResponseError(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return err.Error()
	}

	var env struct {
		Error  string `json:"error"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if len(env.Errors) > 0 {
			return env.Errors[0].Message
		}
	}

	return strings.TrimSpace(string(data))
}

const messageTypeSubscribed = "SUBSCRIBED"

type hintFrame struct {
	Type    string     `json:"type"`
	Payload relay.Hint `json:"payload"`
}

// Subscribe opens the hint stream of a room. Hints are delivered on the
// returned channel until ctx is done or the socket fails; the channel is then
// closed.
func (c *Client) Subscribe(ctx context.Context, roomID, userID string) (<-chan relay.Hint, error) {
	endpoint := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws/rooms/" + url.PathEscape(roomID) + "?user-id=" + url.QueryEscape(userID)

	ws, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, &APIError{Status: resp.StatusCode, Message: readResponseError(resp.Body)}
		}
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	// The server registers the socket before it sends SUBSCRIBED, so no hint
	// issued after this returns can be missed.
	var first hintFrame
	if err := ws.ReadJSON(&first); err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to read subscription ack: %w", err)
	}
	if first.Type != messageTypeSubscribed {
		ws.Close()
		return nil, fmt.Errorf("unexpected first frame %q", first.Type)
	}

	hints := make(chan relay.Hint, 8)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		ws.Close()
	}()

	go func() {
		defer close(hints)
		defer close(done)

		for {
			var frame hintFrame
			if err := ws.ReadJSON(&frame); err != nil {
				return
			}

			if frame.Type != relay.MessageTypeRoomUpdated {
				continue
			}

			select {
			case hints <- frame.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()

	return hints, nil
}
