package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/repository/connection"
	"github.com/sharetube/audiosync/internal/service/room"
	"github.com/sharetube/audiosync/pkg/ctxlogger"
	"github.com/sharetube/audiosync/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

// subscribe upgrades to a websocket that receives ROOM_UPDATED hints for one
// room. The room is checked before the upgrade so a missing room is a plain 404.
func (c controller) subscribe(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room-id")
	userID := r.URL.Query().Get("user-id")
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("room_id", roomID))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", userID))

	if userID == "" {
		c.writeError(ctx, w, "subscribe", fmt.Errorf("%w: user-id is required", room.ErrInvalidArgument))
		return
	}

	if _, err := c.roomService.GetRoom(ctx, &room.GetRoomParams{RoomID: roomID}); err != nil {
		c.writeError(ctx, w, "subscribe", err)
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}

	conn, err := c.roomService.Subscribe(ctx, &room.SubscribeParams{
		Conn:   ws,
		RoomID: roomID,
		UserID: userID,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to subscribe", "error", err)
		ws.WriteJSON(&Output{Type: "ERROR", Payload: map[string]string{"error": messageFromError(err)}})
		ws.Close()
		return
	}
	defer c.disconnect(ctx, conn)

	// tells the client it will not miss hints from here on
	if err := conn.WriteJSON(&Output{
		Type:    "SUBSCRIBED",
		Payload: map[string]string{"roomId": roomID, "userId": userID},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to write json", "error", err)
		return
	}

	ws.SetReadDeadline(time.Now().Add(c.pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.writePump(ctx, conn)

	ctx = context.WithValue(ctx, connCtxKey, conn)
	if err := c.wsmux.ServeConn(ctx, ws); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			c.logger.InfoContext(ctx, "websocket closed", "error", err)
		}
	}
}

func (c controller) disconnect(ctx context.Context, conn *connection.Conn) {
	if err := c.roomService.Unsubscribe(ctx, conn.WS()); err != nil {
		c.logger.DebugContext(ctx, "failed to unsubscribe", "error", err)
	}
	conn.Close()
}

// writePump drains the connection's hint queue and keeps pinging. A failed
// write aborts the socket, which ends the read loop in subscribe.
func (c controller) writePump(ctx context.Context, conn *connection.Conn) {
	if err := conn.WritePump(ctx, c.pingPeriod); err != nil {
		c.logger.DebugContext(ctx, "write pump stopped", "error", err)
		_ = conn.Abort()
	}
}

func (c controller) handleAlive(ctx context.Context, ws *websocket.Conn, _ EmptyInput) error {
	return ws.SetReadDeadline(time.Now().Add(c.pongWait))
}

type NotifyRoomUpdateInput struct {
	EventType string `json:"eventType" validate:"required,max=64"`
}

func (c controller) handleNotifyRoomUpdate(ctx context.Context, _ *websocket.Conn, input NotifyRoomUpdateInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %s", room.ErrInvalidArgument, validationErrors[0].Message)
	}

	conn := c.getConnFromCtx(ctx)
	if err := c.roomService.NotifyRoomUpdate(ctx, &room.NotifyRoomUpdateParams{
		RoomID:    conn.RoomID,
		UserID:    conn.UserID,
		EventType: input.EventType,
	}); err != nil {
		return fmt.Errorf("failed to notify room update: %w", err)
	}

	return nil
}

// handleWSError reports the failure to the sender and keeps the socket open.
// Only a failed write ends the connection.
func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) error {
	message := messageFromError(err)
	if errors.Is(err, wsrouter.ErrUnknownMessageType) || errors.Is(err, wsrouter.ErrInvalidPayload) {
		message = err.Error()
	}
	c.logger.InfoContext(ctx, "websocket message failed", "error", err)

	conn := c.getConnFromCtx(ctx)
	if conn == nil {
		return err
	}

	return conn.WriteJSON(&Output{
		Type:    "ERROR",
		Payload: map[string]string{"error": message},
	})
}
