package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/relay"
	"github.com/sharetube/audiosync/internal/repository/connection"
)

type SubscribeParams struct {
	Conn   *websocket.Conn
	RoomID string
	UserID string
}

// Subscribe registers a websocket for the room's hints. The room must exist.
func (s service) Subscribe(ctx context.Context, params *SubscribeParams) (*connection.Conn, error) {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return nil, err
	}

	if _, err := s.getRoom(ctx, params.RoomID); err != nil {
		return nil, err
	}

	conn := connection.New(params.Conn, params.RoomID, params.UserID)
	if err := s.connRepo.Add(conn); err != nil {
		return nil, fmt.Errorf("failed to add connection: %w", err)
	}

	slog.InfoContext(ctx, "subscribed", "room_id", params.RoomID, "user_id", params.UserID, "connections", s.connRepo.Count())
	return conn, nil
}

func (s service) Unsubscribe(ctx context.Context, ws *websocket.Conn) error {
	conn, err := s.connRepo.RemoveByConn(ws)
	if err != nil {
		return fmt.Errorf("failed to remove connection: %w", err)
	}

	slog.InfoContext(ctx, "unsubscribed", "room_id", conn.RoomID, "user_id", conn.UserID, "connections", s.connRepo.Count())
	return nil
}

type NotifyRoomUpdateParams struct {
	RoomID    string
	UserID    string
	EventType string
}

// NotifyRoomUpdate rebroadcasts a client supplied hint to the room's other
// subscribers, stamped with the room's current seq. Nothing is written.
func (s service) NotifyRoomUpdate(ctx context.Context, params *NotifyRoomUpdateParams) error {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return err
	}

	if params.EventType == "" {
		return fmt.Errorf("%w: eventType is required", ErrInvalidArgument)
	}

	room, err := s.getRoom(ctx, params.RoomID)
	if err != nil {
		return err
	}

	s.publish(ctx, room, relay.EventType(params.EventType), params.UserID)
	return nil
}

// SubscriberCount is the number of local subscribers of a room.
func (s service) SubscriberCount(roomID string) int {
	return len(s.connRepo.ListByRoom(roomID))
}
