package relay

import (
	"context"
	"log/slog"

	"github.com/sharetube/audiosync/internal/repository/connection"
)

type iConnRepo interface {
	ListByRoom(roomID string) []*connection.Conn
}

// Hub fans a hint out to the room's local subscribers, skipping the actor's
// own connections. Delivery only queues frames, so it never waits on a
// socket. A subscriber whose queue is full is aborted and its read loop
// unregisters it.
type Hub struct {
	connRepo iConnRepo
}

func NewHub(connRepo iConnRepo) *Hub {
	return &Hub{connRepo: connRepo}
}

func (h *Hub) Deliver(ctx context.Context, hint Hint) int {
	frame := NewFrame(hint)
	delivered := 0
	for _, conn := range h.connRepo.ListByRoom(hint.RoomID) {
		if hint.ActorID != "" && conn.UserID == hint.ActorID {
			continue
		}

		if err := conn.Send(frame); err != nil {
			slog.InfoContext(ctx, "dropping subscriber", "room_id", hint.RoomID, "user_id", conn.UserID, "error", err)
			_ = conn.Abort()
			continue
		}

		delivered++
	}

	slog.DebugContext(ctx, "hint delivered", "room_id", hint.RoomID, "event_type", hint.EventType, "seq", hint.Seq, "subscribers", delivered)
	return delivered
}

// Local publishes straight into a Deliverer. It serves single-process
// deployments.
type Local struct {
	deliverer Deliverer
}

func NewLocal(d Deliverer) *Local {
	return &Local{deliverer: d}
}

func (l *Local) Publish(ctx context.Context, h Hint) error {
	l.deliverer.Deliver(ctx, h)
	return nil
}
