package room

import (
	"context"
	"log/slog"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
)

type ControlParams struct {
	RoomID string
	UserID string
	Action domain.Action
}

// Control applies a transport action for any caller. The action is checked
// before the room is loaded.
func (s service) Control(ctx context.Context, params *ControlParams) (domain.Room, error) {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return domain.Room{}, err
	}

	if _, err := params.Action.Status(); err != nil {
		return domain.Room{}, err
	}

	room, err := s.getRoom(ctx, params.RoomID)
	if err != nil {
		return domain.Room{}, err
	}

	now := s.now()
	room, err = s.touch(ctx, room, params.UserID, now)
	if err != nil {
		return domain.Room{}, err
	}

	room, err = room.Control(params.Action, params.UserID, now)
	if err != nil {
		return domain.Room{}, err
	}

	if err := s.setRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}

	slog.InfoContext(ctx, "playback changed", "room_id", room.ID, "status", room.Playback.Status, "seq", room.Playback.Seq)
	s.publish(ctx, room, relay.EventPlayback, params.UserID)

	return room, nil
}
