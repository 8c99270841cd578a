package room

import (
	"context"
	"log/slog"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
)

type CreateRoomParams struct {
	RoomID   string
	UserID   string
	Username string
}

// CreateRoom writes a fresh room, replacing any room stored under the same id.
func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (domain.Room, error) {
	room, err := domain.NewRoom(params.RoomID, params.UserID, params.Username, s.now())
	if err != nil {
		return domain.Room{}, err
	}

	if err := s.setRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}

	slog.InfoContext(ctx, "room created", "room_id", room.ID, "user_id", params.UserID)
	s.publish(ctx, room, relay.EventRoomCreated, params.UserID)

	return room, nil
}

type JoinRoomParams struct {
	RoomID   string
	UserID   string
	Username string
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (domain.Room, error) {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return domain.Room{}, err
	}

	room, err := s.getRoom(ctx, params.RoomID)
	if err != nil {
		return domain.Room{}, err
	}

	now := s.now()
	room, err = room.Join(params.UserID, params.Username, now)
	if err != nil {
		return domain.Room{}, err
	}
	room = s.presence.Touch(room, params.UserID, now)

	if err := s.setRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}

	slog.InfoContext(ctx, "user joined", "room_id", room.ID, "user_id", params.UserID, "users", len(room.Users))
	s.publish(ctx, room, relay.EventUserJoined, params.UserID)

	return room, nil
}

type GetRoomParams struct {
	RoomID string
	// UserID is optional. When set, the caller is marked as seen and the
	// presence pass is written back.
	UserID string
}

// GetRoom returns the current snapshot. A presence pass that leaves the room
// empty deletes it and reports ErrRoomNotFound.
func (s service) GetRoom(ctx context.Context, params *GetRoomParams) (domain.Room, error) {
	if params.RoomID == "" {
		return domain.Room{}, requireIDs(params.RoomID)
	}

	room, err := s.getRoom(ctx, params.RoomID)
	if err != nil {
		return domain.Room{}, err
	}

	if params.UserID == "" {
		return room, nil
	}

	touched, err := s.touch(ctx, room, params.UserID, s.now())
	if err != nil {
		return domain.Room{}, err
	}

	if err := s.setRoom(ctx, touched); err != nil {
		return domain.Room{}, err
	}

	if domain.MembershipChanged(room, touched) {
		s.publish(ctx, touched, relay.EventPresence, params.UserID)
	}

	return touched, nil
}

type DeleteRoomParams struct {
	RoomID string
	UserID string
}

// DeleteRoom is host only.
func (s service) DeleteRoom(ctx context.Context, params *DeleteRoomParams) error {
	if err := requireIDs(params.RoomID, params.UserID); err != nil {
		return err
	}

	room, err := s.getRoom(ctx, params.RoomID)
	if err != nil {
		return err
	}

	if !room.IsHost(params.UserID) {
		return ErrForbidden
	}

	if err := s.roomRepo.Delete(ctx, room.ID); err != nil {
		return storeError("delete room", err)
	}

	slog.InfoContext(ctx, "room deleted", "room_id", room.ID, "user_id", params.UserID)
	s.publish(ctx, room, relay.EventRoomDeleted, params.UserID)

	return nil
}
