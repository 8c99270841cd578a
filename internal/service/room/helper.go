package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
)

// storeError keeps NotFound, Unavailable and Corrupt as they are and reports
// any other store failure as an unavailable backend.
func storeError(op string, err error) error {
	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	if errors.Is(err, ErrCorruptRoom) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	return fmt.Errorf("failed to %s: %w: %w", op, ErrBackendUnavailable, err)
}

func (s service) getRoom(ctx context.Context, roomID string) (domain.Room, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return domain.Room{}, storeError("get room", err)
	}

	return room, nil
}

func (s service) setRoom(ctx context.Context, room domain.Room) error {
	if err := s.roomRepo.Set(ctx, room); err != nil {
		return storeError("set room", err)
	}

	return nil
}

// touch runs the presence pass for userID. A pass that leaves nobody in the
// room deletes it and reports ErrRoomNotFound.
func (s service) touch(ctx context.Context, room domain.Room, userID string, now time.Time) (domain.Room, error) {
	touched := s.presence.Touch(room, userID, now)
	if !touched.IsEmpty() {
		return touched, nil
	}

	if err := s.roomRepo.Delete(ctx, room.ID); err != nil {
		return domain.Room{}, storeError("delete room", err)
	}

	slog.InfoContext(ctx, "empty room removed", "room_id", room.ID)
	return domain.Room{}, ErrRoomNotFound
}

// publish never fails the command. The hint is advisory and clients poll.
func (s service) publish(ctx context.Context, room domain.Room, eventType relay.EventType, actorID string) {
	if s.publisher == nil {
		return
	}

	hint := relay.Hint{
		RoomID:    room.ID,
		EventType: eventType,
		Seq:       room.Playback.Seq,
		ActorID:   actorID,
	}
	if err := s.publisher.Publish(ctx, hint); err != nil {
		slog.WarnContext(ctx, "failed to publish hint", "room_id", room.ID, "event_type", eventType, "error", err)
	}
}

func requireIDs(fields ...string) error {
	for _, f := range fields {
		if f == "" {
			return fmt.Errorf("%w: roomId and userId are required", ErrInvalidArgument)
		}
	}

	return nil
}
