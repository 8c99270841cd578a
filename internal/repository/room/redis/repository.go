package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/repository/room"
)

const DefaultExpireDuration = 12 * time.Hour

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	if expireDuration <= 0 {
		expireDuration = DefaultExpireDuration
	}

	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getRoomKey(roomID string) string {
	return "audio-sync:room:" + roomID
}

func (r repo) Get(ctx context.Context, roomID string) (domain.Room, error) {
	funcName := "room.redis.Get"
	slog.DebugContext(ctx, funcName, "room_id", roomID)

	data, err := r.rc.Get(ctx, r.getRoomKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			slog.DebugContext(ctx, funcName, "error", room.ErrRoomNotFound)
			return domain.Room{}, room.ErrRoomNotFound
		}

		slog.ErrorContext(ctx, funcName, "error", err)
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	var res domain.Room
	if err := json.Unmarshal(data, &res); err != nil {
		slog.ErrorContext(ctx, funcName, "room_id", roomID, "error", err)
		return domain.Room{}, fmt.Errorf("%w: %w", room.ErrCorruptRoom, err)
	}

	slog.DebugContext(ctx, funcName, "seq", res.Playback.Seq)
	return res.Sanitized(), nil
}

func (r repo) Set(ctx context.Context, rm domain.Room) error {
	funcName := "room.redis.Set"
	slog.DebugContext(ctx, funcName, "room_id", rm.ID, "seq", rm.Playback.Seq)

	data, err := json.Marshal(rm.Sanitized())
	if err != nil {
		return fmt.Errorf("failed to encode room: %w", err)
	}

	if err := r.rc.Set(ctx, r.getRoomKey(rm.ID), data, r.expireDuration).Err(); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) Delete(ctx context.Context, roomID string) error {
	funcName := "room.redis.Delete"
	slog.DebugContext(ctx, funcName, "room_id", roomID)

	if err := r.rc.Del(ctx, r.getRoomKey(roomID)).Err(); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}
