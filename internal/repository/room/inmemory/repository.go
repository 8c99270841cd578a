package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/repository/room"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// repo keeps encoded snapshots so callers never share memory with the store.
type repo struct {
	rooms          map[string]entry
	expireDuration time.Duration
	now            func() time.Time
	mu             sync.RWMutex
}

func NewRepo(expireDuration time.Duration, now func() time.Time) *repo {
	if now == nil {
		now = time.Now
	}

	return &repo{
		rooms:          make(map[string]entry),
		expireDuration: expireDuration,
		now:            now,
	}
}

func (r *repo) Get(ctx context.Context, roomID string) (domain.Room, error) {
	funcName := "room.inmemory.Get"
	slog.DebugContext(ctx, funcName, "room_id", roomID)

	r.mu.RLock()
	e, ok := r.rooms[roomID]
	r.mu.RUnlock()

	if ok && r.expireDuration > 0 && !r.now().Before(e.expiresAt) {
		r.mu.Lock()
		if cur, still := r.rooms[roomID]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(r.rooms, roomID)
		}
		r.mu.Unlock()
		ok = false
	}

	if !ok {
		slog.DebugContext(ctx, funcName, "error", room.ErrRoomNotFound)
		return domain.Room{}, room.ErrRoomNotFound
	}

	var res domain.Room
	if err := json.Unmarshal(e.data, &res); err != nil {
		slog.ErrorContext(ctx, funcName, "room_id", roomID, "error", err)
		return domain.Room{}, fmt.Errorf("%w: %w", room.ErrCorruptRoom, err)
	}

	return res.Sanitized(), nil
}

func (r *repo) Set(ctx context.Context, rm domain.Room) error {
	slog.DebugContext(ctx, "room.inmemory.Set", "room_id", rm.ID, "seq", rm.Playback.Seq)

	data, err := json.Marshal(rm.Sanitized())
	if err != nil {
		return fmt.Errorf("failed to encode room: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[rm.ID] = entry{
		data:      data,
		expiresAt: r.now().Add(r.expireDuration),
	}

	return nil
}

func (r *repo) Delete(ctx context.Context, roomID string) error {
	slog.DebugContext(ctx, "room.inmemory.Delete", "room_id", roomID)

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomID)
	return nil
}
