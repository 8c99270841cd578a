package room

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharetube/audiosync/internal/domain"
)

// Unavailable is installed when a durable store is required but could not be
// reached at startup. Every call fails with ErrBackendUnavailable.
type Unavailable struct {
	cause error
}

func NewUnavailable(cause error) *Unavailable {
	return &Unavailable{cause: cause}
}

func (u Unavailable) err() error {
	if u.cause == nil {
		return ErrBackendUnavailable
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, u.cause)
}

func (u Unavailable) Get(ctx context.Context, roomID string) (domain.Room, error) {
	slog.DebugContext(ctx, "room.unavailable.Get", "room_id", roomID)
	return domain.Room{}, u.err()
}

func (u Unavailable) Set(ctx context.Context, r domain.Room) error {
	slog.DebugContext(ctx, "room.unavailable.Set", "room_id", r.ID)
	return u.err()
}

func (u Unavailable) Delete(ctx context.Context, roomID string) error {
	slog.DebugContext(ctx, "room.unavailable.Delete", "room_id", roomID)
	return u.err()
}
