package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*miniredis.Miniredis, *repo) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })
	return s, NewRepo(rc, 0)
}

func newRoom(t *testing.T) domain.Room {
	t.Helper()
	r, err := domain.NewRoom("r1", "A", "alice", time.UnixMilli(1_700_000_000_000))
	require.NoError(t, err)
	return r
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	s, repo := setupRepo(t)
	r := newRoom(t)

	require.NoError(t, repo.Set(ctx, r))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r, got)

	ttl := s.TTL("audio-sync:room:r1")
	assert.Equal(t, DefaultExpireDuration, ttl)

	raw, err := s.Get("audio-sync:room:r1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"hostUserId":"A"`)
}

func TestGetMissing(t *testing.T) {
	_, repo := setupRepo(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestSetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s, repo := setupRepo(t)
	r := newRoom(t)

	require.NoError(t, repo.Set(ctx, r))
	s.FastForward(11 * time.Hour)
	require.NoError(t, repo.Set(ctx, r))
	s.FastForward(11 * time.Hour)

	_, err := repo.Get(ctx, "r1")
	require.NoError(t, err)

	s.FastForward(2 * time.Hour)
	_, err = repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	_, repo := setupRepo(t)
	require.NoError(t, repo.Set(ctx, newRoom(t)))

	require.NoError(t, repo.Delete(ctx, "r1"))
	require.NoError(t, repo.Delete(ctx, "r1"))

	_, err := repo.Get(ctx, "r1")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestGetFailsWhenServerUnreachable(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { rc.Close() })
	repo := NewRepo(rc, time.Minute)

	_, err := repo.Get(context.Background(), "r1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, room.ErrRoomNotFound)
}

func TestGetCorruptRecord(t *testing.T) {
	s, repo := setupRepo(t)
	require.NoError(t, s.Set("audio-sync:room:r1", "not json"))

	_, err := repo.Get(context.Background(), "r1")
	assert.ErrorIs(t, err, room.ErrCorruptRoom)
	assert.NotErrorIs(t, err, room.ErrRoomNotFound)
}
