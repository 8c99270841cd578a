package room

import (
	"context"
	"errors"
	"testing"

	"github.com/sharetube/audiosync/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestUnavailableFailsFast(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("dial tcp: connection refused")
	u := NewUnavailable(cause)

	_, err := u.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, cause)

	assert.ErrorIs(t, u.Set(ctx, domain.Room{ID: "r1"}), ErrBackendUnavailable)
	assert.ErrorIs(t, NewUnavailable(nil).Delete(ctx, "r1"), ErrBackendUnavailable)
}

func TestModeDurable(t *testing.T) {
	assert.True(t, ModeRedis.Durable())
	assert.True(t, ModeSQLite.Durable())
	assert.False(t, ModeMemory.Durable())
	assert.False(t, Mode("etcd").Valid())
}
