package connection

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendNeverBlocks(t *testing.T) {
	conn := New(&websocket.Conn{}, "r1", "A", WithSendBuffer(2))

	require.NoError(t, conn.Send(map[string]int{"seq": 1}))
	require.NoError(t, conn.Send(map[string]int{"seq": 2}))
	assert.ErrorIs(t, conn.Send(map[string]int{"seq": 3}), ErrSendBufferFull)

	assert.Equal(t, `{"seq":1}`, string(<-conn.send))
	require.NoError(t, conn.Send(map[string]int{"seq": 3}))
}

func TestSendRejectsUnencodable(t *testing.T) {
	conn := New(&websocket.Conn{}, "r1", "A")
	assert.Error(t, conn.Send(make(chan int)))
}
