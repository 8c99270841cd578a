package controller

import (
	"context"

	"github.com/sharetube/audiosync/internal/repository/connection"
)

type contextKey int

const (
	connCtxKey contextKey = iota
)

func (c controller) getConnFromCtx(ctx context.Context) *connection.Conn {
	conn, ok := ctx.Value(connCtxKey).(*connection.Conn)
	if !ok {
		return nil
	}

	return conn
}
