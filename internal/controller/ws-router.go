package controller

import (
	"github.com/sharetube/audiosync/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.SetErrorHandler(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)
	wsrouter.Handle(mux, "NOTIFY_ROOM_UPDATE", c.handleNotifyRoomUpdate)

	return mux
}
