package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/repository/connection"
	roomrepo "github.com/sharetube/audiosync/internal/repository/room"
	"github.com/sharetube/audiosync/internal/service/room"
	"github.com/sharetube/audiosync/pkg/validator"
	"github.com/sharetube/audiosync/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (domain.Room, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (domain.Room, error)
	GetRoom(context.Context, *room.GetRoomParams) (domain.Room, error)
	DeleteRoom(context.Context, *room.DeleteRoomParams) error
	LoadYouTube(context.Context, *room.LoadYouTubeParams) (domain.Room, error)
	LoadLocal(context.Context, *room.LoadLocalParams) (domain.Room, error)
	Control(context.Context, *room.ControlParams) (domain.Room, error)
	StoreStatus() roomrepo.Status
	// websocket
	Subscribe(context.Context, *room.SubscribeParams) (*connection.Conn, error)
	Unsubscribe(context.Context, *websocket.Conn) error
	NotifyRoomUpdate(context.Context, *room.NotifyRoomUpdateParams) error
}

type Config struct {
	// PingPeriod must be shorter than PongWait.
	PingPeriod time.Duration
	PongWait   time.Duration
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
	pingPeriod  time.Duration
	pongWait    time.Duration
}

func NewController(roomService iRoomService, logger *slog.Logger, cfg Config) *controller {
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}

	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
		pingPeriod:  cfg.PingPeriod,
		pongWait:    cfg.PongWait,
	}
	c.wsmux = c.getWSRouter()

	return c
}
