package room

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/relay"
	"github.com/sharetube/audiosync/internal/repository/connection"
	roomrepo "github.com/sharetube/audiosync/internal/repository/room"
	"github.com/sharetube/audiosync/pkg/ytvideodata"
)

var (
	ErrRoomNotFound       = roomrepo.ErrRoomNotFound
	ErrBackendUnavailable = roomrepo.ErrBackendUnavailable
	ErrCorruptRoom        = roomrepo.ErrCorruptRoom
	ErrInvalidArgument    = domain.ErrInvalidArgument
	ErrForbidden          = errors.New("forbidden")
)

type iRoomRepo interface {
	Get(ctx context.Context, roomID string) (domain.Room, error)
	Set(ctx context.Context, room domain.Room) error
	Delete(ctx context.Context, roomID string) error
}

type iConnRepo interface {
	Add(conn *connection.Conn) error
	RemoveByConn(ws *websocket.Conn) (*connection.Conn, error)
	ListByRoom(roomID string) []*connection.Conn
	Count() int
}

type iVideoDataProvider interface {
	Get(ctx context.Context, videoID string) (*ytvideodata.VideoData, error)
}

type Config struct {
	StaleAfter  time.Duration
	StoreStatus roomrepo.Status
	// VideoData is optional. When set, youtube media gets a title lookup.
	VideoData iVideoDataProvider
	Now       func() time.Time
}

type service struct {
	roomRepo    iRoomRepo
	connRepo    iConnRepo
	publisher   relay.Publisher
	presence    domain.PresenceTracker
	videoData   iVideoDataProvider
	storeStatus roomrepo.Status
	now         func() time.Time
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, publisher relay.Publisher, cfg Config) *service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		roomRepo:    roomRepo,
		connRepo:    connRepo,
		publisher:   publisher,
		presence:    domain.NewPresenceTracker(cfg.StaleAfter),
		videoData:   cfg.VideoData,
		storeStatus: cfg.StoreStatus,
		now:         now,
	}
}

func (s service) StoreStatus() roomrepo.Status {
	return s.storeStatus
}
