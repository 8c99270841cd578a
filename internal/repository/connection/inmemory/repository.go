package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sharetube/audiosync/internal/repository/connection"
)

type repo struct {
	connList map[*websocket.Conn]*connection.Conn
	roomList map[string]map[*websocket.Conn]*connection.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*websocket.Conn]*connection.Conn),
		roomList: make(map[string]map[*websocket.Conn]*connection.Conn),
	}
}

func (r *repo) Add(conn *connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "room_id", conn.RoomID, "user_id", conn.UserID)
	if _, ok := r.connList[conn.WS()]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn.WS()] = conn
	room, ok := r.roomList[conn.RoomID]
	if !ok {
		room = make(map[*websocket.Conn]*connection.Conn)
		r.roomList[conn.RoomID] = room
	}
	room[conn.WS()] = conn

	return nil
}

// RemoveByConn forgets the connection. Closing it is left to the caller.
func (r *repo) RemoveByConn(ws *websocket.Conn) (*connection.Conn, error) {
	funcName := "connection.inmemory.RemoveByConn"
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connList[ws]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	delete(r.connList, ws)
	if room := r.roomList[conn.RoomID]; room != nil {
		delete(room, ws)
		if len(room) == 0 {
			delete(r.roomList, conn.RoomID)
		}
	}

	slog.Debug(funcName, "room_id", conn.RoomID, "user_id", conn.UserID)
	return conn, nil
}

// ListByRoom returns a snapshot of the room's connections, safe to iterate
// while others come and go.
func (r *repo) ListByRoom(roomID string) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.roomList[roomID]
	res := make([]*connection.Conn, 0, len(room))
	for _, conn := range room {
		res = append(res, conn)
	}

	return res
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connList)
}
