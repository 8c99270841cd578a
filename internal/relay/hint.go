package relay

import "context"

// EventType says which command produced a hint. Clients treat it as a label
// only and always re-fetch the room.
type EventType string

const (
	EventRoomCreated EventType = "room_created"
	EventUserJoined  EventType = "user_joined"
	EventMediaLoaded EventType = "media_loaded"
	EventPlayback    EventType = "playback"
	EventPresence    EventType = "presence"
	EventRoomDeleted EventType = "room_deleted"
)

const MessageTypeRoomUpdated = "ROOM_UPDATED"

type Hint struct {
	RoomID    string    `json:"roomId"`
	EventType EventType `json:"eventType"`
	Seq       int64     `json:"seq"`
	ActorID   string    `json:"actorId"`
}

type Frame struct {
	Type    string `json:"type"`
	Payload Hint   `json:"payload"`
}

func NewFrame(h Hint) Frame {
	return Frame{Type: MessageTypeRoomUpdated, Payload: h}
}

// Publisher carries hints to every process that holds subscribers of a room.
type Publisher interface {
	Publish(ctx context.Context, h Hint) error
}

// Deliverer writes a hint to the subscribers held by this process.
type Deliverer interface {
	Deliver(ctx context.Context, h Hint) int
}
