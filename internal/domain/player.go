package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusStopped Status = "stopped"
)

type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionStop  Action = "stop"
)

func (a Action) Status() (Status, error) {
	switch a {
	case ActionPlay:
		return StatusPlaying, nil
	case ActionPause:
		return StatusPaused, nil
	case ActionStop:
		return StatusStopped, nil
	}

	return "", fmt.Errorf("%w: %w %q", ErrInvalidArgument, ErrUnknownAction, string(a))
}

type PlaybackState struct {
	Seq       int64  `json:"seq"`
	Status    Status `json:"status"`
	ActorID   string `json:"actorId"`
	UpdatedAt int64  `json:"updatedAt"`
}

func NewPlaybackState(now time.Time) PlaybackState {
	return PlaybackState{
		Seq:       0,
		Status:    StatusStopped,
		UpdatedAt: now.UnixMilli(),
	}
}

// Advance is the only way seq moves forward. It is pure.
func Advance(prev PlaybackState, status Status, actorID string, now time.Time) PlaybackState {
	return PlaybackState{
		Seq:       prev.Seq + 1,
		Status:    status,
		ActorID:   actorID,
		UpdatedAt: now.UnixMilli(),
	}
}
