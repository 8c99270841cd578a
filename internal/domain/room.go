package domain

import (
	"fmt"
	"time"
)

// Room is the unit of synchronization. Its JSON form is both the snapshot
// returned to clients and the record persisted by room stores.
type Room struct {
	ID         string        `json:"id"`
	HostUserID string        `json:"hostUserId"`
	Users      []User        `json:"users"`
	Media      *Media        `json:"media"`
	Playback   PlaybackState `json:"playback"`
}

// NewRoom returns a room owned by its creator with seq 0 and nothing loaded.
func NewRoom(id, userID, username string, now time.Time) (Room, error) {
	if id == "" || userID == "" || username == "" {
		return Room{}, fmt.Errorf("%w: roomId, userId and username are required", ErrInvalidArgument)
	}

	ms := now.UnixMilli()
	return Room{
		ID:         id,
		HostUserID: userID,
		Users: []User{{
			ID:         userID,
			Username:   username,
			IsHost:     true,
			JoinedAt:   ms,
			LastSeenAt: ms,
		}},
		Playback: NewPlaybackState(now),
	}, nil
}

// Sanitized returns the public projection with derived fields recomputed and
// no nil collections, so it serializes the same way regardless of origin.
func (r Room) Sanitized() Room {
	users := make([]User, len(r.Users))
	copy(users, r.Users)
	for i := range users {
		users[i].IsHost = users[i].ID == r.HostUserID
	}

	var media *Media
	if r.Media != nil {
		m := *r.Media
		media = &m
	}

	return Room{
		ID:         r.ID,
		HostUserID: r.HostUserID,
		Users:      users,
		Media:      media,
		Playback:   r.Playback,
	}
}

func (r Room) IsHost(userID string) bool {
	return userID != "" && r.HostUserID == userID
}

func (r Room) IsEmpty() bool {
	return len(r.Users) == 0
}

// Join adds the user, or refreshes name and lastSeenAt when already a member.
func (r Room) Join(userID, username string, now time.Time) (Room, error) {
	if userID == "" || username == "" {
		return Room{}, fmt.Errorf("%w: userId and username are required", ErrInvalidArgument)
	}

	next := r.Sanitized()
	ms := now.UnixMilli()
	if _, index, ok := next.User(userID); ok {
		next.Users[index].Username = username
		next.Users[index].LastSeenAt = ms
		return next, nil
	}

	next.Users = append(next.Users, User{
		ID:         userID,
		Username:   username,
		IsHost:     false,
		JoinedAt:   ms,
		LastSeenAt: ms,
	})

	return next, nil
}

// LoadMedia replaces the media and stops playback, advancing seq.
func (r Room) LoadMedia(media Media, actorID string, now time.Time) (Room, error) {
	if err := media.Validate(); err != nil {
		return Room{}, err
	}

	next := r.Sanitized()
	media.ActorID = actorID
	media.UpdatedAt = now.UnixMilli()
	next.Media = &media
	next.Playback = Advance(next.Playback, StatusStopped, actorID, now)

	return next, nil
}

// Control applies a transport action, advancing seq.
func (r Room) Control(action Action, actorID string, now time.Time) (Room, error) {
	status, err := action.Status()
	if err != nil {
		return Room{}, err
	}

	next := r.Sanitized()
	next.Playback = Advance(next.Playback, status, actorID, now)

	return next, nil
}
