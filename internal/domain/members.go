package domain

import (
	"time"

	"golang.org/x/exp/slices"
)

// DefaultStaleAfter is the inactivity window after which a user is pruned.
const DefaultStaleAfter = 5 * time.Minute

type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	IsHost     bool   `json:"isHost"`
	JoinedAt   int64  `json:"joinedAt"`
	LastSeenAt int64  `json:"lastSeenAt"`
}

func (r Room) User(userID string) (User, int, bool) {
	index := slices.IndexFunc(r.Users, func(u User) bool {
		return u.ID == userID
	})
	if index < 0 {
		return User{}, -1, false
	}

	return r.Users[index], index, true
}

func (r Room) HasUser(userID string) bool {
	_, _, ok := r.User(userID)
	return ok
}

type PresenceTracker struct {
	StaleAfter time.Duration
}

func NewPresenceTracker(staleAfter time.Duration) PresenceTracker {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	return PresenceTracker{StaleAfter: staleAfter}
}

// Touch marks userID as seen, prunes stale users, re-elects the host when it
// is gone and recomputes isHost. userID may be empty, in which case only the
// pruning and host steps run. The caller is never pruned.
func (p PresenceTracker) Touch(room Room, userID string, now time.Time) Room {
	next := room.Sanitized()
	ms := now.UnixMilli()

	if userID != "" {
		for i := range next.Users {
			if next.Users[i].ID == userID {
				next.Users[i].LastSeenAt = ms
			}
		}
	}

	cutoff := now.Add(-p.staleAfter()).UnixMilli()
	next.Users = slices.DeleteFunc(next.Users, func(u User) bool {
		// users never seen are treated as fresh
		return u.ID != userID && u.LastSeenAt != 0 && u.LastSeenAt < cutoff
	})

	if len(next.Users) > 0 && !next.HasUser(next.HostUserID) {
		next.HostUserID = next.Users[0].ID
	}

	for i := range next.Users {
		next.Users[i].IsHost = next.Users[i].ID == next.HostUserID
	}

	return next
}

func (p PresenceTracker) staleAfter() time.Duration {
	if p.StaleAfter <= 0 {
		return DefaultStaleAfter
	}

	return p.StaleAfter
}

// MembershipChanged reports whether the user set or the host differs.
func MembershipChanged(before, after Room) bool {
	if before.HostUserID != after.HostUserID || len(before.Users) != len(after.Users) {
		return true
	}

	for i := range before.Users {
		if before.Users[i].ID != after.Users[i].ID {
			return true
		}
	}

	return false
}
