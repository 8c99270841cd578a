package room

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrBackendUnavailable = errors.New("store backend unavailable")
	// ErrCorruptRoom means a stored record exists but cannot be decoded.
	ErrCorruptRoom        = errors.New("stored room is corrupt")
)
