package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/sharetube/audiosync/internal/service/room"
	"github.com/sharetube/audiosync/pkg/rest"
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, room.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, room.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFromError(err error) string {
	switch statusFromError(err) {
	case http.StatusNotFound:
		return "room not found"
	case http.StatusForbidden:
		return "only the host can do that"
	case http.StatusServiceUnavailable:
		return room.ErrBackendUnavailable.Error()
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return err.Error()
	}
}

func (c controller) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := statusFromError(err)
	if status >= http.StatusInternalServerError {
		c.logger.WarnContext(ctx, op, "error", err)
	} else {
		c.logger.InfoContext(ctx, op, "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": messageFromError(err)})
}
