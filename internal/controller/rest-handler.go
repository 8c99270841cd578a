package controller

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/audiosync/internal/domain"
	"github.com/sharetube/audiosync/internal/service/room"
	"github.com/sharetube/audiosync/pkg/rest"
)

// readInput decodes and validates a request body. It writes the 400 itself
// and reports whether the handler may go on.
func (c controller) readInput(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		c.logger.InfoContext(r.Context(), op, "read json err", err)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		c.logger.InfoContext(r.Context(), op, "validate err", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return false
	}

	return true
}

// pathRoomID returns the room id from the path. Bodies may repeat it, as
// older clients do, but must not disagree.
func pathRoomID(r *http.Request, bodyRoomID string) (string, error) {
	roomID := chi.URLParam(r, "room-id")
	if bodyRoomID != "" && bodyRoomID != roomID {
		return "", fmt.Errorf("%w: roomId in body does not match path", room.ErrInvalidArgument)
	}

	return roomID, nil
}

func (c controller) writeRoom(w http.ResponseWriter, status int, rm domain.Room) {
	rest.WriteJSON(w, status, rest.Envelope{"room": rm.Sanitized()})
}

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	status := c.roomService.StoreStatus()
	code := http.StatusOK
	if !status.Available {
		code = http.StatusServiceUnavailable
	}

	rest.WriteJSON(w, code, rest.Envelope{"ok": status.Available, "store": status})
}

type createRoomInput struct {
	RoomID   string `json:"roomId" validate:"required,max=128"`
	UserID   string `json:"userId" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var input createRoomInput
	if !c.readInput(w, r, "createRoom", &input) {
		return
	}

	rm, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		RoomID:   input.RoomID,
		UserID:   input.UserID,
		Username: input.Username,
	})
	if err != nil {
		c.writeError(r.Context(), w, "createRoom", err)
		return
	}

	c.writeRoom(w, http.StatusCreated, rm)
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := c.roomService.GetRoom(r.Context(), &room.GetRoomParams{
		RoomID: chi.URLParam(r, "room-id"),
		UserID: r.URL.Query().Get("user-id"),
	})
	if err != nil {
		c.writeError(r.Context(), w, "getRoom", err)
		return
	}

	c.writeRoom(w, http.StatusOK, rm)
}

func (c controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := c.roomService.DeleteRoom(r.Context(), &room.DeleteRoomParams{
		RoomID: chi.URLParam(r, "room-id"),
		UserID: r.URL.Query().Get("user-id"),
	}); err != nil {
		c.writeError(r.Context(), w, "deleteRoom", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type joinRoomInput struct {
	RoomID   string `json:"roomId,omitempty"`
	UserID   string `json:"userId" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var input joinRoomInput
	if !c.readInput(w, r, "joinRoom", &input) {
		return
	}

	roomID, err := pathRoomID(r, input.RoomID)
	if err != nil {
		c.writeError(r.Context(), w, "joinRoom", err)
		return
	}

	rm, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomID:   roomID,
		UserID:   input.UserID,
		Username: input.Username,
	})
	if err != nil {
		c.writeError(r.Context(), w, "joinRoom", err)
		return
	}

	c.writeRoom(w, http.StatusOK, rm)
}

type loadYouTubeInput struct {
	RoomID  string `json:"roomId,omitempty"`
	UserID  string `json:"userId" validate:"required,max=128"`
	VideoID string `json:"videoId,omitempty" validate:"omitempty,max=32"`
	URL     string `json:"url" validate:"required,url"`
}

func (c controller) loadYouTube(w http.ResponseWriter, r *http.Request) {
	var input loadYouTubeInput
	if !c.readInput(w, r, "loadYouTube", &input) {
		return
	}

	roomID, err := pathRoomID(r, input.RoomID)
	if err != nil {
		c.writeError(r.Context(), w, "loadYouTube", err)
		return
	}

	rm, err := c.roomService.LoadYouTube(r.Context(), &room.LoadYouTubeParams{
		RoomID:  roomID,
		UserID:  input.UserID,
		VideoID: input.VideoID,
		URL:     input.URL,
	})
	if err != nil {
		c.writeError(r.Context(), w, "loadYouTube", err)
		return
	}

	c.writeRoom(w, http.StatusOK, rm)
}

type loadLocalInput struct {
	RoomID   string `json:"roomId,omitempty"`
	UserID   string `json:"userId" validate:"required,max=128"`
	URL      string `json:"url" validate:"required"`
	FileName string `json:"fileName,omitempty" validate:"omitempty,max=255"`
}

func (c controller) loadLocal(w http.ResponseWriter, r *http.Request) {
	var input loadLocalInput
	if !c.readInput(w, r, "loadLocal", &input) {
		return
	}

	roomID, err := pathRoomID(r, input.RoomID)
	if err != nil {
		c.writeError(r.Context(), w, "loadLocal", err)
		return
	}

	rm, err := c.roomService.LoadLocal(r.Context(), &room.LoadLocalParams{
		RoomID:   roomID,
		UserID:   input.UserID,
		URL:      input.URL,
		FileName: input.FileName,
	})
	if err != nil {
		c.writeError(r.Context(), w, "loadLocal", err)
		return
	}

	c.writeRoom(w, http.StatusOK, rm)
}

type controlInput struct {
	RoomID string `json:"roomId,omitempty"`
	UserID string `json:"userId" validate:"required,max=128"`
	Action string `json:"action" validate:"required,oneof=play pause stop"`
}

func (c controller) control(w http.ResponseWriter, r *http.Request) {
	var input controlInput
	if !c.readInput(w, r, "control", &input) {
		return
	}

	roomID, err := pathRoomID(r, input.RoomID)
	if err != nil {
		c.writeError(r.Context(), w, "control", err)
		return
	}

	rm, err := c.roomService.Control(r.Context(), &room.ControlParams{
		RoomID: roomID,
		UserID: input.UserID,
		Action: domain.Action(input.Action),
	})
	if err != nil {
		c.writeError(r.Context(), w, "control", err)
		return
	}

	c.writeRoom(w, http.StatusOK, rm)
}
