package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler receives every error returned by a handler or produced while routing.
// Returning a non-nil error stops ServeConn.
type ErrorHandler func(ctx context.Context, conn *websocket.Conn, err error) error

type route struct {
	decode  func(json.RawMessage) (any, error)
	handler HandlerFunc[any]
}

type WSRouter struct {
	routes       map[string]route
	middlewares  []Middleware
	errorHandler ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{
		routes: make(map[string]route),
		errorHandler: func(_ context.Context, _ *websocket.Conn, err error) error {
			return err
		},
	}
}

func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *WSRouter) SetErrorHandler(h ErrorHandler) {
	r.errorHandler = h
}

// Handle registers a handler whose payload is decoded into T before the call.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) == 0 || string(raw) == "null" {
				return payload, nil
			}

			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}

			return payload, nil
		},
		handler: func(ctx context.Context, conn *websocket.Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		},
	}
}

func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		if err := r.dispatch(ctx, conn, &msg); err != nil {
			if err := r.errorHandler(ctx, conn, err); err != nil {
				return err
			}
		}
	}
}

func (r *WSRouter) dispatch(ctx context.Context, conn *websocket.Conn, msg *message) error {
	rt, ok := r.routes[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	payload, err := rt.decode(msg.Payload)
	if err != nil {
		return err
	}

	handler := rt.handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(context.WithValue(ctx, messageTypeKey, msg.Type), conn, payload)
}
