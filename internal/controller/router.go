package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", c.healthz)
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", c.createRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/", c.getRoom)
				r.Delete("/", c.deleteRoom)
				r.Post("/join", c.joinRoom)
				r.Post("/media/youtube", c.loadYouTube)
				r.Post("/media/local", c.loadLocal)
				r.Post("/control", c.control)
			})
		})
		r.Get("/ws/rooms/{room-id}", c.subscribe)
	})

	return r
}
