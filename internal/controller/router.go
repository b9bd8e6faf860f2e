package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (c *controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)

	r.HandleFunc("/ws/create-session", c.createSession)
	r.HandleFunc("/ws/join-session/{session-id}", c.joinSession)

	return r
}
