// Package server wires HTTP handlers into a chi router for coinchat.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes returns the application router: liveness, user API, socket
// endpoint and test page, behind CORS for the allowed origin.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins.Origins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", HealthHandler)
	r.Post("/user", s.CreateUserHandler)
	r.Get("/user/{username}", s.GetUserHandler)
	r.HandleFunc("/ws", s.WebSocketHandler)
	r.Get("/test", s.TestPageHandler)
	return r
}
