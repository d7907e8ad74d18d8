package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.handleGetState)
		r.Get("/health", s.handleGetHealth)

		r.Route("/command", func(r chi.Router) {
			r.Post("/led", s.handleSendLEDCommand)
			r.Post("/raw", s.handleSendRawCommand)
		})

		r.Get("/commands", s.handleListCommands)
	})

	return r
}
