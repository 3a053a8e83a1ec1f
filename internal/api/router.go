package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/ws", s.handleWebSocket)

		r.Route("/appliances", func(r chi.Router) {
			r.Get("/", s.handleListAppliances)

			r.Route("/{mac}", func(r chi.Router) {
				r.Get("/", s.handleGetAppliance)
				r.Post("/reload", s.handleReload)
				r.Get("/attributes", s.handleGetAttributes)
				r.Post("/attributes/refresh", s.handleRefreshAttributes)
				r.Get("/settings", s.handleGetSettings)
				r.Post("/sync", s.handleSync)
				r.Get("/journal", s.handleJournal)

				r.Route("/commands", func(r chi.Router) {
					r.Get("/", s.handleListCommands)

					r.Route("/{name}", func(r chi.Router) {
						r.Get("/", s.handleGetCommand)
						r.Put("/parameters/{key}", s.handleSetParameter)
						r.Put("/category", s.handleSetCategory)
						r.Post("/send", s.handleSend)
						r.Post("/reset", s.handleResetCommand)
					})
				})
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
