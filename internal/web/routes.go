package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-registry/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	facesHandler := handlers.NewFacesHandler(s.enroller, s.querier)
	labelsHandler := handlers.NewLabelsHandler(s.store)
	statsHandler := handlers.NewStatsHandler(s.store, s.config.Matching.Threshold, s.config.Database.Driver)

	s.router.Get("/", handlers.HealthCheck)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// Routes used by existing clients
	s.router.Post("/create-face", facesHandler.CreateFace)
	s.router.Post("/checkFace", facesHandler.CheckFace)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/faces", facesHandler.CreateFace)
		r.Post("/faces/check", facesHandler.CheckFace)

		r.Get("/labels", labelsHandler.List)
		r.Delete("/labels/{label}", labelsHandler.Delete)

		r.Get("/stats", statsHandler.Get)
	})
}
