package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/blockenergy-core/internal/auth"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/capabilities/{world}/{x}/{y}/{z}", s.handleGetCapability)
		r.Get(s.wsPath(), s.handleWebSocket)
		r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)

		r.Route("/worlds/{world}", func(r chi.Router) {
			r.With(s.requirePermission(auth.PermWorldSave)).Post("/save", s.handleSaveWorld)
			r.With(s.requirePermission(auth.PermWorldExport)).Get("/export", s.handleExportWorld)
		})
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
