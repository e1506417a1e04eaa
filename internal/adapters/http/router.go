package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/attribution-engine/internal/application"
)

// Handler is the HTTP adapter entrypoint for attribution use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers attribution HTTP routes and middleware stack.
// Centralizing routes here ensures consistent error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/attribution/v1", func(r chi.Router) {
		r.Post("/clicks", handler.recordClick)
		r.Get("/clicks/stats", handler.clickStats)
		r.Post("/sales/attribute", handler.attributeSale)
		r.Post("/attributions/{attribution_id}/feedback", handler.attributionFeedback)
		r.Post("/content", handler.ingestContent)
		r.Get("/model", handler.modelState)
	})

	return r
}
