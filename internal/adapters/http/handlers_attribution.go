package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/attribution-engine/internal/application"
	"github.com/viralforge/attribution-engine/internal/domain"
)

// attributeSaleRequest is the webhook contract: a flat sale payload plus
// optional per-call resolution overrides.
type attributeSaleRequest struct {
	domain.SaleEvent
	WindowMinutes int     `json:"window_minutes,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

func (h *Handler) attributeSale(w http.ResponseWriter, r *http.Request) {
	var req attributeSaleRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "attribute_sale", err)
		return
	}

	result, err := h.service.AttributeSale(r.Context(), req.SaleEvent, application.AttributeOptions{
		WindowMinutes: req.WindowMinutes,
		MinConfidence: req.MinConfidence,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "attribute_sale", err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

type feedbackRequest struct {
	Confirmed bool `json:"confirmed"`
}

func (h *Handler) attributionFeedback(w http.ResponseWriter, r *http.Request) {
	attributionID := chi.URLParam(r, "attribution_id")
	var req feedbackRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "attribution_feedback", err)
		return
	}

	attribution, err := h.service.ProcessAttributionFeedback(r.Context(), attributionID, req.Confirmed)
	if err != nil {
		writeMappedError(r.Context(), w, "attribution_feedback", err)
		return
	}
	writeSuccess(w, http.StatusOK, attribution)
}
