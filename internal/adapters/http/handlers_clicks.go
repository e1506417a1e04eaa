package http

import (
	"net/http"

	"github.com/viralforge/attribution-engine/internal/domain"
)

func (h *Handler) recordClick(w http.ResponseWriter, r *http.Request) {
	var req domain.ClickEvent
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "record_click", err)
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = readIP(r)
	}

	click, err := h.service.RecordClick(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "record_click", err)
		return
	}
	writeSuccess(w, http.StatusCreated, click)
}

func (h *Handler) clickStats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.GetClickStats(r.Context()))
}
