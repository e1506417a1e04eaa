package http

import (
	"net/http"

	"github.com/viralforge/attribution-engine/internal/domain"
)

func (h *Handler) ingestContent(w http.ResponseWriter, r *http.Request) {
	var req domain.RawContent
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "ingest_content", err)
		return
	}

	attributions, err := h.service.IngestContent(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "ingest_content", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"attributed_count": len(attributions),
		"attributions":     attributions,
	})
}

func (h *Handler) modelState(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.GetModelState(r.Context()))
}
