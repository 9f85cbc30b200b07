package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/service"
)

type MemoryViewHandler struct {
	renderer *service.RendererService
	memory   *service.MemoryService
}

func NewMemoryViewHandler(renderer *service.RendererService, memory *service.MemoryService) *MemoryViewHandler {
	return &MemoryViewHandler{renderer: renderer, memory: memory}
}

// RenderMarkdown serves the narrative memory document. Accepts
// max_tokens and include_stats query parameters.
func (h *MemoryViewHandler) RenderMarkdown(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	markdown, err := h.renderer.RenderMemoryMarkdown(r.Context(), projectID,
		queryInt(r, "max_tokens", 0), queryBool(r, "include_stats"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render memory")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"markdown": markdown})
}

func (h *MemoryViewHandler) AgentView(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	view, err := h.renderer.RenderForAgent(r.Context(), projectID, queryInt(r, "max_tokens", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render agent view")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *MemoryViewHandler) BeliefDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return
	}

	node, err := h.memory.GetNode(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNodeNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get belief")
		return
	}

	markdown, err := h.renderer.RenderBeliefDetail(r.Context(), node)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render belief detail")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"markdown": markdown})
}

func (h *MemoryViewHandler) GraphSummary(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	markdown, err := h.renderer.RenderGraphSummary(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render graph summary")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"markdown": markdown})
}
