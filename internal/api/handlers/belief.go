package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
	"github.com/parallaxhq/mindloom/internal/service"
)

type BeliefHandler struct {
	svc *service.MemoryService
}

func NewBeliefHandler(svc *service.MemoryService) *BeliefHandler {
	return &BeliefHandler{svc: svc}
}

func beliefID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid belief id")
		return uuid.Nil, false
	}
	return id, true
}

func writeBeliefError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNodeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotABelief),
		errors.Is(err, service.ErrConfidenceOutOfRange),
		errors.Is(err, service.ErrInvalidChangeType),
		errors.Is(err, service.ErrContentEmpty),
		errors.Is(err, service.ErrSummaryEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

type updateConfidenceRequest struct {
	Confidence float32 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

func (h *BeliefHandler) UpdateConfidence(w http.ResponseWriter, r *http.Request) {
	id, ok := beliefID(w, r)
	if !ok {
		return
	}

	var req updateConfidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.svc.UpdateBeliefConfidence(r.Context(), id, req.Confidence, req.Reason)
	if err != nil {
		writeBeliefError(w, err, "failed to update confidence")
		return
	}

	writeJSON(w, http.StatusOK, node)
}

type updateContentRequest struct {
	Content    string `json:"content"`
	Summary    string `json:"summary"`
	ChangeType string `json:"change_type"`
	Reason     string `json:"reason,omitempty"`
}

func (h *BeliefHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := beliefID(w, r)
	if !ok {
		return
	}

	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	node, err := h.svc.UpdateBeliefContent(r.Context(), id, req.Content, req.Summary, domain.ChangeType(req.ChangeType), req.Reason)
	if err != nil {
		writeBeliefError(w, err, "failed to update content")
		return
	}

	writeJSON(w, http.StatusOK, node)
}

type deactivateRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *BeliefHandler) Supersede(w http.ResponseWriter, r *http.Request) {
	id, ok := beliefID(w, r)
	if !ok {
		return
	}

	var req deactivateRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.svc.SupersedeBelief(r.Context(), id, req.Reason); err != nil {
		writeBeliefError(w, err, "failed to supersede belief")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BeliefHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := beliefID(w, r)
	if !ok {
		return
	}

	var req deactivateRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.svc.ArchiveBelief(r.Context(), id, req.Reason); err != nil {
		writeBeliefError(w, err, "failed to archive belief")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
