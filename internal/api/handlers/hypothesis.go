package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/service"
)

type HypothesisHandler struct {
	svc *service.HypothesisService
}

func NewHypothesisHandler(svc *service.HypothesisService) *HypothesisHandler {
	return &HypothesisHandler{svc: svc}
}

func (h *HypothesisHandler) Scan(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	hypotheses, err := h.svc.ScanForHypotheses(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to scan for hypotheses")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hypotheses": hypotheses,
		"count":      len(hypotheses),
	})
}

func (h *HypothesisHandler) Active(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	hypotheses, err := h.svc.GetActiveHypotheses(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list active hypotheses")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hypotheses": hypotheses,
		"count":      len(hypotheses),
	})
}

func (h *HypothesisHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}

	hyp, err := h.svc.PromoteToHypothesis(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNodeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotABelief):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to promote hypothesis")
		}
		return
	}

	writeJSON(w, http.StatusOK, hyp)
}

func (h *HypothesisHandler) UpdateEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}

	hyp, err := h.svc.UpdateHypothesisEvidence(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update evidence")
		return
	}
	if hyp == nil {
		writeError(w, http.StatusNotFound, "belief not found")
		return
	}

	writeJSON(w, http.StatusOK, hyp)
}

func (h *HypothesisHandler) SuggestTests(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	hypotheses, err := h.svc.GetActiveHypotheses(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list hypotheses")
		return
	}

	suggestions := h.svc.GenerateTestSuggestions(r.Context(), hypotheses)
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
