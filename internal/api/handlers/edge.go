package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/service"
)

type EdgeHandler struct {
	svc *service.MemoryService
}

func NewEdgeHandler(svc *service.MemoryService) *EdgeHandler {
	return &EdgeHandler{svc: svc}
}

type createEdgeRequest struct {
	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
	EdgeType   string `json:"edge_type"`
	Rationale  string `json:"rationale,omitempty"`
}

func (h *EdgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fromID, err := uuid.Parse(req.FromNodeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from_node_id")
		return
	}
	toID, err := uuid.Parse(req.ToNodeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to_node_id")
		return
	}

	edge, err := h.svc.CreateEdge(r.Context(), service.CreateEdgeParams{
		FromNodeID: fromID,
		ToNodeID:   toID,
		EdgeType:   req.EdgeType,
		Rationale:  req.Rationale,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEdgeType),
			errors.Is(err, service.ErrProjectMismatch):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNodeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create edge")
		}
		return
	}

	writeJSON(w, http.StatusCreated, edge)
}
