package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/service"
)

type NodeHandler struct {
	svc *service.MemoryService
}

func NewNodeHandler(svc *service.MemoryService) *NodeHandler {
	return &NodeHandler{svc: svc}
}

type createNodeRequest struct {
	ProjectID        string  `json:"project_id"`
	NodeType         string  `json:"node_type"`
	Content          string  `json:"content"`
	Summary          string  `json:"summary"`
	Confidence       float32 `json:"confidence,omitempty"`
	SourceType       string  `json:"source_type"`
	SourceID         string  `json:"source_id,omitempty"`
	LinkedEntityType string  `json:"linked_entity_type,omitempty"`
	LinkedEntityID   string  `json:"linked_entity_id,omitempty"`
	BeliefDomain     string  `json:"belief_domain,omitempty"`
}

func (h *NodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project_id")
		return
	}

	params := service.CreateNodeParams{
		ProjectID:        projectID,
		NodeType:         req.NodeType,
		Content:          req.Content,
		Summary:          req.Summary,
		Confidence:       req.Confidence,
		SourceType:       req.SourceType,
		LinkedEntityType: req.LinkedEntityType,
		BeliefDomain:     req.BeliefDomain,
	}
	if req.SourceID != "" {
		sourceID, err := uuid.Parse(req.SourceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source_id")
			return
		}
		params.SourceID = &sourceID
	}
	if req.LinkedEntityID != "" {
		linkedID, err := uuid.Parse(req.LinkedEntityID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid linked_entity_id")
			return
		}
		params.LinkedEntityID = &linkedID
	}

	node, err := h.svc.CreateNode(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidNodeType),
			errors.Is(err, service.ErrInvalidSourceType),
			errors.Is(err, service.ErrContentEmpty),
			errors.Is(err, service.ErrSummaryEmpty),
			errors.Is(err, service.ErrConfidenceOutOfRange),
			errors.Is(err, service.ErrIncompleteEntityLink),
			errors.Is(err, service.ErrInvalidEntityLink):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create node")
		}
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

func (h *NodeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}

	node, err := h.svc.GetNode(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNodeNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get node")
		return
	}

	writeJSON(w, http.StatusOK, node)
}

func (h *NodeHandler) EdgesToNode(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}

	edgeType := r.URL.Query().Get("type")
	if edgeType == "" {
		writeError(w, http.StatusBadRequest, "type query parameter is required")
		return
	}

	edges, err := h.svc.GetEdgesToNode(r.Context(), id, edgeType)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEdgeType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list edges")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"edges": edges,
		"count": len(edges),
	})
}

func (h *NodeHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid node id")
		return
	}

	entries, err := h.svc.GetBeliefHistory(r.Context(), id, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *NodeHandler) ListBeliefs(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	nodes, err := h.svc.ListActiveBeliefs(r.Context(), projectID, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list beliefs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"count": len(nodes),
	})
}

func (h *NodeHandler) ListFacts(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	nodes, err := h.svc.ListRecentFacts(r.Context(), projectID, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list facts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"count": len(nodes),
	})
}

func (h *NodeHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	nodes, err := h.svc.ListInsights(r.Context(), projectID, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list insights")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"count": len(nodes),
	})
}

func (h *NodeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	stats, err := h.svc.GetGraphStats(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get graph stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
