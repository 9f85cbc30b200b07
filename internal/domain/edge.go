package domain

import (
	"time"

	"github.com/google/uuid"
)

type EdgeType string

const (
	EdgeSupports    EdgeType = "supports"
	EdgeContradicts EdgeType = "contradicts"
	EdgeCausedBy    EdgeType = "caused_by"
	EdgeLeadsTo     EdgeType = "leads_to"
	EdgeSupersedes  EdgeType = "supersedes"
	EdgeRelatedTo   EdgeType = "related_to"
)

func ValidEdgeType(e string) bool {
	switch EdgeType(e) {
	case EdgeSupports, EdgeContradicts, EdgeCausedBy,
		EdgeLeadsTo, EdgeSupersedes, EdgeRelatedTo:
		return true
	}
	return false
}

// MemoryEdge is a directed, typed relationship between two nodes.
// Evidence edges (supports/contradicts) point from a fact to the
// belief they bear on; evidence counting depends on that orientation.
type MemoryEdge struct {
	ID         uuid.UUID `json:"id"`
	FromNodeID uuid.UUID `json:"from_node_id"`
	ToNodeID   uuid.UUID `json:"to_node_id"`
	EdgeType   EdgeType  `json:"edge_type"`
	Rationale  *string   `json:"rationale,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
