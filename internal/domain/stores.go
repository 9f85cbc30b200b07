package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GraphStats is a read-only aggregate snapshot of a project graph,
// recomputed on demand rather than cached.
type GraphStats struct {
	FactsCount              int              `json:"facts_count"`
	BeliefsCount            int              `json:"beliefs_count"`
	InsightsCount           int              `json:"insights_count"`
	TotalNodes              int              `json:"total_nodes"`
	EdgesByType             map[EdgeType]int `json:"edges_by_type"`
	TotalEdges              int              `json:"total_edges"`
	AverageBeliefConfidence float32          `json:"average_belief_confidence"`
}

// ContextItem is a bounded slice of adjacent project history
// (decisions, lessons) written by out-of-scope collaborators and
// read only by the renderer.
type ContextItem struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type NodeStore interface {
	Create(ctx context.Context, n *MemoryNode) error
	GetByID(ctx context.Context, id uuid.UUID) (*MemoryNode, error)

	// Ordered reads. "Most confident first" ties break by node id so
	// rendered output is reproducible.
	GetActiveBeliefs(ctx context.Context, projectID uuid.UUID, limit int) ([]MemoryNode, error)
	GetRecentFacts(ctx context.Context, projectID uuid.UUID, limit int) ([]MemoryNode, error)
	GetInsights(ctx context.Context, projectID uuid.UUID, limit int) ([]MemoryNode, error)
	GetBeliefsInConfidenceRange(ctx context.Context, projectID uuid.UUID, min, max float32, limit int) ([]MemoryNode, error)
	GetBeliefsByHypothesisStatus(ctx context.Context, projectID uuid.UUID, statuses []HypothesisStatus, limit int) ([]MemoryNode, error)

	UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float32) error
	UpdateContent(ctx context.Context, id uuid.UUID, content, summary string) error
	UpdateHypothesisStatus(ctx context.Context, id uuid.UUID, status HypothesisStatus) error
	UpdateTestSuggestion(ctx context.Context, id uuid.UUID, suggestion string) error
	UpdateEvidenceCounts(ctx context.Context, id uuid.UUID, forCount, againstCount int) error
	Deactivate(ctx context.Context, id uuid.UUID) error

	GetGraphStats(ctx context.Context, projectID uuid.UUID) (*GraphStats, error)
}

type EdgeStore interface {
	Create(ctx context.Context, e *MemoryEdge) error
	GetByID(ctx context.Context, id uuid.UUID) (*MemoryEdge, error)
	GetEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType EdgeType) ([]MemoryEdge, error)
	CountEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType EdgeType) (int, error)
}

type BeliefHistoryStore interface {
	Append(ctx context.Context, e *BeliefHistoryEntry) error
	GetByNode(ctx context.Context, beliefNodeID uuid.UUID, limit int) ([]BeliefHistoryEntry, error)
}

// ContextStore reads optional adjacent context for rendering.
// Failures here must degrade, never abort a render.
type ContextStore interface {
	RecentDecisions(ctx context.Context, projectID uuid.UUID, limit int) ([]ContextItem, error)
	RecentLessons(ctx context.Context, projectID uuid.UUID, limit int) ([]ContextItem, error)
}

// LLMClient proposes validation actions for hypotheses. It is
// best-effort: callers discard malformed output instead of failing.
type LLMClient interface {
	SuggestTests(ctx context.Context, hypotheses []HypothesisPrompt) ([]TestSuggestion, error)
}
