package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
	"github.com/parallaxhq/mindloom/internal/store"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// mockNodeStore implements domain.NodeStore for testing. Reads sort
// the same way the SQL queries do so ordering assertions hold.
type mockNodeStore struct {
	nodes map[uuid.UUID]*domain.MemoryNode
	seq   int

	failUpdateSuggestion bool
}

func newMockNodeStore() *mockNodeStore {
	return &mockNodeStore{nodes: make(map[uuid.UUID]*domain.MemoryNode)}
}

func (m *mockNodeStore) Create(ctx context.Context, n *domain.MemoryNode) error {
	n.ID = uuid.New()
	n.IsActive = true
	m.seq++
	n.CreatedAt = time.Unix(int64(m.seq), 0)
	m.nodes[n.ID] = n
	return nil
}

func (m *mockNodeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryNode, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *n
	return &copied, nil
}

func (m *mockNodeStore) collect(match func(*domain.MemoryNode) bool, limit int, byCreated bool) []domain.MemoryNode {
	var out []domain.MemoryNode
	for _, n := range m.nodes {
		if match(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if byCreated {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
		} else if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockNodeStore) GetActiveBeliefs(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	return m.collect(func(n *domain.MemoryNode) bool {
		return n.ProjectID == projectID && n.NodeType == domain.NodeTypeBelief && n.IsActive
	}, limit, false), nil
}

func (m *mockNodeStore) GetRecentFacts(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	return m.collect(func(n *domain.MemoryNode) bool {
		return n.ProjectID == projectID && n.NodeType == domain.NodeTypeFact && n.IsActive
	}, limit, true), nil
}

func (m *mockNodeStore) GetInsights(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	return m.collect(func(n *domain.MemoryNode) bool {
		return n.ProjectID == projectID && n.NodeType == domain.NodeTypeInsight && n.IsActive
	}, limit, false), nil
}

func (m *mockNodeStore) GetBeliefsInConfidenceRange(ctx context.Context, projectID uuid.UUID, min, max float32, limit int) ([]domain.MemoryNode, error) {
	return m.collect(func(n *domain.MemoryNode) bool {
		return n.ProjectID == projectID && n.NodeType == domain.NodeTypeBelief && n.IsActive &&
			n.Confidence >= min && n.Confidence <= max
	}, limit, false), nil
}

func (m *mockNodeStore) GetBeliefsByHypothesisStatus(ctx context.Context, projectID uuid.UUID, statuses []domain.HypothesisStatus, limit int) ([]domain.MemoryNode, error) {
	wanted := make(map[domain.HypothesisStatus]bool)
	for _, s := range statuses {
		wanted[s] = true
	}
	return m.collect(func(n *domain.MemoryNode) bool {
		return n.ProjectID == projectID && n.NodeType == domain.NodeTypeBelief && n.IsActive &&
			n.HypothesisStatus != nil && wanted[*n.HypothesisStatus]
	}, limit, false), nil
}

func (m *mockNodeStore) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float32) error {
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Confidence = confidence
	return nil
}

func (m *mockNodeStore) UpdateContent(ctx context.Context, id uuid.UUID, content, summary string) error {
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.Content = content
	n.Summary = summary
	return nil
}

func (m *mockNodeStore) UpdateHypothesisStatus(ctx context.Context, id uuid.UUID, status domain.HypothesisStatus) error {
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.HypothesisStatus = &status
	return nil
}

func (m *mockNodeStore) UpdateTestSuggestion(ctx context.Context, id uuid.UUID, suggestion string) error {
	if m.failUpdateSuggestion {
		return store.ErrNotFound
	}
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.TestSuggestion = &suggestion
	return nil
}

func (m *mockNodeStore) UpdateEvidenceCounts(ctx context.Context, id uuid.UUID, forCount, againstCount int) error {
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.EvidenceForCount = forCount
	n.EvidenceAgainstCount = againstCount
	return nil
}

func (m *mockNodeStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	n, ok := m.nodes[id]
	if !ok {
		return store.ErrNotFound
	}
	n.IsActive = false
	return nil
}

func (m *mockNodeStore) GetGraphStats(ctx context.Context, projectID uuid.UUID) (*domain.GraphStats, error) {
	stats := &domain.GraphStats{EdgesByType: map[domain.EdgeType]int{}}
	var confSum float32
	for _, n := range m.nodes {
		if n.ProjectID != projectID || !n.IsActive {
			continue
		}
		stats.TotalNodes++
		switch n.NodeType {
		case domain.NodeTypeFact:
			stats.FactsCount++
		case domain.NodeTypeBelief:
			stats.BeliefsCount++
			confSum += n.Confidence
		case domain.NodeTypeInsight:
			stats.InsightsCount++
		}
	}
	if stats.BeliefsCount > 0 {
		stats.AverageBeliefConfidence = confSum / float32(stats.BeliefsCount)
	}
	return stats, nil
}

// mockEdgeStore implements domain.EdgeStore for testing.
type mockEdgeStore struct {
	edges []*domain.MemoryEdge
}

func newMockEdgeStore() *mockEdgeStore {
	return &mockEdgeStore{}
}

func (m *mockEdgeStore) Create(ctx context.Context, e *domain.MemoryEdge) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.edges = append(m.edges, e)
	return nil
}

func (m *mockEdgeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryEdge, error) {
	for _, e := range m.edges {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockEdgeStore) GetEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType domain.EdgeType) ([]domain.MemoryEdge, error) {
	var out []domain.MemoryEdge
	for _, e := range m.edges {
		if e.ToNodeID == nodeID && e.EdgeType == edgeType {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockEdgeStore) CountEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType domain.EdgeType) (int, error) {
	count := 0
	for _, e := range m.edges {
		if e.ToNodeID == nodeID && e.EdgeType == edgeType {
			count++
		}
	}
	return count, nil
}

// mockHistoryStore implements domain.BeliefHistoryStore for testing.
type mockHistoryStore struct {
	entries []*domain.BeliefHistoryEntry
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{}
}

func (m *mockHistoryStore) Append(ctx context.Context, e *domain.BeliefHistoryEntry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockHistoryStore) GetByNode(ctx context.Context, beliefNodeID uuid.UUID, limit int) ([]domain.BeliefHistoryEntry, error) {
	var out []domain.BeliefHistoryEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].BeliefNodeID == beliefNodeID {
			out = append(out, *m.entries[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockHistoryStore) byNode(beliefNodeID uuid.UUID) []*domain.BeliefHistoryEntry {
	var out []*domain.BeliefHistoryEntry
	for _, e := range m.entries {
		if e.BeliefNodeID == beliefNodeID {
			out = append(out, e)
		}
	}
	return out
}

// mockContextStore implements domain.ContextStore for testing.
type mockContextStore struct {
	decisions []domain.ContextItem
	lessons   []domain.ContextItem

	decisionsErr error
	lessonsErr   error
}

func newMockContextStore() *mockContextStore {
	return &mockContextStore{}
}

func (m *mockContextStore) RecentDecisions(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ContextItem, error) {
	if m.decisionsErr != nil {
		return nil, m.decisionsErr
	}
	if limit > 0 && len(m.decisions) > limit {
		return m.decisions[:limit], nil
	}
	return m.decisions, nil
}

func (m *mockContextStore) RecentLessons(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ContextItem, error) {
	if m.lessonsErr != nil {
		return nil, m.lessonsErr
	}
	if limit > 0 && len(m.lessons) > limit {
		return m.lessons[:limit], nil
	}
	return m.lessons, nil
}

// mockSuggestionClient implements domain.LLMClient for testing.
type mockSuggestionClient struct {
	response []domain.TestSuggestion
	err      error
	calls    [][]domain.HypothesisPrompt
}

func (m *mockSuggestionClient) SuggestTests(ctx context.Context, hypotheses []domain.HypothesisPrompt) ([]domain.TestSuggestion, error) {
	m.calls = append(m.calls, hypotheses)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}
