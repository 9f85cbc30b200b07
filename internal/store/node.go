package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parallaxhq/mindloom/internal/domain"
)

const nodeColumns = `id, project_id, node_type, content, summary, confidence, is_active,
	belief_domain, hypothesis_status, test_suggestion, evidence_for_count, evidence_against_count,
	source_type, source_id, linked_entity_type, linked_entity_id, created_at`

type NodeStore struct {
	db *pgxpool.Pool
}

func NewNodeStore(db *pgxpool.Pool) *NodeStore {
	return &NodeStore{db: db}
}

func scanNode(row pgx.Row) (*domain.MemoryNode, error) {
	n := &domain.MemoryNode{}
	err := row.Scan(
		&n.ID, &n.ProjectID, &n.NodeType, &n.Content, &n.Summary, &n.Confidence, &n.IsActive,
		&n.BeliefDomain, &n.HypothesisStatus, &n.TestSuggestion, &n.EvidenceForCount, &n.EvidenceAgainstCount,
		&n.SourceType, &n.SourceID, &n.LinkedEntityType, &n.LinkedEntityID, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func collectNodes(rows pgx.Rows) ([]domain.MemoryNode, error) {
	defer rows.Close()

	var nodes []domain.MemoryNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func (s *NodeStore) Create(ctx context.Context, n *domain.MemoryNode) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO memory_nodes (project_id, node_type, content, summary, confidence, is_active,
		     belief_domain, source_type, source_id, linked_entity_type, linked_entity_id)
		 VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8, $9, $10)
		 RETURNING id, is_active, created_at`,
		n.ProjectID, n.NodeType, n.Content, n.Summary, n.Confidence,
		n.BeliefDomain, n.SourceType, n.SourceID, n.LinkedEntityType, n.LinkedEntityID,
	).Scan(&n.ID, &n.IsActive, &n.CreatedAt)
}

func (s *NodeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryNode, error) {
	n, err := scanNode(s.db.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM memory_nodes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *NodeStore) GetActiveBeliefs(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+`
		 FROM memory_nodes
		 WHERE project_id = $1 AND node_type = 'belief' AND is_active
		 ORDER BY confidence DESC, id ASC
		 LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("active beliefs query: %w", err)
	}
	return collectNodes(rows)
}

func (s *NodeStore) GetRecentFacts(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+`
		 FROM memory_nodes
		 WHERE project_id = $1 AND node_type = 'fact' AND is_active
		 ORDER BY created_at DESC, id ASC
		 LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent facts query: %w", err)
	}
	return collectNodes(rows)
}

func (s *NodeStore) GetInsights(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+`
		 FROM memory_nodes
		 WHERE project_id = $1 AND node_type = 'insight' AND is_active
		 ORDER BY confidence DESC, id ASC
		 LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("insights query: %w", err)
	}
	return collectNodes(rows)
}

func (s *NodeStore) GetBeliefsInConfidenceRange(ctx context.Context, projectID uuid.UUID, min, max float32, limit int) ([]domain.MemoryNode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+`
		 FROM memory_nodes
		 WHERE project_id = $1 AND node_type = 'belief' AND is_active
		   AND confidence >= $2 AND confidence <= $3
		 ORDER BY confidence DESC, id ASC
		 LIMIT $4`,
		projectID, min, max, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("beliefs by confidence query: %w", err)
	}
	return collectNodes(rows)
}

func (s *NodeStore) GetBeliefsByHypothesisStatus(ctx context.Context, projectID uuid.UUID, statuses []domain.HypothesisStatus, limit int) ([]domain.MemoryNode, error) {
	strs := make([]string, len(statuses))
	for i, st := range statuses {
		strs[i] = string(st)
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+nodeColumns+`
		 FROM memory_nodes
		 WHERE project_id = $1 AND node_type = 'belief' AND is_active
		   AND hypothesis_status = ANY($2)
		 ORDER BY confidence DESC, id ASC
		 LIMIT $3`,
		projectID, strs, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("beliefs by status query: %w", err)
	}
	return collectNodes(rows)
}

func (s *NodeStore) UpdateConfidence(ctx context.Context, id uuid.UUID, confidence float32) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_nodes SET confidence = $1 WHERE id = $2`,
		confidence, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NodeStore) UpdateContent(ctx context.Context, id uuid.UUID, content, summary string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_nodes SET content = $1, summary = $2 WHERE id = $3`,
		content, summary, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NodeStore) UpdateHypothesisStatus(ctx context.Context, id uuid.UUID, status domain.HypothesisStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_nodes SET hypothesis_status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NodeStore) UpdateTestSuggestion(ctx context.Context, id uuid.UUID, suggestion string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_nodes SET test_suggestion = $1 WHERE id = $2`,
		suggestion, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NodeStore) UpdateEvidenceCounts(ctx context.Context, id uuid.UUID, forCount, againstCount int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_nodes SET evidence_for_count = $1, evidence_against_count = $2 WHERE id = $3`,
		forCount, againstCount, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-retires a node. Rows are never deleted while
// history references them.
func (s *NodeStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_nodes SET is_active = FALSE WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NodeStore) GetGraphStats(ctx context.Context, projectID uuid.UUID) (*domain.GraphStats, error) {
	stats := &domain.GraphStats{EdgesByType: map[domain.EdgeType]int{}}

	rows, err := s.db.Query(ctx,
		`SELECT node_type, COUNT(*) FROM memory_nodes
		 WHERE project_id = $1 AND is_active
		 GROUP BY node_type`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("node counts query: %w", err)
	}
	for rows.Next() {
		var nodeType domain.NodeType
		var count int
		if err := rows.Scan(&nodeType, &count); err != nil {
			rows.Close()
			return nil, err
		}
		switch nodeType {
		case domain.NodeTypeFact:
			stats.FactsCount = count
		case domain.NodeTypeBelief:
			stats.BeliefsCount = count
		case domain.NodeTypeInsight:
			stats.InsightsCount = count
		}
		stats.TotalNodes += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.Query(ctx,
		`SELECT e.edge_type, COUNT(*)
		 FROM memory_edges e
		 JOIN memory_nodes n ON e.from_node_id = n.id
		 WHERE n.project_id = $1
		 GROUP BY e.edge_type`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("edge counts query: %w", err)
	}
	for rows.Next() {
		var edgeType domain.EdgeType
		var count int
		if err := rows.Scan(&edgeType, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.EdgesByType[edgeType] = count
		stats.TotalEdges += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(ctx,
		`SELECT COALESCE(AVG(confidence), 0) FROM memory_nodes
		 WHERE project_id = $1 AND node_type = 'belief' AND is_active`,
		projectID,
	).Scan(&stats.AverageBeliefConfidence)
	if err != nil {
		return nil, fmt.Errorf("average confidence query: %w", err)
	}

	return stats, nil
}
