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

type EdgeStore struct {
	db *pgxpool.Pool
}

func NewEdgeStore(db *pgxpool.Pool) *EdgeStore {
	return &EdgeStore{db: db}
}

func (s *EdgeStore) Create(ctx context.Context, e *domain.MemoryEdge) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO memory_edges (from_node_id, to_node_id, edge_type, rationale)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.FromNodeID, e.ToNodeID, e.EdgeType, e.Rationale,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *EdgeStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryEdge, error) {
	e := &domain.MemoryEdge{}
	err := s.db.QueryRow(ctx,
		`SELECT id, from_node_id, to_node_id, edge_type, rationale, created_at
		 FROM memory_edges WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.FromNodeID, &e.ToNodeID, &e.EdgeType, &e.Rationale, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EdgeStore) GetEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType domain.EdgeType) ([]domain.MemoryEdge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, from_node_id, to_node_id, edge_type, rationale, created_at
		 FROM memory_edges
		 WHERE to_node_id = $1 AND edge_type = $2
		 ORDER BY created_at DESC, id ASC`,
		nodeID, edgeType,
	)
	if err != nil {
		return nil, fmt.Errorf("edges to node query: %w", err)
	}
	defer rows.Close()

	var edges []domain.MemoryEdge
	for rows.Next() {
		var e domain.MemoryEdge
		if err := rows.Scan(&e.ID, &e.FromNodeID, &e.ToNodeID, &e.EdgeType, &e.Rationale, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CountEdgesToNode tallies evidence without materializing edge rows.
func (s *EdgeStore) CountEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType domain.EdgeType) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM memory_edges WHERE to_node_id = $1 AND edge_type = $2`,
		nodeID, edgeType,
	).Scan(&count)
	return count, err
}
