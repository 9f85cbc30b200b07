package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parallaxhq/mindloom/internal/domain"
)

// BeliefHistoryStore is append-only: entries are inserted and read,
// never updated or deleted.
type BeliefHistoryStore struct {
	db *pgxpool.Pool
}

func NewBeliefHistoryStore(db *pgxpool.Pool) *BeliefHistoryStore {
	return &BeliefHistoryStore{db: db}
}

func (s *BeliefHistoryStore) Append(ctx context.Context, e *domain.BeliefHistoryEntry) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO belief_history (belief_node_id, change_type, previous_confidence, new_confidence, change_reason)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		e.BeliefNodeID, e.ChangeType, e.PreviousConfidence, e.NewConfidence, e.ChangeReason,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *BeliefHistoryStore) GetByNode(ctx context.Context, beliefNodeID uuid.UUID, limit int) ([]domain.BeliefHistoryEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, belief_node_id, change_type, previous_confidence, new_confidence, change_reason, created_at
		 FROM belief_history
		 WHERE belief_node_id = $1
		 ORDER BY created_at DESC, id ASC
		 LIMIT $2`,
		beliefNodeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("belief history query: %w", err)
	}
	defer rows.Close()

	var entries []domain.BeliefHistoryEntry
	for rows.Next() {
		var e domain.BeliefHistoryEntry
		if err := rows.Scan(&e.ID, &e.BeliefNodeID, &e.ChangeType, &e.PreviousConfidence, &e.NewConfidence, &e.ChangeReason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
