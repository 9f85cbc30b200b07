package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parallaxhq/mindloom/internal/domain"
)

// ContextStore reads adjacent project history (decisions, lessons)
// written by the workflow layer. The renderer is its only consumer.
type ContextStore struct {
	db *pgxpool.Pool
}

func NewContextStore(db *pgxpool.Pool) *ContextStore {
	return &ContextStore{db: db}
}

func (s *ContextStore) RecentDecisions(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ContextItem, error) {
	return s.recent(ctx, "project_decisions", projectID, limit)
}

func (s *ContextStore) RecentLessons(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.ContextItem, error) {
	return s.recent(ctx, "project_lessons", projectID, limit)
}

func (s *ContextStore) recent(ctx context.Context, table string, projectID uuid.UUID, limit int) ([]domain.ContextItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, detail, created_at FROM `+table+`
		 WHERE project_id = $1
		 ORDER BY created_at DESC, id ASC
		 LIMIT $2`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", table, err)
	}
	defer rows.Close()

	var items []domain.ContextItem
	for rows.Next() {
		var item domain.ContextItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Detail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
