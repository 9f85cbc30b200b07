package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
	"github.com/parallaxhq/mindloom/internal/store"
	"go.uber.org/zap"
)

var (
	ErrNodeNotFound         = errors.New("memory node not found")
	ErrInvalidNodeType      = errors.New("invalid node type")
	ErrInvalidSourceType    = errors.New("invalid source type")
	ErrInvalidEdgeType      = errors.New("invalid edge type")
	ErrInvalidChangeType    = errors.New("invalid change type")
	ErrConfidenceOutOfRange = errors.New("confidence must be between 0 and 1")
	ErrContentEmpty         = errors.New("content is required")
	ErrSummaryEmpty         = errors.New("summary is required")
	ErrIncompleteEntityLink = errors.New("entity link requires both type and id")
	ErrInvalidEntityLink    = errors.New("invalid linked entity type")
	ErrNotABelief           = errors.New("node is not a belief")
	ErrProjectMismatch      = errors.New("edge endpoints belong to different projects")
)

// MemoryService is the only write path into the knowledge graph.
// Producers (signal ingestion, confirmation actions, synthesis jobs)
// go through it; every belief mutation is paired with a history entry.
type MemoryService struct {
	nodes   domain.NodeStore
	edges   domain.EdgeStore
	history domain.BeliefHistoryStore
	logger  *zap.Logger
}

func NewMemoryService(nodes domain.NodeStore, edges domain.EdgeStore, history domain.BeliefHistoryStore, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		nodes:   nodes,
		edges:   edges,
		history: history,
		logger:  logger,
	}
}

type CreateNodeParams struct {
	ProjectID        uuid.UUID
	NodeType         string
	Content          string
	Summary          string
	Confidence       float32
	SourceType       string
	SourceID         *uuid.UUID
	LinkedEntityType string
	LinkedEntityID   *uuid.UUID
	BeliefDomain     string
}

func (s *MemoryService) CreateNode(ctx context.Context, p CreateNodeParams) (*domain.MemoryNode, error) {
	if !domain.ValidNodeType(p.NodeType) {
		return nil, ErrInvalidNodeType
	}
	if !domain.ValidSourceType(p.SourceType) {
		return nil, ErrInvalidSourceType
	}
	if p.Content == "" {
		return nil, ErrContentEmpty
	}
	if p.Summary == "" {
		return nil, ErrSummaryEmpty
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, ErrConfidenceOutOfRange
	}

	// A link is all-or-nothing: type without id (or vice versa) is malformed.
	if (p.LinkedEntityType == "") != (p.LinkedEntityID == nil) {
		return nil, ErrIncompleteEntityLink
	}
	if p.LinkedEntityType != "" && !domain.ValidEntityLinkType(p.LinkedEntityType) {
		return nil, ErrInvalidEntityLink
	}

	nodeType := domain.NodeType(p.NodeType)
	confidence := p.Confidence
	if nodeType == domain.NodeTypeFact && confidence == 0 {
		// Facts are observations, not guesses.
		confidence = 1.0
	}

	n := &domain.MemoryNode{
		ProjectID:  p.ProjectID,
		NodeType:   nodeType,
		Content:    p.Content,
		Summary:    p.Summary,
		Confidence: confidence,
		SourceType: domain.SourceType(p.SourceType),
		SourceID:   p.SourceID,
	}
	if p.LinkedEntityType != "" {
		lt := domain.EntityLinkType(p.LinkedEntityType)
		n.LinkedEntityType = &lt
		n.LinkedEntityID = p.LinkedEntityID
	}
	if p.BeliefDomain != "" {
		n.BeliefDomain = &p.BeliefDomain
	}

	if err := s.nodes.Create(ctx, n); err != nil {
		return nil, err
	}

	s.logger.Debug("memory node created",
		zap.String("node_id", n.ID.String()),
		zap.String("project_id", n.ProjectID.String()),
		zap.String("node_type", string(n.NodeType)),
		zap.Float32("confidence", n.Confidence))

	return n, nil
}

type CreateEdgeParams struct {
	FromNodeID uuid.UUID
	ToNodeID   uuid.UUID
	EdgeType   string
	Rationale  string
}

func (s *MemoryService) CreateEdge(ctx context.Context, p CreateEdgeParams) (*domain.MemoryEdge, error) {
	if !domain.ValidEdgeType(p.EdgeType) {
		return nil, ErrInvalidEdgeType
	}

	from, err := s.getNode(ctx, p.FromNodeID)
	if err != nil {
		return nil, err
	}
	to, err := s.getNode(ctx, p.ToNodeID)
	if err != nil {
		return nil, err
	}
	if from.ProjectID != to.ProjectID {
		return nil, ErrProjectMismatch
	}

	e := &domain.MemoryEdge{
		FromNodeID: p.FromNodeID,
		ToNodeID:   p.ToNodeID,
		EdgeType:   domain.EdgeType(p.EdgeType),
	}
	if p.Rationale != "" {
		e.Rationale = &p.Rationale
	}

	if err := s.edges.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Debug("memory edge created",
		zap.String("edge_id", e.ID.String()),
		zap.String("from", e.FromNodeID.String()),
		zap.String("to", e.ToNodeID.String()),
		zap.String("edge_type", string(e.EdgeType)))

	return e, nil
}

func (s *MemoryService) GetNode(ctx context.Context, id uuid.UUID) (*domain.MemoryNode, error) {
	return s.getNode(ctx, id)
}

func (s *MemoryService) getNode(ctx context.Context, id uuid.UUID) (*domain.MemoryNode, error) {
	n, err := s.nodes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *MemoryService) getBelief(ctx context.Context, id uuid.UUID) (*domain.MemoryNode, error) {
	n, err := s.getNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.NodeType != domain.NodeTypeBelief {
		return nil, ErrNotABelief
	}
	return n, nil
}

// UpdateBeliefConfidence changes a belief's confidence and appends a
// matching history entry. An unchanged confidence is a no-op so the
// audit trail never records zero-delta entries.
func (s *MemoryService) UpdateBeliefConfidence(ctx context.Context, id uuid.UUID, confidence float32, reason string) (*domain.MemoryNode, error) {
	if confidence < 0 || confidence > 1 {
		return nil, ErrConfidenceOutOfRange
	}

	n, err := s.getBelief(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Confidence == confidence {
		return n, nil
	}

	changeType := domain.ChangeConfidenceIncrease
	if confidence < n.Confidence {
		changeType = domain.ChangeConfidenceDecrease
	}

	if err := s.nodes.UpdateConfidence(ctx, id, confidence); err != nil {
		return nil, err
	}

	entry := &domain.BeliefHistoryEntry{
		BeliefNodeID:       id,
		ChangeType:         changeType,
		PreviousConfidence: n.Confidence,
		NewConfidence:      confidence,
		ChangeReason:       reason,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Debug("belief confidence updated",
		zap.String("node_id", id.String()),
		zap.Float32("old_confidence", n.Confidence),
		zap.Float32("new_confidence", confidence),
		zap.String("change_type", string(changeType)))

	n.Confidence = confidence
	return n, nil
}

// UpdateBeliefContent rewrites a belief's content and summary. The
// change type must be content_refined or content_changed.
func (s *MemoryService) UpdateBeliefContent(ctx context.Context, id uuid.UUID, content, summary string, changeType domain.ChangeType, reason string) (*domain.MemoryNode, error) {
	if changeType != domain.ChangeContentRefined && changeType != domain.ChangeContentChanged {
		return nil, ErrInvalidChangeType
	}
	if content == "" {
		return nil, ErrContentEmpty
	}
	if summary == "" {
		return nil, ErrSummaryEmpty
	}

	n, err := s.getBelief(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.nodes.UpdateContent(ctx, id, content, summary); err != nil {
		return nil, err
	}

	entry := &domain.BeliefHistoryEntry{
		BeliefNodeID:       id,
		ChangeType:         changeType,
		PreviousConfidence: n.Confidence,
		NewConfidence:      n.Confidence,
		ChangeReason:       reason,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, err
	}

	n.Content = content
	n.Summary = summary
	return n, nil
}

// SupersedeBelief deactivates a belief that has been replaced by a
// newer one. The row stays queryable for history.
func (s *MemoryService) SupersedeBelief(ctx context.Context, id uuid.UUID, reason string) error {
	return s.deactivateBelief(ctx, id, domain.ChangeSuperseded, reason)
}

// ArchiveBelief deactivates a belief that is no longer relevant.
func (s *MemoryService) ArchiveBelief(ctx context.Context, id uuid.UUID, reason string) error {
	return s.deactivateBelief(ctx, id, domain.ChangeArchived, reason)
}

func (s *MemoryService) deactivateBelief(ctx context.Context, id uuid.UUID, changeType domain.ChangeType, reason string) error {
	n, err := s.getBelief(ctx, id)
	if err != nil {
		return err
	}

	if err := s.nodes.Deactivate(ctx, id); err != nil {
		return err
	}

	entry := &domain.BeliefHistoryEntry{
		BeliefNodeID:       id,
		ChangeType:         changeType,
		PreviousConfidence: n.Confidence,
		NewConfidence:      n.Confidence,
		ChangeReason:       reason,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return err
	}

	s.logger.Info("belief deactivated",
		zap.String("node_id", id.String()),
		zap.String("change_type", string(changeType)))

	return nil
}

func (s *MemoryService) ListActiveBeliefs(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.nodes.GetActiveBeliefs(ctx, projectID, limit)
}

func (s *MemoryService) ListRecentFacts(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.nodes.GetRecentFacts(ctx, projectID, limit)
}

func (s *MemoryService) ListInsights(ctx context.Context, projectID uuid.UUID, limit int) ([]domain.MemoryNode, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.nodes.GetInsights(ctx, projectID, limit)
}

func (s *MemoryService) GetEdgesToNode(ctx context.Context, nodeID uuid.UUID, edgeType string) ([]domain.MemoryEdge, error) {
	if !domain.ValidEdgeType(edgeType) {
		return nil, ErrInvalidEdgeType
	}
	return s.edges.GetEdgesToNode(ctx, nodeID, domain.EdgeType(edgeType))
}

func (s *MemoryService) GetBeliefHistory(ctx context.Context, nodeID uuid.UUID, limit int) ([]domain.BeliefHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.history.GetByNode(ctx, nodeID, limit)
}

func (s *MemoryService) GetGraphStats(ctx context.Context, projectID uuid.UUID) (*domain.GraphStats, error) {
	return s.nodes.GetGraphStats(ctx, projectID)
}
