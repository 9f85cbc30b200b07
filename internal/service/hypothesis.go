package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
	"github.com/parallaxhq/mindloom/internal/store"
	"go.uber.org/zap"
)

const (
	// HypothesisMinConfidence is the floor for hypothesis eligibility.
	HypothesisMinConfidence = 0.40
	// HypothesisMaxConfidence is the ceiling for hypothesis eligibility.
	HypothesisMaxConfidence = 0.84
	// GraduateThreshold promotes a tracked hypothesis to a settled belief.
	GraduateThreshold = 0.85
	// RejectThreshold retires a tracked hypothesis as disproven.
	RejectThreshold = 0.30

	// ScanCandidateLimit bounds the beliefs considered per scan.
	ScanCandidateLimit = 20
	// ScanResultLimit bounds the hypotheses a scan surfaces.
	ScanResultLimit = 10
	// ActiveHypothesisLimit bounds the active-hypothesis listing.
	ActiveHypothesisLimit = 10
	// SuggestionBatchLimit bounds hypotheses per LLM suggestion call.
	SuggestionBatchLimit = 5
)

// HypothesisService is pure decision logic over belief nodes: it
// classifies by confidence band, promotes, and auto-transitions.
// No LLM is involved in classification; the suggestion generator is
// best-effort enrichment only.
type HypothesisService struct {
	nodes  domain.NodeStore
	edges  domain.EdgeStore
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewHypothesisService(nodes domain.NodeStore, edges domain.EdgeStore, logger *zap.Logger) *HypothesisService {
	return &HypothesisService{
		nodes:  nodes,
		edges:  edges,
		logger: logger,
	}
}

// SetLLMClient wires the optional test-suggestion collaborator.
func (s *HypothesisService) SetLLMClient(c domain.LLMClient) {
	s.llm = c
}

func hypothesisFromNode(n *domain.MemoryNode) domain.Hypothesis {
	h := domain.Hypothesis{
		HypothesisID:    n.ID,
		Statement:       n.Summary,
		Confidence:      n.Confidence,
		EvidenceFor:     n.EvidenceForCount,
		EvidenceAgainst: n.EvidenceAgainstCount,
	}
	if h.Statement == "" {
		h.Statement = n.Content
	}
	if n.HypothesisStatus != nil {
		h.Status = *n.HypothesisStatus
	}
	if n.BeliefDomain != nil {
		h.Domain = *n.BeliefDomain
	}
	if n.TestSuggestion != nil {
		h.TestSuggestion = *n.TestSuggestion
	}
	return h
}

// ScanForHypotheses surfaces active beliefs in the testable confidence
// band. A belief already carrying a status is included unconditionally:
// it is being tracked and stays visible even if it later loses its
// supporting edges. An untagged belief needs at least one supporting
// edge; zero evidence is too speculative to surface as testable.
func (s *HypothesisService) ScanForHypotheses(ctx context.Context, projectID uuid.UUID) ([]domain.Hypothesis, error) {
	candidates, err := s.nodes.GetBeliefsInConfidenceRange(ctx, projectID, HypothesisMinConfidence, HypothesisMaxConfidence, ScanCandidateLimit)
	if err != nil {
		return nil, err
	}

	hypotheses := make([]domain.Hypothesis, 0, len(candidates))
	for i := range candidates {
		n := &candidates[i]
		if n.HypothesisStatus == nil && n.EvidenceForCount == 0 {
			continue
		}
		hypotheses = append(hypotheses, hypothesisFromNode(n))
		if len(hypotheses) == ScanResultLimit {
			break
		}
	}
	return hypotheses, nil
}

// GetActiveHypotheses lists beliefs currently under hypothesis
// tracking (proposed or testing), most confident first.
func (s *HypothesisService) GetActiveHypotheses(ctx context.Context, projectID uuid.UUID) ([]domain.Hypothesis, error) {
	nodes, err := s.nodes.GetBeliefsByHypothesisStatus(ctx, projectID,
		[]domain.HypothesisStatus{domain.HypothesisProposed, domain.HypothesisTesting},
		ActiveHypothesisLimit,
	)
	if err != nil {
		return nil, err
	}

	hypotheses := make([]domain.Hypothesis, 0, len(nodes))
	for i := range nodes {
		hypotheses = append(hypotheses, hypothesisFromNode(&nodes[i]))
	}
	return hypotheses, nil
}

// PromoteToHypothesis marks a belief as a proposed hypothesis. A
// belief that already carries a status is returned unchanged;
// graduated and rejected are terminal and are never reopened.
func (s *HypothesisService) PromoteToHypothesis(ctx context.Context, nodeID uuid.UUID) (*domain.Hypothesis, error) {
	n, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNodeNotFound
		}
		return nil, err
	}
	if n.NodeType != domain.NodeTypeBelief {
		return nil, ErrNotABelief
	}

	if n.HypothesisStatus == nil {
		if err := s.nodes.UpdateHypothesisStatus(ctx, nodeID, domain.HypothesisProposed); err != nil {
			return nil, err
		}
		status := domain.HypothesisProposed
		n.HypothesisStatus = &status

		s.logger.Info("belief promoted to hypothesis",
			zap.String("node_id", nodeID.String()),
			zap.Float32("confidence", n.Confidence))
	}

	h := hypothesisFromNode(n)
	return &h, nil
}

// UpdateHypothesisEvidence re-derives the denormalized evidence
// counters from the edge store and evaluates auto-transitions.
// Counters may lag edge creation; this is the reconciliation point
// and is safe to re-run: unchanged inputs produce unchanged state.
// Returns (nil, nil) when the node is missing or not a belief.
func (s *HypothesisService) UpdateHypothesisEvidence(ctx context.Context, nodeID uuid.UUID) (*domain.Hypothesis, error) {
	n, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if n.NodeType != domain.NodeTypeBelief {
		return nil, nil
	}

	forCount, err := s.edges.CountEdgesToNode(ctx, nodeID, domain.EdgeSupports)
	if err != nil {
		return nil, err
	}
	againstCount, err := s.edges.CountEdgesToNode(ctx, nodeID, domain.EdgeContradicts)
	if err != nil {
		return nil, err
	}

	if forCount != n.EvidenceForCount || againstCount != n.EvidenceAgainstCount {
		if err := s.nodes.UpdateEvidenceCounts(ctx, nodeID, forCount, againstCount); err != nil {
			return nil, err
		}
		n.EvidenceForCount = forCount
		n.EvidenceAgainstCount = againstCount
	}

	if n.HypothesisStatus != nil && !n.HypothesisStatus.Terminal() {
		var next domain.HypothesisStatus
		switch {
		case n.Confidence >= GraduateThreshold:
			next = domain.HypothesisGraduated
		case n.Confidence <= RejectThreshold:
			next = domain.HypothesisRejected
		}
		if next != "" {
			if err := s.nodes.UpdateHypothesisStatus(ctx, nodeID, next); err != nil {
				return nil, err
			}
			n.HypothesisStatus = &next

			s.logger.Info("hypothesis auto-transitioned",
				zap.String("node_id", nodeID.String()),
				zap.String("status", string(next)),
				zap.Float32("confidence", n.Confidence),
				zap.Int("evidence_for", forCount),
				zap.Int("evidence_against", againstCount))
		}
	}

	h := hypothesisFromNode(n)
	return &h, nil
}

// GenerateTestSuggestions asks the LLM for a validation action for
// each newly proposed hypothesis that lacks one. The call is outside
// every lifecycle transition: failures and malformed output produce
// an empty list, never an error.
func (s *HypothesisService) GenerateTestSuggestions(ctx context.Context, hypotheses []domain.Hypothesis) []domain.TestSuggestion {
	if s.llm == nil {
		return []domain.TestSuggestion{}
	}

	var prompts []domain.HypothesisPrompt
	requested := make(map[uuid.UUID]bool)
	for _, h := range hypotheses {
		if h.Status != domain.HypothesisProposed || h.TestSuggestion != "" {
			continue
		}
		prompts = append(prompts, domain.HypothesisPrompt{
			HypothesisID:    h.HypothesisID,
			Statement:       h.Statement,
			Confidence:      h.Confidence,
			EvidenceFor:     h.EvidenceFor,
			EvidenceAgainst: h.EvidenceAgainst,
		})
		requested[h.HypothesisID] = true
		if len(prompts) == SuggestionBatchLimit {
			break
		}
	}
	if len(prompts) == 0 {
		return []domain.TestSuggestion{}
	}

	raw, err := s.llm.SuggestTests(ctx, prompts)
	if err != nil {
		s.logger.Warn("test suggestion generation failed", zap.Error(err))
		return []domain.TestSuggestion{}
	}

	suggestions := make([]domain.TestSuggestion, 0, len(raw))
	for _, ts := range raw {
		if ts.Suggestion == "" || !requested[ts.HypothesisID] {
			continue
		}
		if err := s.nodes.UpdateTestSuggestion(ctx, ts.HypothesisID, ts.Suggestion); err != nil {
			s.logger.Warn("failed to persist test suggestion",
				zap.String("node_id", ts.HypothesisID.String()),
				zap.Error(err))
			continue
		}
		suggestions = append(suggestions, ts)
	}
	return suggestions
}
