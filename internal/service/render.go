package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
	"go.uber.org/zap"
)

const (
	// DefaultRenderTokens is the token budget when the caller gives none.
	DefaultRenderTokens = 4000
	// DefaultAgentRenderTokens is the budget for the structured variant.
	DefaultAgentRenderTokens = 3000
	// charsPerToken approximates the token budget in characters.
	charsPerToken = 4

	highConfidenceThreshold = 0.7

	renderBeliefLimit    = 20
	renderFactFetchLimit = 10
	renderInsightLimit   = 5
	highBeliefCap        = 7
	openThreadCap        = 5
	decisionCap          = 5
	lessonCap            = 3
	factCap              = 7
	summaryBeliefCap     = 5
	histogramBeliefLimit = 100

	truncationMarker = "_[truncated to fit token budget]_"

	noBeliefsPlaceholder = "_No established beliefs yet. The graph is still accumulating evidence._"
)

// RendererService derives human-readable views from graph state. It
// is a projection, never a source of truth, and never writes.
type RendererService struct {
	nodes    domain.NodeStore
	edges    domain.EdgeStore
	history  domain.BeliefHistoryStore
	contexts domain.ContextStore
	logger   *zap.Logger
}

func NewRendererService(nodes domain.NodeStore, edges domain.EdgeStore, history domain.BeliefHistoryStore, contexts domain.ContextStore, logger *zap.Logger) *RendererService {
	return &RendererService{
		nodes:    nodes,
		edges:    edges,
		history:  history,
		contexts: contexts,
		logger:   logger,
	}
}

// confidenceIndicator maps a score onto a coarse five-level bar.
func confidenceIndicator(c float32) string {
	switch {
	case c >= 0.9:
		return "█████"
	case c >= 0.7:
		return "████░"
	case c >= 0.5:
		return "███░░"
	case c >= 0.3:
		return "██░░░"
	default:
		return "█░░░░"
	}
}

func insightIcon(s domain.SourceType) string {
	switch s {
	case domain.SourceSynthesis:
		return "🔄"
	case domain.SourceReflection:
		return "💭"
	case domain.SourceConvergence:
		return "🎯"
	default:
		return "💡"
	}
}

func confidencePct(c float32) int {
	return int(c * 100)
}

// RenderMemoryMarkdown produces the narrative memory document for a
// project. Output is a pure function of graph state: re-rendering with
// no intervening writes yields byte-identical output.
func (s *RendererService) RenderMemoryMarkdown(ctx context.Context, projectID uuid.UUID, maxTokens int, includeStats bool) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultRenderTokens
	}

	beliefs, err := s.nodes.GetActiveBeliefs(ctx, projectID, renderBeliefLimit)
	if err != nil {
		return "", err
	}
	facts, err := s.nodes.GetRecentFacts(ctx, projectID, renderFactFetchLimit)
	if err != nil {
		return "", err
	}
	insights, err := s.nodes.GetInsights(ctx, projectID, renderInsightLimit)
	if err != nil {
		return "", err
	}

	var high, open []domain.MemoryNode
	for _, b := range beliefs {
		if b.Confidence >= highConfidenceThreshold {
			high = append(high, b)
		} else {
			open = append(open, b)
		}
	}

	var sections []string
	sections = append(sections, "# Project Memory")
	sections = append(sections, s.renderBeliefSection(ctx, high))

	if sec := s.renderInsightSection(insights); sec != "" {
		sections = append(sections, sec)
	}
	if sec := renderOpenThreads(open); sec != "" {
		sections = append(sections, sec)
	}

	// Adjacent context is optional: a failed read degrades to an
	// omitted section, it never aborts the render.
	if decisions, err := s.contexts.RecentDecisions(ctx, projectID, decisionCap); err != nil {
		s.logger.Warn("skipping decisions section", zap.Error(err))
	} else if sec := renderContextSection("## Recent Decisions", decisions); sec != "" {
		sections = append(sections, sec)
	}
	if lessons, err := s.contexts.RecentLessons(ctx, projectID, lessonCap); err != nil {
		s.logger.Warn("skipping lessons section", zap.Error(err))
	} else if sec := renderContextSection("## Lessons Learned", lessons); sec != "" {
		sections = append(sections, sec)
	}

	if sec := renderFactSection(facts); sec != "" {
		sections = append(sections, sec)
	}

	if includeStats {
		if sec, err := s.renderStatsSection(ctx, projectID); err != nil {
			s.logger.Warn("skipping stats section", zap.Error(err))
		} else if sec != "" {
			sections = append(sections, sec)
		}
	}

	return joinBounded(sections, maxTokens*charsPerToken), nil
}

// joinBounded joins sections with blank lines, truncating at the last
// section boundary that fits the character budget. Truncation never
// splits a section mid-sentence.
func joinBounded(sections []string, budget int) string {
	var b strings.Builder
	truncated := false
	for i, sec := range sections {
		add := len(sec)
		if i > 0 {
			add += 2
		}
		if b.Len()+add > budget {
			truncated = true
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sec)
	}
	if truncated {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(truncationMarker)
	}
	return b.String()
}

func (s *RendererService) renderBeliefSection(ctx context.Context, high []domain.MemoryNode) string {
	var b strings.Builder
	b.WriteString("## What We Believe\n")

	if len(high) == 0 {
		b.WriteString("\n")
		b.WriteString(noBeliefsPlaceholder)
		return b.String()
	}

	if len(high) > highBeliefCap {
		high = high[:highBeliefCap]
	}
	for _, n := range high {
		supports := s.countEdges(ctx, n.ID, domain.EdgeSupports)
		contradicts := s.countEdges(ctx, n.ID, domain.EdgeContradicts)

		b.WriteString(fmt.Sprintf("\n- %s **%s**", confidenceIndicator(n.Confidence), n.Summary))
		if n.BeliefDomain != nil {
			b.WriteString(fmt.Sprintf(" _(%s)_", *n.BeliefDomain))
		}
		b.WriteString(fmt.Sprintf("\n  evidence: %d supporting, %d contradicting", supports, contradicts))
	}
	return b.String()
}

// countEdges returns a live edge tally, falling back to zero on read
// failure so one bad count cannot take down the whole render.
func (s *RendererService) countEdges(ctx context.Context, nodeID uuid.UUID, edgeType domain.EdgeType) int {
	count, err := s.edges.CountEdgesToNode(ctx, nodeID, edgeType)
	if err != nil {
		s.logger.Warn("edge count failed during render",
			zap.String("node_id", nodeID.String()),
			zap.Error(err))
		return 0
	}
	return count
}

func (s *RendererService) renderInsightSection(insights []domain.MemoryNode) string {
	if len(insights) == 0 {
		return ""
	}
	if len(insights) > renderInsightLimit {
		insights = insights[:renderInsightLimit]
	}

	var b strings.Builder
	b.WriteString("## Insights\n")
	for _, n := range insights {
		b.WriteString(fmt.Sprintf("\n- %s **%s** (%d%%)\n  %s",
			insightIcon(n.SourceType), n.Summary, confidencePct(n.Confidence), n.Content))
	}
	return b.String()
}

func renderOpenThreads(open []domain.MemoryNode) string {
	if len(open) == 0 {
		return ""
	}
	if len(open) > openThreadCap {
		open = open[:openThreadCap]
	}

	var b strings.Builder
	b.WriteString("## Open Threads\n")
	for _, n := range open {
		b.WriteString(fmt.Sprintf("\n- %d%% — %s", confidencePct(n.Confidence), n.Summary))
	}
	return b.String()
}

func renderContextSection(heading string, items []domain.ContextItem) string {
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("\n- %s", item.Title))
	}
	return b.String()
}

func renderFactSection(facts []domain.MemoryNode) string {
	if len(facts) == 0 {
		return ""
	}
	if len(facts) > factCap {
		facts = facts[:factCap]
	}

	var b strings.Builder
	b.WriteString("## Recent Facts\n")
	for _, n := range facts {
		b.WriteString(fmt.Sprintf("\n- %s", n.Summary))
	}
	return b.String()
}

func (s *RendererService) renderStatsSection(ctx context.Context, projectID uuid.UUID) (string, error) {
	stats, err := s.nodes.GetGraphStats(ctx, projectID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("## Graph Statistics\n")
	b.WriteString(fmt.Sprintf("\n- nodes: %d (%d facts, %d beliefs, %d insights)",
		stats.TotalNodes, stats.FactsCount, stats.BeliefsCount, stats.InsightsCount))
	b.WriteString(fmt.Sprintf("\n- edges: %d", stats.TotalEdges))
	b.WriteString(fmt.Sprintf("\n- average belief confidence: %d%%", confidencePct(stats.AverageBeliefConfidence)))

	beliefs, err := s.nodes.GetActiveBeliefs(ctx, projectID, histogramBeliefLimit)
	if err != nil {
		return "", err
	}
	var strong, medium, weak int
	for _, n := range beliefs {
		switch {
		case n.Confidence >= 0.8:
			strong++
		case n.Confidence >= 0.5:
			medium++
		default:
			weak++
		}
	}
	b.WriteString(fmt.Sprintf("\n- confidence spread: %d strong (≥80%%), %d medium (50–79%%), %d weak (<50%%)",
		strong, medium, weak))

	return b.String(), nil
}

// MemorySummary is the flattened node form in the structured render.
type MemorySummary struct {
	ID         uuid.UUID `json:"id"`
	Summary    string    `json:"summary"`
	Confidence float32   `json:"confidence"`
	Domain     string    `json:"domain,omitempty"`
}

// AgentMemoryView is the programmatic variant of the memory document.
type AgentMemoryView struct {
	Markdown              string          `json:"markdown"`
	Beliefs               []MemorySummary `json:"beliefs"`
	Insights              []MemorySummary `json:"insights"`
	HighConfidenceSummary string          `json:"high_confidence_summary"`
}

func toSummaries(nodes []domain.MemoryNode) []MemorySummary {
	out := make([]MemorySummary, 0, len(nodes))
	for _, n := range nodes {
		ms := MemorySummary{ID: n.ID, Summary: n.Summary, Confidence: n.Confidence}
		if n.BeliefDomain != nil {
			ms.Domain = *n.BeliefDomain
		}
		out = append(out, ms)
	}
	return out
}

// RenderForAgent returns the markdown document plus flattened belief
// and insight lists for programmatic consumers.
func (s *RendererService) RenderForAgent(ctx context.Context, projectID uuid.UUID, maxTokens int) (*AgentMemoryView, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultAgentRenderTokens
	}

	markdown, err := s.RenderMemoryMarkdown(ctx, projectID, maxTokens, false)
	if err != nil {
		return nil, err
	}

	beliefs, err := s.nodes.GetActiveBeliefs(ctx, projectID, renderBeliefLimit)
	if err != nil {
		return nil, err
	}
	insights, err := s.nodes.GetInsights(ctx, projectID, renderInsightLimit)
	if err != nil {
		return nil, err
	}

	var highSummaries []string
	for _, n := range beliefs {
		if n.Confidence >= highConfidenceThreshold {
			highSummaries = append(highSummaries, n.Summary)
			if len(highSummaries) == summaryBeliefCap {
				break
			}
		}
	}
	summary := "No high-confidence beliefs have formed for this project yet."
	if len(highSummaries) > 0 {
		summary = strings.Join(highSummaries, ". ") + "."
	}

	return &AgentMemoryView{
		Markdown:              markdown,
		Beliefs:               toSummaries(beliefs),
		Insights:              toSummaries(insights),
		HighConfidenceSummary: summary,
	}, nil
}

// RenderBeliefDetail builds a single-belief drill-down with its
// evidence edges and change history.
func (s *RendererService) RenderBeliefDetail(ctx context.Context, belief *domain.MemoryNode) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n", belief.Summary))
	b.WriteString(fmt.Sprintf("\n%s %d%% confidence", confidenceIndicator(belief.Confidence), confidencePct(belief.Confidence)))
	if belief.BeliefDomain != nil {
		b.WriteString(fmt.Sprintf(" · %s", *belief.BeliefDomain))
	}
	if belief.HypothesisStatus != nil {
		b.WriteString(fmt.Sprintf(" · hypothesis: %s", *belief.HypothesisStatus))
	}
	if !belief.IsActive {
		b.WriteString(" · inactive")
	}
	b.WriteString("\n\n")
	b.WriteString(belief.Content)

	for _, et := range []struct {
		edgeType domain.EdgeType
		heading  string
	}{
		{domain.EdgeSupports, "## Supporting Evidence"},
		{domain.EdgeContradicts, "## Contradicting Evidence"},
	} {
		edges, err := s.edges.GetEdgesToNode(ctx, belief.ID, et.edgeType)
		if err != nil {
			return "", err
		}
		if len(edges) == 0 {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(et.heading)
		for _, e := range edges {
			label := e.FromNodeID.String()
			if from, err := s.nodes.GetByID(ctx, e.FromNodeID); err == nil {
				label = from.Summary
			}
			b.WriteString(fmt.Sprintf("\n- %s", label))
			if e.Rationale != nil {
				b.WriteString(fmt.Sprintf(" — %s", *e.Rationale))
			}
		}
	}

	entries, err := s.history.GetByNode(ctx, belief.ID, 10)
	if err != nil {
		return "", err
	}
	if len(entries) > 0 {
		b.WriteString("\n\n## History")
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("\n- %s: %d%% → %d%%",
				e.ChangeType, confidencePct(e.PreviousConfidence), confidencePct(e.NewConfidence)))
			if e.ChangeReason != "" {
				b.WriteString(fmt.Sprintf(" (%s)", e.ChangeReason))
			}
		}
	}

	return b.String(), nil
}

// edgeTypeOrder fixes iteration order so rendered stats are stable.
var edgeTypeOrder = []domain.EdgeType{
	domain.EdgeSupports,
	domain.EdgeContradicts,
	domain.EdgeCausedBy,
	domain.EdgeLeadsTo,
	domain.EdgeSupersedes,
	domain.EdgeRelatedTo,
}

// RenderGraphSummary is a compact aggregate view of a project graph.
func (s *RendererService) RenderGraphSummary(ctx context.Context, projectID uuid.UUID) (string, error) {
	stats, err := s.nodes.GetGraphStats(ctx, projectID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Graph Summary\n")
	b.WriteString(fmt.Sprintf("\n- facts: %d", stats.FactsCount))
	b.WriteString(fmt.Sprintf("\n- beliefs: %d (avg confidence %d%%)", stats.BeliefsCount, confidencePct(stats.AverageBeliefConfidence)))
	b.WriteString(fmt.Sprintf("\n- insights: %d", stats.InsightsCount))
	b.WriteString(fmt.Sprintf("\n- edges: %d", stats.TotalEdges))
	for _, et := range edgeTypeOrder {
		if count, ok := stats.EdgesByType[et]; ok && count > 0 {
			b.WriteString(fmt.Sprintf("\n  - %s: %d", et, count))
		}
	}
	return b.String(), nil
}
