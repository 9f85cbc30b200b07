package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
)

func setupMemoryTest() (*MemoryService, *mockNodeStore, *mockEdgeStore, *mockHistoryStore) {
	nodes := newMockNodeStore()
	edges := newMockEdgeStore()
	history := newMockHistoryStore()
	svc := NewMemoryService(nodes, edges, history, testLogger())
	return svc, nodes, edges, history
}

func validNodeParams(projectID uuid.UUID) CreateNodeParams {
	return CreateNodeParams{
		ProjectID:  projectID,
		NodeType:   "belief",
		Content:    "Users churn because onboarding is too long",
		Summary:    "Onboarding length drives churn",
		Confidence: 0.55,
		SourceType: "agent",
	}
}

func TestMemoryService_CreateNode(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()

	n, err := svc.CreateNode(ctx, validNodeParams(uuid.New()))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.ID == uuid.Nil {
		t.Fatal("expected node ID to be set")
	}
	if !n.IsActive {
		t.Fatal("expected new node to be active")
	}
	if n.Confidence != 0.55 {
		t.Fatalf("expected confidence 0.55, got %f", n.Confidence)
	}
}

func TestMemoryService_CreateNode_FactDefaultConfidence(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()

	p := validNodeParams(uuid.New())
	p.NodeType = "fact"
	p.Confidence = 0

	n, err := svc.CreateNode(context.Background(), p)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n.Confidence != 1.0 {
		t.Fatalf("expected fact default confidence 1.0, got %f", n.Confidence)
	}
}

func TestMemoryService_CreateNode_Validation(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()
	projectID := uuid.New()
	linkedID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(*CreateNodeParams)
		wantErr error
	}{
		{"invalid node type", func(p *CreateNodeParams) { p.NodeType = "opinion" }, ErrInvalidNodeType},
		{"invalid source type", func(p *CreateNodeParams) { p.SourceType = "rumor" }, ErrInvalidSourceType},
		{"empty content", func(p *CreateNodeParams) { p.Content = "" }, ErrContentEmpty},
		{"empty summary", func(p *CreateNodeParams) { p.Summary = "" }, ErrSummaryEmpty},
		{"confidence too high", func(p *CreateNodeParams) { p.Confidence = 1.5 }, ErrConfidenceOutOfRange},
		{"confidence negative", func(p *CreateNodeParams) { p.Confidence = -0.1 }, ErrConfidenceOutOfRange},
		{"link type without id", func(p *CreateNodeParams) { p.LinkedEntityType = "feature" }, ErrIncompleteEntityLink},
		{"link id without type", func(p *CreateNodeParams) { p.LinkedEntityID = &linkedID }, ErrIncompleteEntityLink},
		{"invalid link type", func(p *CreateNodeParams) {
			p.LinkedEntityType = "galaxy"
			p.LinkedEntityID = &linkedID
		}, ErrInvalidEntityLink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validNodeParams(projectID)
			tt.mutate(&p)
			_, err := svc.CreateNode(ctx, p)
			if err != tt.wantErr {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMemoryService_CreateEdge(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()
	projectID := uuid.New()

	factParams := validNodeParams(projectID)
	factParams.NodeType = "fact"
	factParams.Confidence = 1.0
	fact, _ := svc.CreateNode(ctx, factParams)
	belief, _ := svc.CreateNode(ctx, validNodeParams(projectID))

	e, err := svc.CreateEdge(ctx, CreateEdgeParams{
		FromNodeID: fact.ID,
		ToNodeID:   belief.ID,
		EdgeType:   "supports",
		Rationale:  "Survey data backs this up",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if e.ID == uuid.Nil {
		t.Fatal("expected edge ID to be set")
	}
	if e.Rationale == nil || *e.Rationale != "Survey data backs this up" {
		t.Fatal("expected rationale to be stored")
	}
}

func TestMemoryService_CreateEdge_Errors(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))
	otherProject, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	if _, err := svc.CreateEdge(ctx, CreateEdgeParams{FromNodeID: belief.ID, ToNodeID: otherProject.ID, EdgeType: "sustains"}); err != ErrInvalidEdgeType {
		t.Fatalf("expected ErrInvalidEdgeType, got %v", err)
	}
	if _, err := svc.CreateEdge(ctx, CreateEdgeParams{FromNodeID: uuid.New(), ToNodeID: belief.ID, EdgeType: "supports"}); err != ErrNodeNotFound {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if _, err := svc.CreateEdge(ctx, CreateEdgeParams{FromNodeID: belief.ID, ToNodeID: otherProject.ID, EdgeType: "supports"}); err != ErrProjectMismatch {
		t.Fatalf("expected ErrProjectMismatch, got %v", err)
	}
}

func TestMemoryService_UpdateBeliefConfidence(t *testing.T) {
	svc, nodes, _, history := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	updated, err := svc.UpdateBeliefConfidence(ctx, belief.ID, 0.8, "two more supporting signals")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Confidence != 0.8 {
		t.Fatalf("expected confidence 0.8, got %f", updated.Confidence)
	}
	if nodes.nodes[belief.ID].Confidence != 0.8 {
		t.Fatal("expected store confidence to be persisted")
	}

	entries := history.byNode(belief.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ChangeType != domain.ChangeConfidenceIncrease {
		t.Fatalf("expected confidence_increase, got %s", e.ChangeType)
	}
	if e.PreviousConfidence != 0.55 || e.NewConfidence != 0.8 {
		t.Fatalf("expected 0.55 -> 0.8, got %f -> %f", e.PreviousConfidence, e.NewConfidence)
	}
	if e.ChangeReason != "two more supporting signals" {
		t.Fatalf("unexpected change reason %q", e.ChangeReason)
	}
}

func TestMemoryService_UpdateBeliefConfidence_Decrease(t *testing.T) {
	svc, _, _, history := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	if _, err := svc.UpdateBeliefConfidence(ctx, belief.ID, 0.3, "contradicting incident"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entries := history.byNode(belief.ID)
	if len(entries) != 1 || entries[0].ChangeType != domain.ChangeConfidenceDecrease {
		t.Fatal("expected a single confidence_decrease entry")
	}
}

func TestMemoryService_UpdateBeliefConfidence_NoOpWhenEqual(t *testing.T) {
	svc, _, _, history := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	if _, err := svc.UpdateBeliefConfidence(ctx, belief.ID, 0.55, "same value"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(history.byNode(belief.ID)) != 0 {
		t.Fatal("expected no history entry for unchanged confidence")
	}
}

func TestMemoryService_UpdateBeliefConfidence_Errors(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()
	projectID := uuid.New()

	factParams := validNodeParams(projectID)
	factParams.NodeType = "fact"
	factParams.Confidence = 1.0
	fact, _ := svc.CreateNode(ctx, factParams)
	belief, _ := svc.CreateNode(ctx, validNodeParams(projectID))

	if _, err := svc.UpdateBeliefConfidence(ctx, belief.ID, 1.2, ""); err != ErrConfidenceOutOfRange {
		t.Fatalf("expected ErrConfidenceOutOfRange, got %v", err)
	}
	if _, err := svc.UpdateBeliefConfidence(ctx, uuid.New(), 0.5, ""); err != ErrNodeNotFound {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
	if _, err := svc.UpdateBeliefConfidence(ctx, fact.ID, 0.5, ""); err != ErrNotABelief {
		t.Fatalf("expected ErrNotABelief, got %v", err)
	}
}

func TestMemoryService_UpdateBeliefContent(t *testing.T) {
	svc, _, _, history := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	updated, err := svc.UpdateBeliefContent(ctx, belief.ID,
		"Users churn because onboarding requires a credit card upfront",
		"Upfront credit card drives churn",
		domain.ChangeContentRefined, "narrowed after interviews")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Summary != "Upfront credit card drives churn" {
		t.Fatalf("unexpected summary %q", updated.Summary)
	}

	entries := history.byNode(belief.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
	if entries[0].ChangeType != domain.ChangeContentRefined {
		t.Fatalf("expected content_refined, got %s", entries[0].ChangeType)
	}
	if entries[0].PreviousConfidence != entries[0].NewConfidence {
		t.Fatal("content change must not move confidence")
	}
}

func TestMemoryService_UpdateBeliefContent_InvalidChangeType(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	_, err := svc.UpdateBeliefContent(ctx, belief.ID, "new content", "new summary", domain.ChangeSuperseded, "")
	if err != ErrInvalidChangeType {
		t.Fatalf("expected ErrInvalidChangeType, got %v", err)
	}
}

func TestMemoryService_SupersedeBelief(t *testing.T) {
	svc, nodes, _, history := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	if err := svc.SupersedeBelief(ctx, belief.ID, "replaced by refined belief"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if nodes.nodes[belief.ID].IsActive {
		t.Fatal("expected belief to be deactivated")
	}

	entries := history.byNode(belief.ID)
	if len(entries) != 1 || entries[0].ChangeType != domain.ChangeSuperseded {
		t.Fatal("expected a single superseded entry")
	}
}

func TestMemoryService_ArchiveBelief(t *testing.T) {
	svc, nodes, _, history := setupMemoryTest()
	ctx := context.Background()

	belief, _ := svc.CreateNode(ctx, validNodeParams(uuid.New()))

	if err := svc.ArchiveBelief(ctx, belief.ID, "no longer relevant"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if nodes.nodes[belief.ID].IsActive {
		t.Fatal("expected belief to be deactivated")
	}

	entries := history.byNode(belief.ID)
	if len(entries) != 1 || entries[0].ChangeType != domain.ChangeArchived {
		t.Fatal("expected a single archived entry")
	}
}

func TestMemoryService_ListActiveBeliefs_Ordering(t *testing.T) {
	svc, _, _, _ := setupMemoryTest()
	ctx := context.Background()
	projectID := uuid.New()

	for _, c := range []float32{0.5, 0.9, 0.7} {
		p := validNodeParams(projectID)
		p.Confidence = c
		if _, err := svc.CreateNode(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	beliefs, err := svc.ListActiveBeliefs(ctx, projectID, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(beliefs) != 3 {
		t.Fatalf("expected 3 beliefs, got %d", len(beliefs))
	}
	for i := 1; i < len(beliefs); i++ {
		if beliefs[i].Confidence > beliefs[i-1].Confidence {
			t.Fatal("expected beliefs ordered most confident first")
		}
	}
}
