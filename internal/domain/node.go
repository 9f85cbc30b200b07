package domain

import (
	"time"

	"github.com/google/uuid"
)

type NodeType string

const (
	NodeTypeFact    NodeType = "fact"
	NodeTypeBelief  NodeType = "belief"
	NodeTypeInsight NodeType = "insight"
)

func ValidNodeType(t string) bool {
	switch NodeType(t) {
	case NodeTypeFact, NodeTypeBelief, NodeTypeInsight:
		return true
	}
	return false
}

type SourceType string

const (
	SourceSignal      SourceType = "signal"
	SourceAgent       SourceType = "agent"
	SourceUser        SourceType = "user"
	SourceSynthesis   SourceType = "synthesis"
	SourceReflection  SourceType = "reflection"
	SourceConvergence SourceType = "convergence"
)

func ValidSourceType(s string) bool {
	switch SourceType(s) {
	case SourceSignal, SourceAgent, SourceUser, SourceSynthesis, SourceReflection, SourceConvergence:
		return true
	}
	return false
}

type EntityLinkType string

const (
	EntityFeature        EntityLinkType = "feature"
	EntityPersona        EntityLinkType = "persona"
	EntityWorkflowStep   EntityLinkType = "workflow_step"
	EntityStakeholder    EntityLinkType = "stakeholder"
	EntityBusinessDriver EntityLinkType = "business_driver"
	EntityCompetitor     EntityLinkType = "competitor"
)

func ValidEntityLinkType(e string) bool {
	switch EntityLinkType(e) {
	case EntityFeature, EntityPersona, EntityWorkflowStep,
		EntityStakeholder, EntityBusinessDriver, EntityCompetitor:
		return true
	}
	return false
}

type HypothesisStatus string

const (
	HypothesisProposed  HypothesisStatus = "proposed"
	HypothesisTesting   HypothesisStatus = "testing"
	HypothesisGraduated HypothesisStatus = "graduated"
	HypothesisRejected  HypothesisStatus = "rejected"
)

func ValidHypothesisStatus(s string) bool {
	switch HypothesisStatus(s) {
	case HypothesisProposed, HypothesisTesting, HypothesisGraduated, HypothesisRejected:
		return true
	}
	return false
}

// Terminal reports whether a status ends hypothesis tracking.
// Graduated and rejected hypotheses never transition again.
func (s HypothesisStatus) Terminal() bool {
	return s == HypothesisGraduated || s == HypothesisRejected
}

// MemoryNode is a typed entry in the project knowledge graph.
// NodeType is immutable after creation; superseded nodes are
// deactivated, never deleted, so history stays resolvable.
type MemoryNode struct {
	ID                   uuid.UUID         `json:"id"`
	ProjectID            uuid.UUID         `json:"project_id"`
	NodeType             NodeType          `json:"node_type"`
	Content              string            `json:"content"`
	Summary              string            `json:"summary"`
	Confidence           float32           `json:"confidence"`
	IsActive             bool              `json:"is_active"`
	BeliefDomain         *string           `json:"belief_domain,omitempty"`
	HypothesisStatus     *HypothesisStatus `json:"hypothesis_status,omitempty"`
	TestSuggestion       *string           `json:"test_suggestion,omitempty"`
	EvidenceForCount     int               `json:"evidence_for_count"`
	EvidenceAgainstCount int               `json:"evidence_against_count"`
	SourceType           SourceType        `json:"source_type"`
	SourceID             *uuid.UUID        `json:"source_id,omitempty"`
	LinkedEntityType     *EntityLinkType   `json:"linked_entity_type,omitempty"`
	LinkedEntityID       *uuid.UUID        `json:"linked_entity_id,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}
