package domain

import "github.com/google/uuid"

// Hypothesis is a read-time view over a belief node that is being
// tracked for validation. It is never stored separately; the belief
// node is the single source of truth.
type Hypothesis struct {
	HypothesisID    uuid.UUID        `json:"hypothesis_id"`
	Statement       string           `json:"statement"`
	Status          HypothesisStatus `json:"status,omitempty"`
	Confidence      float32          `json:"confidence"`
	EvidenceFor     int              `json:"evidence_for"`
	EvidenceAgainst int              `json:"evidence_against"`
	Domain          string           `json:"domain,omitempty"`
	TestSuggestion  string           `json:"test_suggestion,omitempty"`
}

// HypothesisPrompt is the project-scoped slice of a hypothesis sent
// to the LLM when asking for a validation action.
type HypothesisPrompt struct {
	HypothesisID    uuid.UUID `json:"hypothesis_id"`
	Statement       string    `json:"statement"`
	Confidence      float32   `json:"confidence"`
	EvidenceFor     int       `json:"evidence_for"`
	EvidenceAgainst int       `json:"evidence_against"`
}

// TestSuggestion pairs a hypothesis with a proposed validation action.
type TestSuggestion struct {
	HypothesisID uuid.UUID `json:"hypothesis_id"`
	Suggestion   string    `json:"test_suggestion"`
}
