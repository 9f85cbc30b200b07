package domain

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeConfidenceIncrease ChangeType = "confidence_increase"
	ChangeConfidenceDecrease ChangeType = "confidence_decrease"
	ChangeContentRefined     ChangeType = "content_refined"
	ChangeContentChanged     ChangeType = "content_changed"
	ChangeSuperseded         ChangeType = "superseded"
	ChangeArchived           ChangeType = "archived"
)

func ValidChangeType(c string) bool {
	switch ChangeType(c) {
	case ChangeConfidenceIncrease, ChangeConfidenceDecrease,
		ChangeContentRefined, ChangeContentChanged,
		ChangeSuperseded, ChangeArchived:
		return true
	}
	return false
}

// BeliefHistoryEntry is an append-only audit record of a change
// to a belief node. Entries are never mutated or deleted.
type BeliefHistoryEntry struct {
	ID                 uuid.UUID  `json:"id"`
	BeliefNodeID       uuid.UUID  `json:"belief_node_id"`
	ChangeType         ChangeType `json:"change_type"`
	PreviousConfidence float32    `json:"previous_confidence"`
	NewConfidence      float32    `json:"new_confidence"`
	ChangeReason       string     `json:"change_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}
