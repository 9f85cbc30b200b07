package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/parallaxhq/mindloom/internal/domain"
)

func formatHypotheses(hypotheses []domain.HypothesisPrompt) string {
	var sb strings.Builder
	for i, h := range hypotheses {
		sb.WriteString(fmt.Sprintf("%d. id=%s confidence=%.2f evidence_for=%d evidence_against=%d\n   %s\n",
			i+1, h.HypothesisID, h.Confidence, h.EvidenceFor, h.EvidenceAgainst, h.Statement))
	}
	return sb.String()
}

type rawSuggestion struct {
	ID         string `json:"id"`
	Suggestion string `json:"suggestion"`
}

// parseSuggestions decodes the model's JSON array. A completely
// unparseable payload is an error; individual entries with bad ids or
// empty suggestions are dropped.
func parseSuggestions(raw string) ([]domain.TestSuggestion, error) {
	// Strip markdown fences if present
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var entries []rawSuggestion
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parse suggestion result: %w (raw: %s)", err, raw)
	}

	suggestions := make([]domain.TestSuggestion, 0, len(entries))
	for _, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil || e.Suggestion == "" {
			continue
		}
		suggestions = append(suggestions, domain.TestSuggestion{
			HypothesisID: id,
			Suggestion:   e.Suggestion,
		})
	}
	return suggestions, nil
}
