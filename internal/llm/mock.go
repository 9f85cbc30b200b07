package llm

import (
	"context"

	"github.com/parallaxhq/mindloom/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Set the response fields to control what SuggestTests returns.
type MockClient struct {
	SuggestTestsResponse []domain.TestSuggestion
	SuggestTestsError    error

	// Call tracking for assertions
	SuggestTestsCalls [][]domain.HypothesisPrompt
}

func NewMockClient() *MockClient {
	return &MockClient{
		SuggestTestsResponse: []domain.TestSuggestion{},
	}
}

func (c *MockClient) SuggestTests(ctx context.Context, hypotheses []domain.HypothesisPrompt) ([]domain.TestSuggestion, error) {
	c.SuggestTestsCalls = append(c.SuggestTestsCalls, hypotheses)
	if c.SuggestTestsError != nil {
		return nil, c.SuggestTestsError
	}
	return c.SuggestTestsResponse, nil
}
