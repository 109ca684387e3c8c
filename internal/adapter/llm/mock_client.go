package llm

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/domain"
)

// MockClient is a deterministic generator for local runs and tests.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Condense prefixes the follow-up with the previous question.
func (m *MockClient) Condense(ctx context.Context, question string, history domain.ChatHistory) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(history) == 0 {
		return question, nil
	}
	return history[len(history)-1].Query + " " + question, nil
}

// Generate answers with the best retrieved chunk.
func (m *MockClient) Generate(ctx context.Context, req chat.GenerateRequest) (chat.Generation, error) {
	if err := ctx.Err(); err != nil {
		return chat.Generation{}, err
	}
	if len(req.Chunks) == 0 {
		return chat.Generation{
			Answer:          fmt.Sprintf("[MOCK] I don't know the answer to %q.", truncate(req.Question, 100)),
			StandaloneQuery: req.StandaloneQuery,
		}, nil
	}
	return chat.Generation{
		Answer:          "[MOCK] " + truncate(req.Chunks[0].Content, 500),
		StandaloneQuery: req.StandaloneQuery,
	}, nil
}

// truncate truncates a string to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
