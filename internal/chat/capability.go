// Package chat implements the conversational retrieval session: it owns the
// chat history of one conversation and drives the condense, retrieve,
// generate and commit steps of every turn.
package chat

import (
	"context"

	"github.com/xiaot623/worldrag/internal/domain"
)

// Retriever returns the chunks most relevant to a standalone query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error)
}

// GenerateRequest carries everything the generator conditions an answer on.
type GenerateRequest struct {
	Question        string
	StandaloneQuery string
	Chunks          []domain.Chunk
	History         domain.ChatHistory
}

// Generation is the generator's answer for one turn. StandaloneQuery, when
// set, overrides the condensed query in the session's diagnostic trail.
type Generation struct {
	Answer          string
	StandaloneQuery string
}

// Generator produces natural-language text, typically from a hosted LLM.
type Generator interface {
	// Condense rewrites a follow-up question into a self-contained query.
	Condense(ctx context.Context, question string, history domain.ChatHistory) (string, error)
	// Generate answers the question from the retrieved chunks and history.
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
}
