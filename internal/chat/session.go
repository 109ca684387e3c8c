package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xiaot623/worldrag/internal/domain"
)

// DefaultK is the default retrieval fan-out.
const DefaultK = 4

// State is a snapshot of a session's conversation state.
type State struct {
	History             domain.ChatHistory
	LastAnswer          string
	LastGeneratedQuery  string
	LastRetrievedChunks []domain.Chunk
}

func (s State) clone() State {
	chunks := make([]domain.Chunk, len(s.LastRetrievedChunks))
	for i, c := range s.LastRetrievedChunks {
		chunks[i] = c.Clone()
	}
	return State{
		History:             s.History.Clone(),
		LastAnswer:          s.LastAnswer,
		LastGeneratedQuery:  s.LastGeneratedQuery,
		LastRetrievedChunks: chunks,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithK sets the number of chunks retrieved per turn.
func WithK(k int) Option {
	return func(s *Session) { s.k = k }
}

// WithID sets the session identifier.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithHistory seeds the session with previously committed turns.
func WithHistory(h domain.ChatHistory) Option {
	return func(s *Session) { s.state.History = h.Clone() }
}

// Session is one conversation. Ask calls on a session are serialized;
// distinct sessions share no mutable state.
type Session struct {
	id        string
	k         int
	retriever Retriever
	generator Generator

	// turn holds a token while an Ask is in flight.
	turn chan struct{}

	mu    sync.RWMutex
	state State
	// epoch is bumped by Clear so in-flight turns do not commit into a
	// reset conversation.
	epoch uint64
}

// NewSession creates a session over the given collaborators.
func NewSession(retriever Retriever, generator Generator, opts ...Option) (*Session, error) {
	s := &Session{
		k:         DefaultK,
		retriever: retriever,
		generator: generator,
		turn:      make(chan struct{}, 1),
		state:     State{History: domain.ChatHistory{}},
	}
	for _, opt := range opts {
		opt(s)
	}

	if retriever == nil {
		return nil, &ConfigError{Field: "retriever", Reason: "is required"}
	}
	if generator == nil {
		return nil, &ConfigError{Field: "generator", Reason: "is required"}
	}
	if s.k <= 0 {
		return nil, &ConfigError{Field: "k", Reason: "must be a positive integer"}
	}
	if s.id == "" {
		s.id = uuid.Must(uuid.NewV7()).String()
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// K returns the retrieval fan-out.
func (s *Session) K() int { return s.k }

// Ask runs one conversational turn. On any error the session state is left
// exactly as it was before the call.
func (s *Session) Ask(ctx context.Context, query string) (domain.AskResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AskResult{}, ErrEmptyQuery
	}

	select {
	case s.turn <- struct{}{}:
	case <-ctx.Done():
		return domain.AskResult{}, ctx.Err()
	}
	defer func() { <-s.turn }()

	s.mu.RLock()
	history := s.state.History.Clone()
	epoch := s.epoch
	s.mu.RUnlock()

	standalone, chunks, gen, err := s.pipeline(ctx, query, history)
	if err != nil {
		return domain.AskResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.AskResult{}, err
	}

	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		stored[i] = c.Clone()
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.state.History = append(s.state.History, domain.ChatTurn{Query: query, Answer: gen.Answer})
		s.state.LastAnswer = gen.Answer
		s.state.LastGeneratedQuery = standalone
		s.state.LastRetrievedChunks = stored
	}
	s.mu.Unlock()

	return domain.AskResult{
		Response: gen.Answer,
		DBLookup: domain.LookupsFromChunks(chunks),
	}, nil
}

func (s *Session) pipeline(ctx context.Context, query string, history domain.ChatHistory) (string, []domain.Chunk, Generation, error) {
	standalone := query
	if len(history) > 0 {
		condensed, err := s.generator.Condense(ctx, query, history)
		if err != nil {
			return "", nil, Generation{}, &GenerationError{Stage: "condense", Err: err}
		}
		if c := strings.TrimSpace(condensed); c != "" {
			standalone = c
		}
	}

	chunks, err := s.retriever.Retrieve(ctx, standalone, s.k)
	if err != nil {
		return "", nil, Generation{}, &RetrievalError{Err: err}
	}

	gen, err := s.generator.Generate(ctx, GenerateRequest{
		Question:        query,
		StandaloneQuery: standalone,
		Chunks:          chunks,
		History:         history,
	})
	if err != nil {
		return "", nil, Generation{}, &GenerationError{Stage: "generate", Err: err}
	}
	if gen.StandaloneQuery != "" {
		standalone = gen.StandaloneQuery
	}
	return standalone, chunks, gen, nil
}

// Clear resets the conversation. It does not wait for an in-flight Ask;
// that turn is returned to its caller but not recorded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{History: domain.ChatHistory{}}
	s.epoch++
}

// History returns a copy of the conversation so far.
func (s *Session) History() domain.ChatHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.History.Clone()
}

// State returns a copy of the full session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}
