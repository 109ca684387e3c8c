package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/domain"
)

// acquire returns the live session for id, restoring it from the store or
// creating it when needed. An empty id starts a new conversation. The
// caller must release the entry.
func (s *Service) acquire(ctx context.Context, sessionID string) (*entry, string, error) {
	if sessionID == "" {
		sessionID = uuid.Must(uuid.NewV7()).String()
	} else if err := validateSessionID(sessionID); err != nil {
		return nil, "", err
	}

	if e := s.pin(sessionID); e != nil {
		return e, sessionID, nil
	}

	history, found, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	if !found {
		now := s.now()
		rec := &domain.Session{SessionID: sessionID, CreatedAt: now, LastActiveAt: now}
		if err := s.store.CreateSession(ctx, rec); err != nil {
			return nil, "", fmt.Errorf("failed to create session: %w", err)
		}
		log.Info().Str("session_id", sessionID).Msg("session created")
	}

	sess, err := chat.NewSession(s.index, s.generator,
		chat.WithID(sessionID),
		chat.WithK(s.config.RetrievalK),
		chat.WithHistory(history),
	)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{session: sess, turn: make(chan struct{}, 1)}
		s.sessions[sessionID] = e
		if found {
			log.Info().Str("session_id", sessionID).Int("turns", len(history)).Msg("session restored")
		}
	}
	e.inflight++
	e.lastUsed = s.now()
	return e, sessionID, nil
}

// pin marks a live session as in use, or returns nil if it is not in memory.
func (s *Service) pin(sessionID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	e.inflight++
	e.lastUsed = s.now()
	return e
}

func (s *Service) release(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.inflight--
	e.lastUsed = s.now()
}

// loadHistory reads a stored conversation. found is false when the store
// has no record of the session.
func (s *Service) loadHistory(ctx context.Context, sessionID string) (domain.ChatHistory, bool, error) {
	rec, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session: %w", err)
	}
	if rec == nil {
		return domain.ChatHistory{}, false, nil
	}

	turns, err := s.store.GetTurns(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get turns: %w", err)
	}
	history := make(domain.ChatHistory, 0, len(turns))
	for _, t := range turns {
		history = append(history, domain.ChatTurn{Query: t.Query, Answer: t.Answer})
	}
	return history, true, nil
}

func validateSessionID(id string) error {
	if len(id) > MaxSessionIDLength || !utf8.ValidString(id) {
		return ErrInvalidSessionID
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return ErrInvalidSessionID
		}
	}
	return nil
}
