package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/domain"
)

// Chat runs one turn of the conversation identified by sessionID, starting a
// new conversation when sessionID is empty. It returns the id of the session
// that answered.
func (s *Service) Chat(ctx context.Context, sessionID, query string) (domain.AskResult, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AskResult{}, sessionID, chat.ErrEmptyQuery
	}

	if err := s.admit(ctx, sessionID, query); err != nil {
		return domain.AskResult{}, sessionID, err
	}

	e, sessionID, err := s.acquire(ctx, sessionID)
	if err != nil {
		return domain.AskResult{}, sessionID, err
	}
	defer s.release(e)

	select {
	case e.turn <- struct{}{}:
	case <-ctx.Done():
		return domain.AskResult{}, sessionID, ctx.Err()
	}
	defer func() { <-e.turn }()

	s.mu.Lock()
	cleared := e.cleared
	s.mu.Unlock()

	result, err := e.session.Ask(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Bool("retryable", chat.Retryable(err)).Msg("chat turn failed")
		return domain.AskResult{}, sessionID, err
	}

	e.persist.Lock()
	s.mu.Lock()
	stale := e.cleared != cleared
	s.mu.Unlock()
	if !stale {
		s.persistTurn(ctx, sessionID, query, result, e.session.State().LastGeneratedQuery)
	}
	e.persist.Unlock()

	log.Debug().
		Str("session_id", sessionID).
		Int("lookups", len(result.DBLookup)).
		Msg("chat turn committed")
	return result, sessionID, nil
}

// admit evaluates the query admission policy.
func (s *Service) admit(ctx context.Context, sessionID, query string) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, reason, err := s.policyEngine.Evaluate(ctx, domain.PolicyInput{
		Query:         query,
		Length:        utf8.RuneCountInString(query),
		SessionID:     sessionID,
		MaxQueryChars: s.config.MaxQueryChars,
	})
	if err != nil {
		return fmt.Errorf("policy evaluation failed: %w", err)
	}
	if decision == domain.PolicyDecisionBlock {
		log.Info().Str("session_id", sessionID).Str("reason", reason).Msg("query blocked by policy")
		return &PolicyBlockedError{Reason: reason}
	}
	return nil
}

// persistTurn appends a committed turn to the transcript. The in-memory
// session is authoritative, so failures are only logged.
func (s *Service) persistTurn(ctx context.Context, sessionID, query string, result domain.AskResult, generatedQuery string) {
	lookups, err := json.Marshal(result.DBLookup)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to encode lookups")
		lookups = nil
	}

	turn := &domain.TurnRecord{
		TurnID:         uuid.Must(uuid.NewV7()).String(),
		SessionID:      sessionID,
		Query:          query,
		Answer:         result.Response,
		GeneratedQuery: generatedQuery,
		Lookups:        lookups,
		CreatedAt:      s.now(),
	}
	if err := s.store.AppendTurn(context.WithoutCancel(ctx), turn); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to persist turn")
	}
}

// History returns the committed turns of a session, from memory when it is
// live and from the store otherwise.
func (s *Service) History(ctx context.Context, sessionID string) (domain.ChatHistory, error) {
	if err := validateSessionID(sessionID); err != nil || sessionID == "" {
		return nil, ErrSessionNotFound
	}
	if e := s.pin(sessionID); e != nil {
		defer s.release(e)
		return e.session.History(), nil
	}

	history, found, err := s.loadHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return history, nil
}

// ClearSession resets a conversation in memory and in the store. Clearing
// an unknown session is a no-op.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if ok {
		e.cleared++
		e.session.Clear()
	}
	s.mu.Unlock()

	// A turn that passed its stale check before the bump above finishes its
	// write first, so the delete below removes it.
	if ok {
		e.persist.Lock()
		defer e.persist.Unlock()
	}
	if err := s.store.DeleteTurns(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}
	log.Info().Str("session_id", sessionID).Msg("session cleared")
	return nil
}
