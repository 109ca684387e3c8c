// Package service keeps one chat session per conversation and wires it to
// the admission policy and the transcript store.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/config"
	"github.com/xiaot623/worldrag/internal/domain"
	"github.com/xiaot623/worldrag/internal/index"
	"github.com/xiaot623/worldrag/internal/policy"
	"github.com/xiaot623/worldrag/internal/repository"
)

// Version is reported by the health check.
var Version = "dev"

// MaxSessionIDLength bounds client-chosen session ids.
const MaxSessionIDLength = 128

var (
	// ErrSessionNotFound is returned when a session has no memory or store record.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSessionID is returned for session ids that cannot be stored.
	ErrInvalidSessionID = errors.New("invalid session id")
)

// PolicyBlockedError is returned when the admission policy rejects a query.
type PolicyBlockedError struct {
	Reason string
}

func (e *PolicyBlockedError) Error() string {
	if e.Reason == "" {
		return "query blocked by policy"
	}
	return "query blocked by policy: " + e.Reason
}

// entry is a live session and its bookkeeping.
type entry struct {
	session *chat.Session
	// turn serializes Ask and the transcript write that follows it.
	turn     chan struct{}
	lastUsed time.Time
	inflight int
	// cleared is bumped by ClearSession so a turn that finishes afterwards
	// is not written to the store.
	cleared uint64
	// persist is held across the stale check and the transcript write, and
	// by ClearSession while it deletes the transcript.
	persist sync.Mutex
}

type Service struct {
	store        repository.Store
	index        index.Index
	generator    chat.Generator
	config       *config.Config
	policyEngine *policy.Engine
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

func New(store repository.Store, idx index.Index, generator chat.Generator, cfg *config.Config, policyEngine *policy.Engine) *Service {
	return &Service{
		store:        store,
		index:        idx,
		generator:    generator,
		config:       cfg,
		policyEngine: policyEngine,
		now:          time.Now,
		sessions:     make(map[string]*entry),
	}
}

// Health reports liveness and the size of the in-memory state.
func (s *Service) Health(ctx context.Context) domain.HealthResponse {
	s.mu.Lock()
	sessions := len(s.sessions)
	s.mu.Unlock()

	return domain.HealthResponse{
		Status:   "ok",
		Version:  Version,
		Sessions: sessions,
		Chunks:   s.index.Len(),
	}
}
