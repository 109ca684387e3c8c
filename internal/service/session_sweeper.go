package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunSessionSweeper evicts idle sessions from memory until ctx is done.
// Their transcripts stay in the store and are restored on next use.
func (s *Service) RunSessionSweeper(ctx context.Context) {
	ttl := s.config.SessionIdleTTL
	if ttl <= 0 {
		return
	}
	interval := min(max(ttl/4, time.Second), time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdleSessions()
		}
	}
}

func (s *Service) sweepIdleSessions() int {
	cutoff := s.now().Add(-s.config.SessionIdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		if e.inflight > 0 || e.lastUsed.After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Int("live", len(s.sessions)).Msg("idle sessions evicted")
	}
	return evicted
}
