// Package repository persists chat sessions and their transcripts.
package repository

import (
	"context"

	"github.com/xiaot623/worldrag/internal/domain"
)

// Store defines the interface for transcript persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	TouchSession(ctx context.Context, sessionID string) error

	// Turn operations
	AppendTurn(ctx context.Context, turn *domain.TurnRecord) error
	GetTurns(ctx context.Context, sessionID string) ([]domain.TurnRecord, error)
	DeleteTurns(ctx context.Context, sessionID string) error

	// Lifecycle
	Close() error
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
