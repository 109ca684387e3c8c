package domain

import (
	"encoding/json"
	"time"
)

// Session is the persisted record of a conversation.
type Session struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// TurnRecord is a committed chat turn as kept in the transcript store.
type TurnRecord struct {
	TurnID         string          `json:"turn_id"`
	SessionID      string          `json:"session_id"`
	Seq            int             `json:"seq"`
	Query          string          `json:"query"`
	Answer         string          `json:"answer"`
	GeneratedQuery string          `json:"generated_query,omitempty"`
	Lookups        json.RawMessage `json:"lookups,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
