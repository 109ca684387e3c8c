package domain

// PolicyInput is evaluated by the query admission policy.
type PolicyInput struct {
	Query         string `json:"query"`
	Length        int    `json:"length"`
	SessionID     string `json:"session_id"`
	MaxQueryChars int    `json:"max_query_chars"`
}
