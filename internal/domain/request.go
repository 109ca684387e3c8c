package domain

// ChatRequest is the body of POST /api/llmchat/llm_chat_text.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ErrorBody is the error envelope of every non-2xx API response.
type ErrorBody struct {
	Error APIError `json:"error"`
}

// APIError describes a failed request.
type APIError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

// HistoryResponse is the body of GET /api/llmchat/sessions/:session_id/history.
type HistoryResponse struct {
	SessionID string      `json:"session_id"`
	History   ChatHistory `json:"history"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	Chunks   int    `json:"chunks"`
}

// WSQuery is a client-to-server websocket frame.
type WSQuery struct {
	Query string `json:"query"`
}

// WSFrame is a server-to-client websocket frame.
type WSFrame struct {
	Type      FrameType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Response  string    `json:"response,omitempty"`
	DBLookup  []Lookup  `json:"db_lookup,omitempty"`
	Error     *APIError `json:"error,omitempty"`
}
