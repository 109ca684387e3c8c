// Package domain defines the core domain models for worldrag.
package domain

// ErrorCode identifies a failure class in API responses.
type ErrorCode string

const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeEmptyQuery       ErrorCode = "empty_query"
	ErrorCodeQueryBlocked     ErrorCode = "query_blocked"
	ErrorCodeSessionNotFound  ErrorCode = "session_not_found"
	ErrorCodeRetrievalFailed  ErrorCode = "retrieval_failed"
	ErrorCodeGenerationFailed ErrorCode = "generation_failed"
	ErrorCodeTimeout          ErrorCode = "timeout"
	ErrorCodeCancelled        ErrorCode = "cancelled"
	ErrorCodeInternal         ErrorCode = "internal"
)

// PolicyDecision is the outcome of the query admission policy.
type PolicyDecision string

const (
	PolicyDecisionAllow PolicyDecision = "allow"
	PolicyDecisionBlock PolicyDecision = "block"
)

// FrameType is the type of a websocket chat frame.
type FrameType string

const (
	FrameTypeAnswer FrameType = "answer"
	FrameTypeError  FrameType = "error"
)
