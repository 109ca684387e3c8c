// Package llm provides the answer generator backed by a hosted chat model.
package llm

import "github.com/xiaot623/worldrag/internal/chat"

// Ensure generators implement chat.Generator.
var (
	_ chat.Generator = (*Client)(nil)
	_ chat.Generator = (*MockClient)(nil)
)
