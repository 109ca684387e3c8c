package llm

import (
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/config"
)

// NewGenerator creates a generator based on WORLDRAG_MODE.
// If WORLDRAG_MODE=MOCK, returns a MockClient; otherwise returns a real Client.
func NewGenerator(cfg *config.Config) chat.Generator {
	if cfg.IsMock() {
		log.Info().Msg("WORLDRAG_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}

	return NewClient(Options{
		BaseURL:           cfg.LLMBaseURL,
		APIKey:            cfg.HFToken,
		Model:             cfg.LLMModel,
		MaxTokens:         cfg.LLMMaxTokens,
		RepetitionPenalty: cfg.LLMRepetition,
		Timeout:           cfg.LLMTimeout,
	})
}
