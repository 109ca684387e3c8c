package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/domain"
)

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Options configures Client.
type Options struct {
	BaseURL           string
	APIKey            string
	Model             string
	MaxTokens         int
	RepetitionPenalty float64
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// Client generates answers through an OpenAI-compatible chat completions
// endpoint, by default the Hugging Face inference router.
type Client struct {
	client           openai.Client
	model            string
	maxTokens        int
	frequencyPenalty float64
}

// NewClient creates a new chat completions client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	reqOpts := []option.RequestOption{
		option.WithBaseURL(strings.TrimSuffix(opts.BaseURL, "/") + "/"),
		option.WithAPIKey(opts.APIKey),
		option.WithHTTPClient(httpClient),
		// Retries belong to the caller of Ask, not to each completion.
		option.WithMaxRetries(0),
	}

	// The hosted endpoint has no repetition_penalty; frequency_penalty is the
	// nearest OpenAI-compatible knob.
	penalty := opts.RepetitionPenalty - 1
	if penalty < 0 {
		penalty = 0
	}
	return &Client{
		client:           openai.NewClient(reqOpts...),
		model:            opts.Model,
		maxTokens:        opts.MaxTokens,
		frequencyPenalty: penalty,
	}
}

// Condense rewrites a follow-up question into a standalone question.
func (c *Client) Condense(ctx context.Context, question string, history domain.ChatHistory) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(condensePrompt(question, history)),
	}
	out, err := c.complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("condense question: %w", err)
	}
	return out, nil
}

// Generate answers the question from the retrieved chunks, with the prior
// turns as conversation.
func (c *Client) Generate(ctx context.Context, req chat.GenerateRequest) (chat.Generation, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2+2*len(req.History))
	messages = append(messages, openai.SystemMessage(answerSystemPrompt(req.Chunks)))
	for _, turn := range req.History {
		messages = append(messages, openai.UserMessage(turn.Query), openai.AssistantMessage(turn.Answer))
	}
	messages = append(messages, openai.UserMessage(req.Question))

	answer, err := c.complete(ctx, messages)
	if err != nil {
		return chat.Generation{}, fmt.Errorf("generate answer: %w", err)
	}
	return chat.Generation{Answer: answer, StandaloneQuery: req.StandaloneQuery}, nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}
	params.Temperature = openai.Float(0)
	if c.frequencyPenalty > 0 {
		params.FrequencyPenalty = openai.Float(c.frequencyPenalty)
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("LLM API error [%d]: %w", apiErr.StatusCode, err)
		}
		return "", err
	}
	log.Debug().
		Str("model", c.model).
		Dur("latency", time.Since(start)).
		Int64("prompt_tokens", completion.Usage.PromptTokens).
		Int64("completion_tokens", completion.Usage.CompletionTokens).
		Msg("chat completion")

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
