package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/worldrag/internal/chat"
	"github.com/xiaot623/worldrag/internal/config"
	"github.com/xiaot623/worldrag/internal/domain"
)

type recordedRequest struct {
	Model            string  `json:"model"`
	MaxTokens        int     `json:"max_tokens"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	Messages         []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, answer string, got *[]recordedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req recordedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*got = append(*got, req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Options{
		BaseURL:           url + "/v1",
		APIKey:            "hf_test",
		Model:             "HuggingFaceH4/zephyr-7b-beta",
		MaxTokens:         512,
		RepetitionPenalty: 1.03,
		Timeout:           5 * time.Second,
	})
}

func TestClientGenerateStuffsContext(t *testing.T) {
	var got []recordedRequest
	server := newCompletionServer(t, " The rate was 14.7%. ", &got)
	defer server.Close()

	c := newTestClient(server.URL)
	gen, err := c.Generate(context.Background(), chat.GenerateRequest{
		Question:        "What is the poverty rate of Brazil in 1995?",
		StandaloneQuery: "poverty rate brazil 1995",
		Chunks:          []domain.Chunk{{Content: "Brazil poverty rate 1995: 14.7%"}},
		History:         domain.ChatHistory{{Query: "hi", Answer: "hello"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "The rate was 14.7%.", gen.Answer)
	assert.Equal(t, "poverty rate brazil 1995", gen.StandaloneQuery)

	require.Len(t, got, 1)
	req := got[0]
	assert.Equal(t, "HuggingFaceH4/zephyr-7b-beta", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	assert.InDelta(t, 0.03, req.FrequencyPenalty, 1e-9)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Brazil poverty rate 1995: 14.7%")
	assert.Equal(t, "assistant", req.Messages[2].Role)
	assert.Equal(t, "What is the poverty rate of Brazil in 1995?", req.Messages[3].Content)
}

func TestClientCondense(t *testing.T) {
	var got []recordedRequest
	server := newCompletionServer(t, "What is the poverty rate of Brazil in 1995?", &got)
	defer server.Close()

	c := newTestClient(server.URL)
	q, err := c.Condense(context.Background(), "what about in 1995?", domain.ChatHistory{
		{Query: "What is the poverty rate of Brazil?", Answer: "It varies by year."},
	})
	require.NoError(t, err)
	assert.Equal(t, "What is the poverty rate of Brazil in 1995?", q)

	require.Len(t, got, 1)
	prompt := got[0].Messages[0].Content
	assert.Contains(t, prompt, "Human: What is the poverty rate of Brazil?")
	assert.Contains(t, prompt, "Assistant: It varies by year.")
	assert.Contains(t, prompt, "Follow Up Input: what about in 1995?")
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), chat.GenerateRequest{Question: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClientEmptyCompletion(t *testing.T) {
	var got []recordedRequest
	server := newCompletionServer(t, "   ", &got)
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), chat.GenerateRequest{Question: "q"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	ctx := context.Background()

	q, err := m.Condense(ctx, "what about in 1995?", domain.ChatHistory{{Query: "Brazil poverty rate?", Answer: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "Brazil poverty rate? what about in 1995?", q)

	gen, err := m.Generate(ctx, chat.GenerateRequest{
		Question: "q",
		Chunks:   []domain.Chunk{{Content: "Brazil poverty rate 1995: 14.7%"}},
	})
	require.NoError(t, err)
	assert.Contains(t, gen.Answer, "14.7")

	gen, err = m.Generate(ctx, chat.GenerateRequest{Question: "q"})
	require.NoError(t, err)
	assert.Contains(t, gen.Answer, "don't know")
}

func TestNewGeneratorHonoursMode(t *testing.T) {
	assert.IsType(t, &MockClient{}, NewGenerator(&config.Config{Mode: config.ModeMock}))
	assert.IsType(t, &Client{}, NewGenerator(&config.Config{LLMBaseURL: "http://localhost", LLMModel: "m"}))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "empreendedorismo é...", truncate("empreendedorismo é alto", 18))

	got := truncate(strings.Repeat("ção", 10), 4)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ção"+"ç...", got)
}
