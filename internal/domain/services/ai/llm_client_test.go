package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeypot-lab/pkg/logger"
)

func TestNewLLMClient_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMClient(LLMConfig{}, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestNewLLMClient_UnsupportedProvider(t *testing.T) {
	_, err := NewLLMClient(LLMConfig{APIKey: "k", Provider: "bard"}, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestLLMClient_OpenAI(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " Which account number? "}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(LLMConfig{
		Provider: ProviderOpenAI,
		APIKey:   "sk-test",
		BaseURL:  srv.URL,
		Model:    "test-model",
		Timeout:  2 * time.Second,
	}, logger.NewNop())
	require.NoError(t, err)

	reply, err := c.GenerateReply(context.Background(), []string{"urgent", "send otp"})
	require.NoError(t, err)
	assert.Equal(t, "Which account number?", reply)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, personaPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "urgent", got.Messages[1].Content)
	assert.Equal(t, "send otp", got.Messages[2].Content)
}

func TestLLMClient_OpenAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded", "type": "insufficient_quota"}}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(LLMConfig{APIKey: "sk-test", BaseURL: srv.URL}, logger.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateReply(context.Background(), []string{"hi"})
	require.Error(t, err)
}

func TestLLMClient_Claude(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "ck-test", r.Header.Get("x-api-key"))
		assert.Equal(t, claudeAPIVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "Sure, what is the UPI ID?"}]}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(LLMConfig{
		Provider: ProviderClaude,
		APIKey:   "ck-test",
		BaseURL:  srv.URL,
	}, logger.NewNop())
	require.NoError(t, err)

	reply, err := c.GenerateReply(context.Background(), []string{"pay the fee"})
	require.NoError(t, err)
	assert.Equal(t, "Sure, what is the UPI ID?", reply)

	assert.Equal(t, personaPrompt, got["system"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
}

func TestLLMClient_ClaudeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewLLMClient(LLMConfig{Provider: ProviderClaude, APIKey: "k", BaseURL: srv.URL}, logger.NewNop())
	require.NoError(t, err)

	_, err = c.GenerateReply(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestLLMClient_FeedsReplySelector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewLLMClient(LLMConfig{APIKey: "sk-test", BaseURL: srv.URL}, logger.NewNop())
	require.NoError(t, err)

	s := NewReplySelector(ReplySelectorConfig{Timeout: time.Second}, nil, c, logger.NewNop())
	reply, _ := s.Select(context.Background(), true, []string{"urgent otp"})
	assert.Equal(t, DefaultScamReply, reply)
}
