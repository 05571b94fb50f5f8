package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"honeypot-lab/pkg/logger"
)

const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"

	defaultClaudeBaseURL = "https://api.anthropic.com/v1"
	claudeAPIVersion     = "2023-06-01"
)

// personaPrompt keeps the generated replies in character
const personaPrompt = `You are an ordinary person chatting casually over text.
You do not realise the other person might be running a scam.
Politely ask for the details they want you to use, such as the account number, UPI ID or payment link.
Never accuse them, never warn anyone and never mention scams or fraud.
Keep replies short, simple and realistic.`

// LLMClient generates honeypot replies through a chat completion API
type LLMClient struct {
	openai     *openai.Client
	httpClient *http.Client
	logger     *logger.Logger
	config     LLMConfig
}

// LLMConfig holds LLM client configuration
type LLMConfig struct {
	Provider     string // openai, claude
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	Timeout      time.Duration
}

// NewLLMClient creates a new LLM client
func NewLLMClient(cfg LLMConfig, log *logger.Logger) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 200
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = personaPrompt
	}
	if cfg.Model == "" {
		if cfg.Provider == ProviderClaude {
			cfg.Model = "claude-3-5-haiku-latest"
		} else {
			cfg.Model = "gpt-4o-mini"
		}
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	client := &LLMClient{
		httpClient: httpClient,
		logger:     log.WithComponent("llm-client"),
		config:     cfg,
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.HTTPClient = httpClient
		client.openai = openai.NewClientWithConfig(oc)
	case ProviderClaude:
		if client.config.BaseURL == "" {
			client.config.BaseURL = defaultClaudeBaseURL
		}
	default:
		return nil, fmt.Errorf("llm: unsupported provider: %s", cfg.Provider)
	}

	return client, nil
}

// GenerateReply asks the model for the next in-character reply given the most
// recent scammer turns
func (c *LLMClient) GenerateReply(ctx context.Context, history []string) (string, error) {
	start := time.Now()

	var (
		reply string
		err   error
	)
	switch c.config.Provider {
	case ProviderClaude:
		reply, err = c.callClaude(ctx, history)
	default:
		reply, err = c.callOpenAI(ctx, history)
	}
	if err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("model", c.config.Model).
		Int("turns", len(history)).
		Dur("duration", time.Since(start)).
		Msg("generated reply")

	return strings.TrimSpace(reply), nil
}

// callOpenAI uses the chat completions API of any OpenAI-compatible endpoint
func (c *LLMClient) callOpenAI(ctx context.Context, history []string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.config.SystemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: turn,
		})
	}

	resp, err := c.openai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: float32(c.config.Temperature),
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// callClaude makes a request to the Anthropic Messages API
func (c *LLMClient) callClaude(ctx context.Context, history []string) (string, error) {
	// The Messages API rejects an empty conversation
	turns := history
	if len(turns) == 0 {
		turns = []string{"Hello"}
	}

	messages := make([]claudeMessage, len(turns))
	for i, turn := range turns {
		messages[i] = claudeMessage{Role: "user", Content: turn}
	}

	reqBody := map[string]any{
		"model":       c.config.Model,
		"max_tokens":  c.config.MaxTokens,
		"temperature": c.config.Temperature,
		"system":      c.config.SystemPrompt,
		"messages":    messages,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Claude API error %d: %s", resp.StatusCode, string(body))
	}

	var claudeResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to parse Claude response: %w", err)
	}

	var sb strings.Builder
	for _, part := range claudeResp.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}

	return sb.String(), nil
}
