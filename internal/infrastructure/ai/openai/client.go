// Package openai provides a text generator for OpenAI-compatible chat
// completion APIs. Groq is the default backend.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/alchemorsel/cardapio/internal/infrastructure/monitoring"
	"github.com/alchemorsel/cardapio/internal/ports/outbound"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

// ErrMissingAPIKey is returned before any network call when no key is set
var ErrMissingAPIKey = errors.New("text generation API key is not configured")

// Config for the chat completions client
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	// JSONMode sends response_format=json_object when the request asks for JSON
	JSONMode bool
}

// Client implements outbound.TextGenerator against /chat/completions
type Client struct {
	config  Config
	client  *http.Client
	metrics *monitoring.MetricsCollector
	logger  *zap.Logger
}

// NewClient creates a new chat completions client
func NewClient(config Config, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Provider == "" {
		config.Provider = "groq"
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.APIKey == "" {
		logger.Warn("Text generation API key not found; generation requests will fail",
			zap.String("provider", config.Provider))
	} else {
		logger.Info("Chat completions client initialized",
			zap.String("provider", config.Provider),
			zap.String("model", config.Model))
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// API structures
type ChatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionResponse struct {
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider implements outbound.TextGenerator
func (c *Client) Provider() string {
	return c.config.Provider
}

// Generate sends a single user message and returns the first choice
func (c *Client) Generate(ctx context.Context, req outbound.GenerationRequest) (*outbound.Generation, error) {
	start := time.Now()
	gen, err := c.call(ctx, req)

	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.AIRequest(c.config.Provider, c.config.Model, status, time.Since(start))

	return gen, err
}

func (c *Client) call(ctx context.Context, req outbound.GenerationRequest) (*outbound.Generation, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqBody := ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: 0.7,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON && c.config.JSONMode {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	c.logger.Info("Chat completion successful",
		zap.String("provider", c.config.Provider),
		zap.String("finish_reason", chatResp.Choices[0].FinishReason),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens),
	)

	model := chatResp.Model
	if model == "" {
		model = c.config.Model
	}
	return &outbound.Generation{
		Text:             chatResp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck lists models to confirm the key and endpoint work
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.config.APIKey == "" {
		return ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s not reachable: %w", c.config.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s health check failed with status %d", c.config.Provider, resp.StatusCode)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
