// Package llm wraps the OpenAI-compatible completion service.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
)

const (
	defaultAPIBase = "https://oneapi.laisky.com"
	defaultTimeout = 30 * time.Second

	// upstream error bodies are attached to errors, keep them bounded
	maxErrorBodyBytes = 2048
)

// Client calls the chat completions and files endpoints.
// It performs exactly one HTTP round trip per call,
// no retry, streaming or caching.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// Message is one role-tagged entry of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Usage mirrors the upstream token accounting verbatim.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the reply text plus usage statistics.
type ChatResult struct {
	Reply string `json:"reply"`
	Usage Usage  `json:"usage"`
}

// NewClient creates a completion client with safe defaults.
func NewClient(apiBase string, timeout time.Duration, httpClient *http.Client) *Client {
	trimmedBase := strings.TrimSpace(apiBase)
	if trimmedBase == "" {
		trimmedBase = defaultAPIBase
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiBase:    strings.TrimRight(trimmedBase, "/"),
		httpClient: httpClient,
	}
}

// CreateChatCompletion sends the message list and returns the first choice.
func (c *Client) CreateChatCompletion(ctx context.Context,
	apiKey string, req ChatRequest) (*ChatResult, error) {
	if c == nil {
		return nil, errors.New("llm client is nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing api key")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, errors.New("missing model")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("empty messages")
	}

	// temperature is always sent, 0 is a meaningful value upstream
	payload := map[string]any{
		"model":       req.Model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal completion request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build completion request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "call completion endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Errorf("completion endpoint status %d: %s",
			resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "decode completion response")
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("completion response has no choices")
	}

	return &ChatResult{
		Reply: decoded.Choices[0].Message.Content,
		Usage: decoded.Usage,
	}, nil
}

type completionResponse struct {
	Choices []completionChoice `json:"choices"`
	Usage   Usage              `json:"usage"`
}

type completionChoice struct {
	Message Message `json:"message"`
}

// readErrorBody extracts a bounded upstream error text.
func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(raw))
}
