package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"loangate-backend/internal/llm"
	"loangate-backend/internal/shared/telemetry"
)

const (
	provider       = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Client extracts document fields with OpenAI Chat Completions in JSON mode.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for model, or gpt-4o-mini when model is empty.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: llm.Timeout(timeout)},
	}, nil
}

// WithBaseURL targets a compatible API root, such as a proxy or a test server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model          string            `json:"model"`
	Messages       []message         `json:"messages"`
	Temperature    *float64          `json:"temperature,omitempty"`
	ResponseFormat map[string]string `json:"response_format"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends prompt as the user turn and returns the trimmed JSON reply.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	if !fixedTemperature(c.model) {
		zero := 0.0
		req.Temperature = &zero
	}

	var out completionResponse
	reply, err := llm.PostJSON(ctx, c.httpClient, provider, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, req, &out)
	if err != nil {
		return "", err
	}
	if out.Error != nil {
		return "", fmt.Errorf("openai http status %d: %s (%s)", reply.Status, out.Error.Message, out.Error.Type)
	}
	if reply.Status >= http.StatusBadRequest {
		return "", reply.HTTPError(provider)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai response empty content (finish_reason=%s)", out.Choices[0].FinishReason)
	}

	fields := map[string]any{"provider": provider, "model": c.model}
	if u := out.Usage; u != nil {
		fields["prompt_tokens"] = u.PromptTokens
		fields["completion_tokens"] = u.CompletionTokens
		fields["total_tokens"] = u.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return text, nil
}

// fixedTemperature reports models that reject an explicit temperature.
func fixedTemperature(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "gpt-5") || strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3")
}

var _ llm.Completer = (*Client)(nil)
