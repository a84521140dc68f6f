package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"documind-backend/internal/llm"
)

// Client implements llm.Client using an OpenAI-compatible chat API.
// A custom base URL covers DeepSeek-style providers.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient constructs an OpenAI-backed completion client.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}

	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &Client{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

// Complete sends the prompt and returns the model's text response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Task == llm.TaskMindMap {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &llm.APIError{Provider: "openai", Message: "response missing choices"}
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.APIError{Provider: "openai", Message: "empty response content"}
	}
	return content, nil
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return llm.ErrTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &llm.RateLimitedError{RetryAfter: time.Minute}
		}
		return &llm.APIError{Provider: "openai", Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	return &llm.APIError{Provider: "openai", Message: err.Error()}
}

var _ llm.Client = (*Client)(nil)
