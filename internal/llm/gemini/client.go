package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"documind-backend/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client implements llm.Client using the Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient constructs a Gemini-backed completion client.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: c, model: model, timeout: timeout}, nil
}

// Complete sends the prompt and returns the model's text response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var config *genai.GenerateContentConfig
	if req.Task == llm.TaskMindMap {
		config = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}, config)
	if err != nil {
		return "", c.mapError(err)
	}

	text := strings.TrimSpace(res.Text())
	if text == "" {
		return "", &llm.APIError{Provider: "gemini", Message: "empty response"}
	}
	return text, nil
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.ErrTimeout
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			return &llm.RateLimitedError{RetryAfter: time.Minute}
		}
		return &llm.APIError{Provider: "gemini", Status: apiErr.Code, Message: apiErr.Message}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "429") {
		return &llm.RateLimitedError{RetryAfter: time.Minute}
	}
	return &llm.APIError{Provider: "gemini", Message: err.Error()}
}

var _ llm.Client = (*Client)(nil)
