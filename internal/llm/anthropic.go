package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/util"
)

const (
	// anthropicAPIURL is the Anthropic Messages API endpoint.
	anthropicAPIURL = "https://api.anthropic.com/v1/messages"

	// anthropicVersion is sent with every request.
	anthropicVersion = "2023-06-01"

	// defaultAnthropicModel is used when no model is configured.
	defaultAnthropicModel = "claude-3-5-haiku-latest"

	// maxErrorBody bounds how much of an error response ends up in messages.
	maxErrorBody = 300
)

// AnthropicClient implements Generator using the Anthropic Messages API.
type AnthropicClient struct {
	apiKey string
	opts   clientOptions
}

// NewAnthropicClient creates a client authenticated with apiKey.
// Returns an error if the API key is empty.
func NewAnthropicClient(apiKey string, opts ...Option) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.NewValidationError("ANTHROPIC_API_KEY not set and llm.api_key empty").
			WithField("llm.api_key")
	}

	o := defaultOptions()
	o.model = defaultAnthropicModel
	o.baseURL = anthropicAPIURL
	for _, opt := range opts {
		opt(&o)
	}

	return &AnthropicClient{apiKey: apiKey, opts: o}, nil
}

// Model returns the model requests are sent to.
func (c *AnthropicClient) Model() string { return c.opts.model }

// messagesRequest is the Anthropic Messages API request structure.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic Messages API response structure.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Generate sends prompt as a single user message and returns the text of
// the first content block.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBytes, err := json.Marshal(messagesRequest{
		Model:     c.opts.model,
		MaxTokens: c.opts.maxTokens,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", c.fail("marshal request", err)
	}

	return withRetry(ctx, c.opts, func(ctx context.Context) (string, error) {
		return c.send(ctx, reqBytes)
	})
}

func (c *AnthropicClient) send(ctx context.Context, reqBytes []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.baseURL, bytes.NewReader(reqBytes))
	if err != nil {
		return "", c.fail("create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return "", c.fail("send request", err).WithRetryable(ctx.Err() == nil)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail("read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp.StatusCode, body)
	}

	var respData messagesResponse
	if err := json.Unmarshal(body, &respData); err != nil {
		return "", c.fail("unmarshal response", err)
	}

	if respData.Error != nil {
		return "", c.fail("API error: "+respData.Error.Message, nil)
	}

	if len(respData.Content) == 0 || strings.TrimSpace(respData.Content[0].Text) == "" {
		return "", c.fail("no content", errors.ErrEmptyResponse)
	}

	return respData.Content[0].Text, nil
}

func (c *AnthropicClient) fail(msg string, cause error) *errors.GenerationError {
	return errors.NewGenerationError(msg, cause).
		WithProvider(config.ProviderAnthropic).
		WithModel(c.opts.model)
}

func (c *AnthropicClient) statusError(code int, body []byte) *errors.GenerationError {
	var cause error
	if code == http.StatusTooManyRequests {
		cause = errors.ErrRateLimited
	}
	msg := fmt.Sprintf("API error: %s", util.TruncateString(strings.TrimSpace(string(body)), maxErrorBody))
	return c.fail(msg, cause).WithStatusCode(code)
}
