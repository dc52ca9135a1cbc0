package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/util"
)

const (
	// openAIAPIURL is the OpenAI chat completions endpoint. Groq and most
	// local servers expose the same API under their own base URL.
	openAIAPIURL = "https://api.openai.com/v1/chat/completions"

	defaultOpenAIModel = "gpt-4o-mini"

	chatTemperature = 0.8
)

// OpenAIClient implements Generator against an OpenAI-compatible chat
// completions endpoint.
type OpenAIClient struct {
	apiKey string
	opts   clientOptions
}

// NewOpenAIClient creates a client authenticated with apiKey.
func NewOpenAIClient(apiKey string, opts ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.NewValidationError("OPENAI_API_KEY not set and llm.api_key empty").
			WithField("llm.api_key")
	}

	o := defaultOptions()
	o.model = defaultOpenAIModel
	o.baseURL = openAIAPIURL
	for _, opt := range opts {
		opt(&o)
	}
	if !strings.HasSuffix(o.baseURL, "/chat/completions") {
		o.baseURL = strings.TrimSuffix(o.baseURL, "/") + "/chat/completions"
	}

	return &OpenAIClient{apiKey: apiKey, opts: o}, nil
}

// Model returns the model requests are sent to.
func (c *OpenAIClient) Model() string { return c.opts.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends prompt as a single user message.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	buf, err := json.Marshal(chatRequest{
		Model:       c.opts.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.opts.maxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return "", c.fail("marshal request", err)
	}

	return withRetry(ctx, c.opts, func(ctx context.Context) (string, error) {
		return c.send(ctx, buf)
	})
}

func (c *OpenAIClient) send(ctx context.Context, buf []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.baseURL, bytes.NewReader(buf))
	if err != nil {
		return "", c.fail("create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.httpClient.Do(req)
	if err != nil {
		return "", c.fail("send request", err).WithRetryable(ctx.Err() == nil)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var body bytes.Buffer
		_, _ = body.ReadFrom(resp.Body)
		var cause error
		if resp.StatusCode == http.StatusTooManyRequests {
			cause = errors.ErrRateLimited
		}
		msg := fmt.Sprintf("API error: %s", util.TruncateString(strings.TrimSpace(body.String()), maxErrorBody))
		return "", c.fail(msg, cause).WithStatusCode(resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", c.fail("decode response", err)
	}

	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", c.fail("no choices returned", errors.ErrEmptyResponse)
	}
	return cr.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) fail(msg string, cause error) *errors.GenerationError {
	return errors.NewGenerationError(msg, cause).
		WithProvider(config.ProviderOpenAI).
		WithModel(c.opts.model)
}
