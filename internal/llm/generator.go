// Package llm provides the text generation capability the agents are built on.
//
// Two HTTP clients are included: [AnthropicClient] for the Anthropic Messages
// API and [OpenAIClient] for any OpenAI-compatible chat completions endpoint
// (OpenAI, Groq, a local server). Both retry rate limits and server errors
// with exponential backoff and report every failure as a
// *errors.GenerationError.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/errors"
)

//go:generate go tool mockgen -destination=./mocks/generator_mock.go -package=mocks . Generator

// Generator produces a completion for a single-turn prompt.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 1024
	defaultRetries   = 3
	defaultBackoff   = 500 * time.Millisecond
	maxBackoff       = 8 * time.Second
)

// clientOptions holds settings shared by every client.
type clientOptions struct {
	model      string
	baseURL    string
	maxTokens  int
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
}

func defaultOptions() clientOptions {
	return clientOptions{
		maxTokens:  defaultMaxTokens,
		maxRetries: defaultRetries,
		backoff:    defaultBackoff,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Option configures a client.
type Option func(*clientOptions)

// WithModel sets the model to use. Empty keeps the provider default.
func WithModel(model string) Option {
	return func(o *clientOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint. Empty keeps the provider default.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(o *clientOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithBackoff sets the delay before the first retry. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(o *clientOptions) {
		o.backoff = d
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client entirely.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// NewFromConfig builds the client selected by cfg.Provider.
func NewFromConfig(cfg config.LLMConfig, extra ...Option) (Generator, error) {
	apiKey := cfg.ResolvedAPIKey()
	opts := append([]Option{
		WithModel(cfg.Model),
		WithBaseURL(cfg.BaseURL),
		WithMaxTokens(cfg.MaxTokens),
		WithMaxRetries(cfg.MaxRetries),
		WithTimeout(cfg.RequestTimeout),
	}, extra...)

	switch cfg.Provider {
	case config.ProviderAnthropic, "":
		c, err := NewAnthropicClient(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderOpenAI:
		c, err := NewOpenAIClient(apiKey, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported provider %q", cfg.Provider)).
			WithField("llm.provider").
			WithValue(cfg.Provider)
	}
}
