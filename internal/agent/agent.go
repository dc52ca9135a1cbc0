// Package agent implements the two roles of a 20 Questions game on top of an
// llm.Generator: the Host, who keeps the secret topic and answers yes or no,
// and the Guesser, who asks narrowing questions.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/logging"
)

// Role tags an agent with its part in the game.
type Role string

// Roles
const (
	RoleHost    Role = "host"
	RoleGuesser Role = "guesser"
)

// Default agent settings
const (
	DefaultHostName          = "IntelligenceBot"
	DefaultGenerationTimeout = 30 * time.Second

	// FallbackTopic is used when the host cannot get a topic from the LLM.
	FallbackTopic = "Quantum supercomputer"

	// MsgLLMProblem is returned by a guesser whose LLM call failed.
	MsgLLMProblem = "Problem interacting with llm"
)

type options struct {
	logger  *logging.Logger
	timeout time.Duration
	topic   string
}

// Option configures a Host or Guesser.
type Option func(*options)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTimeout bounds each LLM call made by the agent.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTopic fixes the host's topic instead of asking the LLM for one.
// Guessers ignore it.
func WithTopic(topic string) Option {
	return func(o *options) {
		o.topic = strings.TrimSpace(topic)
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  logging.NopLogger(),
		timeout: DefaultGenerationTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// cleanReply trims whitespace and any quotes or backticks wrapped around an
// LLM reply.
func cleanReply(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "\"'`"))
}

// normalizeAnswer lowercases a reply and strips surrounding whitespace,
// punctuation and quotes: "Yes." and "'yes'" both become "yes".
func normalizeAnswer(s string) string {
	return strings.TrimFunc(strings.ToLower(s), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '`'
	})
}

// callError classifies a failed LLM call. parent is the caller's context,
// without the per-call timeout: if it is done the call was abandoned,
// otherwise a deadline error means the call itself ran out of time.
func callError(parent context.Context, op string, timeout time.Duration, err error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%s: %w: %w", op, errors.ErrCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError(op, timeout).WithCause(err)
	default:
		return err
	}
}

// logCallError logs err at the level its severity calls for. Abandoned
// calls are expected in a race and log at DEBUG.
func logCallError(logger *logging.Logger, msg string, err error, args ...any) {
	level := errors.GetSeverity(err).LogLevel()
	if errors.Is(err, errors.ErrCanceled) {
		level = logging.LevelDebug
	}
	logger.Log(level, msg, append(args, "error", err)...)
}
