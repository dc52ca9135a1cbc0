// Package errors provides centralized error definitions and error handling utilities
// for twentyq. It defines domain-specific errors, semantic error types, error
// constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent failures from specific subsystems:
//   - GenerationError: a call to the LLM capability failed
//   - GameError: the game state machine refused an operation
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or configuration
//   - TimeoutError: operation timed out
//
// # Usage
//
//	err := errors.NewGenerationError("request failed", cause).
//		WithProvider("anthropic").
//		WithStatusCode(429)
//
//	if errors.Is(err, errors.ErrGenerationFailed) { ... }
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// LogLevel maps the severity onto a logging level name. Critical errors log
// at ERROR.
func (s Severity) LogLevel() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARN"
	default:
		return "ERROR"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Generation-related sentinel errors
var (
	// ErrGenerationFailed indicates that the LLM capability returned an error.
	ErrGenerationFailed = New("generation failed")
	// ErrRateLimited indicates that the provider rejected the call with a rate limit.
	ErrRateLimited = New("rate limit exceeded")
	// ErrEmptyResponse indicates that the provider answered without any text.
	ErrEmptyResponse = New("empty response from provider")
	// ErrGenerationExhausted indicates that every retry attempt or every raced
	// guesser failed to produce a usable question.
	ErrGenerationExhausted = New("question generation exhausted")
	// ErrNoValidQuestion indicates that a race finished without a valid question.
	// It matches ErrGenerationExhausted under errors.Is.
	ErrNoValidQuestion = fmt.Errorf("no valid question generated: %w", ErrGenerationExhausted)
)

// Game-related sentinel errors
var (
	// ErrGameNotStarted indicates that a turn was requested before the game started.
	ErrGameNotStarted = New("game not started")
	// ErrGameOver indicates that a turn was requested after the game ended.
	ErrGameOver = New("game is over")
	// ErrTopicAlreadySet indicates an attempt to change the secret topic.
	ErrTopicAlreadySet = New("topic already set")
	// ErrNoGuessers indicates that a game was configured without guessers.
	ErrNoGuessers = New("no guesser agents configured")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was abandoned because its caller
	// went away, e.g. a guesser that lost the race.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// QuestError is the base interface for all twentyq errors.
type QuestError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) IsRetryable() bool {
	return e.retryable
}

func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// GenerationError represents a failed call to the LLM capability.
// It always matches ErrGenerationFailed under errors.Is.
//
// Example:
//
//	err := errors.NewGenerationError("rate limited", errors.ErrRateLimited).
//		WithProvider("anthropic").WithStatusCode(429)
//	fmt.Println(err) // "generation error [provider=anthropic, status=429]: rate limited: rate limit exceeded"
type GenerationError struct {
	baseError
	Provider   string
	Model      string
	StatusCode int
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(message string, cause error) *GenerationError {
	return &GenerationError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  Is(cause, ErrRateLimited),
			userFacing: false,
		},
	}
}

// WithProvider adds the provider name to the error context.
func (e *GenerationError) WithProvider(provider string) *GenerationError {
	e.Provider = provider
	return e
}

// WithModel adds the model identifier to the error context.
func (e *GenerationError) WithModel(model string) *GenerationError {
	e.Model = model
	return e
}

// WithStatusCode records the HTTP status. 429 and 5xx responses are retryable.
func (e *GenerationError) WithStatusCode(code int) *GenerationError {
	e.StatusCode = code
	if code == 429 || code >= 500 {
		e.retryable = true
	}
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *GenerationError) WithRetryable(r bool) *GenerationError {
	e.retryable = r
	return e
}

func (e *GenerationError) Error() string {
	var parts []string
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	prefix := "generation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("generation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is matches any *GenerationError and ErrGenerationFailed, then defers to the cause.
func (e *GenerationError) Is(target error) bool {
	if _, ok := target.(*GenerationError); ok {
		return true
	}
	if target == ErrGenerationFailed {
		return true
	}
	return e.baseError.Is(target)
}

// GameError represents a refused game state transition or a turn that could
// not proceed.
//
// Example:
//
//	err := errors.NewGameError("turn could not proceed", errors.ErrNoValidQuestion).
//		WithGameID("4f1c...").WithTurn(7)
type GameError struct {
	baseError
	GameID string
	Turn   int
}

// NewGameError creates a new GameError.
func NewGameError(message string, cause error) *GameError {
	return &GameError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithGameID adds the game ID to the error context.
func (e *GameError) WithGameID(id string) *GameError {
	e.GameID = id
	return e
}

// WithTurn adds the turn number to the error context.
func (e *GameError) WithTurn(turn int) *GameError {
	e.Turn = turn
	return e
}

// WithSeverity sets the error severity.
func (e *GameError) WithSeverity(s Severity) *GameError {
	e.severity = s
	return e
}

func (e *GameError) Error() string {
	var parts []string
	if e.GameID != "" {
		parts = append(parts, fmt.Sprintf("game=%s", e.GameID))
	}
	if e.Turn > 0 {
		parts = append(parts, fmt.Sprintf("turn=%d", e.Turn))
	}

	prefix := "game error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("game error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is matches any *GameError, then defers to the cause.
func (e *GameError) Is(target error) bool {
	if _, ok := target.(*GameError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or configuration.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField sets the name of the offending field.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue records the offending value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause sets the underlying cause.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error")
	if e.Field != "" {
		fmt.Fprintf(&b, " [field=%s]", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.message)
	if e.Value != nil {
		fmt.Fprintf(&b, " (got: %v)", e.Value)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Is matches any *ValidationError and ErrInvalidInput, then defers to the cause.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that exceeded its deadline.
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError. Timeouts are retryable by default.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    "operation timed out",
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause sets the underlying cause.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s timed out after %v", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is matches any *TimeoutError and ErrTimeout, then defers to the cause.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable reports whether err, or any error it wraps, is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var qe QuestError
	if As(err, &qe) {
		return qe.IsRetryable()
	}
	return Is(err, ErrRateLimited) || Is(err, ErrTimeout)
}

// IsUserFacing reports whether the error message is safe to show users.
// Unknown errors are treated as internal.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var qe QuestError
	if As(err, &qe) {
		return qe.IsUserFacing()
	}
	switch {
	case Is(err, ErrGameOver), Is(err, ErrGameNotStarted), Is(err, ErrGenerationExhausted):
		return true
	}
	return false
}

// GetSeverity returns the severity of err, or SeverityError for unknown errors.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var qe QuestError
	if As(err, &qe) {
		return qe.Severity()
	}
	return SeverityError
}

// Wrap annotates err with message. Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
