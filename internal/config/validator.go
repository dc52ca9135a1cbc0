package config

import (
	"fmt"
	"net"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "game.max_questions")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateLLM()...)
	errors = append(errors, c.validateGame()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateServe()...)

	return errors
}

func (c *Config) validateLLM() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidProviders(), c.LLM.Provider) {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Value:   c.LLM.Provider,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProviders(), ", ")),
		})
	}

	if c.LLM.MaxTokens < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Value:   c.LLM.MaxTokens,
			Message: "must be at least 1",
		})
	}

	if c.LLM.RequestTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.request_timeout",
			Value:   c.LLM.RequestTimeout,
			Message: "must be positive",
		})
	}

	if c.LLM.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_retries",
			Value:   c.LLM.MaxRetries,
			Message: "must be non-negative",
		})
	}

	if c.LLM.BaseURL != "" && !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Value:   c.LLM.BaseURL,
			Message: "must start with http:// or https://",
		})
	}

	return errors
}

func (c *Config) validateGame() []ValidationError {
	var errors []ValidationError

	if !IsValidMode(c.Game.Mode) {
		errors = append(errors, ValidationError{
			Field:   "game.mode",
			Value:   c.Game.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidModes(), ", ")),
		})
	}

	if c.Game.NumAgents < 1 {
		errors = append(errors, ValidationError{
			Field:   "game.num_agents",
			Value:   c.Game.NumAgents,
			Message: "must be at least 1",
		})
	}

	if c.Game.MaxQuestions < 1 {
		errors = append(errors, ValidationError{
			Field:   "game.max_questions",
			Value:   c.Game.MaxQuestions,
			Message: "must be at least 1",
		})
	}

	if c.Game.MaxRetries < 1 {
		errors = append(errors, ValidationError{
			Field:   "game.max_retries",
			Value:   c.Game.MaxRetries,
			Message: "must be at least 1",
		})
	}

	if c.Game.GenerationTimeout < time.Second {
		errors = append(errors, ValidationError{
			Field:   "game.generation_timeout",
			Value:   c.Game.GenerationTimeout,
			Message: "must be at least 1s",
		})
	}

	if c.Game.MaxFailedTurns < 0 {
		errors = append(errors, ValidationError{
			Field:   "game.max_failed_turns",
			Value:   c.Game.MaxFailedTurns,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "output.dir",
			Value:   c.Output.Dir,
			Message: "must not be empty",
		})
	}

	files := map[string]string{
		"output.error_log_file": c.Output.ErrorLogFile,
		"output.result_file":    c.Output.ResultFile,
	}
	for _, field := range []string{"output.error_log_file", "output.result_file"} {
		name := files[field]
		if name == "" || filepath.Base(name) != name {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   name,
				Message: "must be a plain file name",
			})
		}
	}

	if c.Output.ErrorLogFile != "" && c.Output.ErrorLogFile == c.Output.ResultFile {
		errors = append(errors, ValidationError{
			Field:   "output.result_file",
			Value:   c.Output.ResultFile,
			Message: "must differ from output.error_log_file",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateServe() []ValidationError {
	var errors []ValidationError

	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		errors = append(errors, ValidationError{
			Field:   "serve.addr",
			Value:   c.Serve.Addr,
			Message: "must be a host:port address",
		})
	}

	return errors
}
