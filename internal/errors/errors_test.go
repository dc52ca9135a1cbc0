package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeverity_LogLevel(t *testing.T) {
	tests := map[Severity]string{
		SeverityDebug:    "DEBUG",
		SeverityInfo:     "INFO",
		SeverityWarning:  "WARN",
		SeverityError:    "ERROR",
		SeverityCritical: "ERROR",
	}
	for severity, want := range tests {
		if got := severity.LogLevel(); got != want {
			t.Errorf("%v.LogLevel() = %q, want %q", severity, got, want)
		}
	}
}

// -----------------------------------------------------------------------------
// GenerationError Tests
// -----------------------------------------------------------------------------

func TestGenerationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *GenerationError
		want string
	}{
		{
			name: "basic error",
			err:  NewGenerationError("request failed", nil),
			want: "generation error: request failed",
		},
		{
			name: "with cause",
			err:  NewGenerationError("request failed", ErrEmptyResponse),
			want: "generation error: request failed: empty response from provider",
		},
		{
			name: "with context",
			err:  NewGenerationError("rate limited", nil).WithProvider("anthropic").WithStatusCode(429),
			want: "generation error [provider=anthropic, status=429]: rate limited",
		},
		{
			name: "with model",
			err:  NewGenerationError("boom", nil).WithProvider("openai").WithModel("llama"),
			want: "generation error [provider=openai, model=llama]: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerationError_Is(t *testing.T) {
	err := NewGenerationError("failed", ErrRateLimited)

	if !Is(err, ErrGenerationFailed) {
		t.Error("Is(ErrGenerationFailed) = false, want true")
	}
	if !Is(err, &GenerationError{}) {
		t.Error("Is(GenerationError{}) = false, want true")
	}
	if !Is(err, ErrRateLimited) {
		t.Error("Is(ErrRateLimited) = false, want true")
	}
	if Is(err, ErrGameOver) {
		t.Error("Is(ErrGameOver) = true, want false")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var ge *GenerationError
	if !As(wrapped, &ge) {
		t.Fatal("As(*GenerationError) = false, want true")
	}
}

func TestGenerationError_Retryable(t *testing.T) {
	tests := []struct {
		name string
		err  *GenerationError
		want bool
	}{
		{"plain", NewGenerationError("x", nil), false},
		{"rate limit cause", NewGenerationError("x", ErrRateLimited), true},
		{"429", NewGenerationError("x", nil).WithStatusCode(429), true},
		{"503", NewGenerationError("x", nil).WithStatusCode(503), true},
		{"400", NewGenerationError("x", nil).WithStatusCode(400), false},
		{"forced", NewGenerationError("x", nil).WithRetryable(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// GameError Tests
// -----------------------------------------------------------------------------

func TestGameError(t *testing.T) {
	err := NewGameError("turn could not proceed", ErrNoValidQuestion).
		WithGameID("g-1").
		WithTurn(4)

	want := "game error [game=g-1, turn=4]: turn could not proceed: no valid question generated: question generation exhausted"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrNoValidQuestion) {
		t.Error("Is(ErrNoValidQuestion) = false, want true")
	}
	if !Is(err, ErrGenerationExhausted) {
		t.Error("Is(ErrGenerationExhausted) = false, want true")
	}
	if !Is(err, &GameError{}) {
		t.Error("Is(GameError{}) = false, want true")
	}
	if !IsUserFacing(err) {
		t.Error("IsUserFacing() = false, want true")
	}
	if got := GetSeverity(err.WithSeverity(SeverityCritical)); got != SeverityCritical {
		t.Errorf("GetSeverity() = %v, want %v", got, SeverityCritical)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("must be positive").WithField("game.max_questions").WithValue(-1)

	want := "validation error [field=game.max_questions]: must be positive (got: -1)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(err), SeverityWarning)
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("generate question", 30*time.Second)

	if got := err.Error(); got != "generate question timed out after 30s" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestClassification_PlainErrors(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Error("GetSeverity(nil) should be debug")
	}

	plain := errors.New("boom")
	if IsRetryable(plain) {
		t.Error("IsRetryable(plain) = true")
	}
	if IsUserFacing(plain) {
		t.Error("IsUserFacing(plain) = true")
	}
	if GetSeverity(plain) != SeverityError {
		t.Error("GetSeverity(plain) should be error")
	}

	if !IsRetryable(fmt.Errorf("wrapped: %w", ErrRateLimited)) {
		t.Error("wrapped ErrRateLimited should be retryable")
	}
	if !IsUserFacing(Wrap(ErrGameOver, "play turn")) {
		t.Error("wrapped ErrGameOver should be user facing")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}

	err := Wrapf(ErrGameOver, "turn %d", 3)
	if err.Error() != "turn 3: game is over" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, ErrGameOver) {
		t.Error("Wrapf should preserve the chain")
	}
}
