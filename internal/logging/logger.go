package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level names accepted in configuration and by Log.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the name of the debug log inside a game output directory.
const LogFileName = "debug.log"

// output is the destination shared by a root Logger and all of its children.
type output struct {
	mu   sync.Mutex
	file *os.File // nil unless the logger owns a debug.log
}

// Logger writes JSON log lines tagged with game, turn and agent. Children
// created with WithGame, WithTurn, WithAgent or With share the parent's
// output. It is safe for concurrent use.
type Logger struct {
	slog *slog.Logger
	out  *output
}

// NewLogger appends JSON lines to {dir}/debug.log, creating dir as needed.
// An empty dir logs to stderr. Entries below level are dropped.
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := NewWriterLogger(file, level)
	l.out.file = file
	return l, nil
}

// NewWriterLogger writes JSON lines to w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: toSlog(level)})
	return &Logger{slog: slog.New(h), out: &output{}}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return NewWriterLogger(io.Discard, LevelError)
}

func toSlog(level string) slog.Level {
	switch ParseLevel(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel normalizes a level name; anything unrecognized is INFO.
func ParseLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case LevelDebug, LevelWarn, LevelError:
		return l
	default:
		return LevelInfo
	}
}

// WithGame tags every entry with game_id.
func (l *Logger) WithGame(gameID string) *Logger {
	return l.With("game_id", gameID)
}

// WithAgent tags every entry with the agent name.
func (l *Logger) WithAgent(name string) *Logger {
	return l.With("agent", name)
}

// WithTurn tags every entry with the turn number.
func (l *Logger) WithTurn(turn int) *Logger {
	return l.With("turn", turn)
}

// With tags every entry with the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{slog: l.slog.With(args...), out: l.out}
}

func (l *Logger) Debug(msg string, args ...any) { l.emit(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.emit(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.emit(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.emit(slog.LevelError, msg, args) }

// Log logs at a level chosen at run time, e.g. from an error's severity.
// Unknown names log at INFO.
func (l *Logger) Log(level string, msg string, args ...any) {
	l.emit(toSlog(level), msg, args)
}

func (l *Logger) emit(level slog.Level, msg string, args []any) {
	l.slog.Log(context.Background(), level, msg, args...)
}

// Close syncs and closes debug.log. Closing any logger in a family closes
// the shared file; loggers without a file are unaffected.
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file == nil {
		return nil
	}
	f := l.out.file
	l.out.file = nil
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
