package game

import "time"

// LogType classifies an audit log entry.
type LogType string

// Audit log entry types
const (
	LogValidationError LogType = "validation_error"
	LogSimilarityError LogType = "similarity_error"
	LogGameEvent       LogType = "game_event"
	LogQuestion        LogType = "question"
	LogAnswer          LogType = "answer"
)

// concernsQuestion reports whether entries of this type are about a
// question and always record it, even an empty one.
func (t LogType) concernsQuestion() bool {
	return t != LogGameEvent
}

// LogEntry is a single immutable record in a game's audit trail.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      LogType        `json:"type"`
	Message   string         `json:"message"`
	Question  *string        `json:"question"`
	Details   map[string]any `json:"details"`
}

// LogSink receives audit entries. The validator and the agents write
// through it so they never see the rest of the game state.
type LogSink interface {
	AddLog(logType LogType, message, question string, details map[string]any)
}

// NewLogEntry builds an entry stamped with the current time. Empty details
// are recorded as absent, and so is an empty question on a game_event; the
// other types keep the question they were given, so rejecting an empty
// question exports "question": "".
func NewLogEntry(logType LogType, message, question string, details map[string]any) LogEntry {
	entry := LogEntry{
		Timestamp: time.Now(),
		Type:      logType,
		Message:   message,
	}
	if question != "" || logType.concernsQuestion() {
		q := question
		entry.Question = &q
	}
	if len(details) > 0 {
		entry.Details = make(map[string]any, len(details))
		for k, v := range details {
			entry.Details[k] = v
		}
	}
	return entry
}

// DiscardSink is a LogSink that drops every entry.
type DiscardSink struct{}

// AddLog implements LogSink.
func (DiscardSink) AddLog(LogType, string, string, map[string]any) {}
