// Package orchestrator runs 20 Questions games. A Manager owns one game's
// state, asks a QuestionSource for each turn's question, has the host answer
// it, and decides when the game is over.
package orchestrator

import (
	"context"

	"github.com/Iron-Ham/twentyq/internal/game"
)

// TopicChooser picks the secret topic at the start of a game.
type TopicChooser interface {
	// ChooseTopic always returns a non-empty topic.
	ChooseTopic(ctx context.Context) string
}

// Answerer answers yes/no questions about the topic.
type Answerer interface {
	// AnswerQuestion reports the host's answer. Failures count as "no".
	AnswerQuestion(ctx context.Context, question, topic string) bool
}

// Host is the role that keeps the topic.
type Host interface {
	TopicChooser
	Answerer
}

// QuestionGenerator produces candidate questions. Implementations must be
// safe to call from several goroutines at once.
type QuestionGenerator interface {
	Name() string
	// GenerateQuestion returns (true, question) or (false, reason). Rejected
	// questions are recorded in sink.
	GenerateQuestion(ctx context.Context, snap game.Snapshot, sink game.LogSink) (bool, string)
}

// Candidate is a question accepted by a QuestionSource.
type Candidate struct {
	Agent    string
	Question string
}

// QuestionSource decides how a turn's question is obtained from the guessers.
type QuestionSource interface {
	// Next returns a valid question for the game described by snap, or an
	// error matching errors.ErrGenerationExhausted when none was produced.
	Next(ctx context.Context, snap game.Snapshot, sink game.LogSink) (Candidate, error)
	// Guessers returns the number of guessers taking part.
	Guessers() int
}
