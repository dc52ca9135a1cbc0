package game

import (
	"slices"
	"strings"
	"sync"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/google/uuid"
)

// Winner identifies who won a finished game.
type Winner string

// Possible winners
const (
	WinnerNone    Winner = ""
	WinnerHost    Winner = "host"
	WinnerGuesser Winner = "guesser"
)

// State is the state of a single game.
//
// Everything except the audit log is mutated only by the game manager's
// goroutine. The audit log is appended to from racing guessers as well and
// is guarded by its own mutex.
type State struct {
	id                string
	topic             string
	questionsAsked    int
	previousQuestions []string
	previousAnswers   []bool
	gameOver          bool
	winner            Winner

	logMu     sync.Mutex
	errorLogs []LogEntry
}

// NewState creates an empty game with a fresh ID.
func NewState() *State {
	return &State{
		id:                uuid.NewString(),
		previousQuestions: make([]string, 0),
		previousAnswers:   make([]bool, 0),
		errorLogs:         make([]LogEntry, 0),
	}
}

// ID returns the game's unique identifier.
func (s *State) ID() string { return s.id }

// Topic returns the secret topic, or "" before it was chosen.
func (s *State) Topic() string { return s.topic }

// QuestionsAsked returns the number of completed turns.
func (s *State) QuestionsAsked() int { return s.questionsAsked }

// PreviousQuestions returns a copy of the accepted questions in order.
func (s *State) PreviousQuestions() []string { return slices.Clone(s.previousQuestions) }

// PreviousAnswers returns a copy of the host's answers in order.
func (s *State) PreviousAnswers() []bool { return slices.Clone(s.previousAnswers) }

// GameOver reports whether a winner has been decided.
func (s *State) GameOver() bool { return s.gameOver }

// Winner returns the winner, or WinnerNone while the game is running.
func (s *State) Winner() Winner { return s.winner }

// SetTopic fixes the secret topic. It can be called only once.
func (s *State) SetTopic(topic string) error {
	if s.topic != "" {
		return errors.ErrTopicAlreadySet
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.NewValidationError("topic must not be empty").WithField("topic")
	}
	s.topic = topic
	return nil
}

// RecordTurn appends an accepted question and its answer.
func (s *State) RecordTurn(question string, answer bool) {
	s.previousQuestions = append(s.previousQuestions, question)
	s.previousAnswers = append(s.previousAnswers, answer)
	s.questionsAsked++
}

// Finish ends the game. The first call wins; later calls are ignored.
func (s *State) Finish(winner Winner) {
	if s.gameOver || winner == WinnerNone {
		return
	}
	s.gameOver = true
	s.winner = winner
}

// AddLog appends an entry to the audit trail. Safe for concurrent use.
func (s *State) AddLog(logType LogType, message, question string, details map[string]any) {
	entry := NewLogEntry(logType, message, question, details)

	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.errorLogs = append(s.errorLogs, entry)
}

// Logs returns a copy of the audit trail.
func (s *State) Logs() []LogEntry {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return slices.Clone(s.errorLogs)
}

// Snapshot is an immutable view of the game handed to guessers. It never
// carries the topic.
type Snapshot struct {
	GameID         string
	QuestionsAsked int
	MaxQuestions   int
	Questions      []string
	Answers        []bool
}

// Snapshot copies the transcript so guessers can build prompts while the
// manager keeps ownership of the state.
func (s *State) Snapshot(maxQuestions int) Snapshot {
	return Snapshot{
		GameID:         s.id,
		QuestionsAsked: s.questionsAsked,
		MaxQuestions:   maxQuestions,
		Questions:      slices.Clone(s.previousQuestions),
		Answers:        slices.Clone(s.previousAnswers),
	}
}
