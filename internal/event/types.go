package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "game.started", "turn.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers
const (
	TypeGameStarted      = "game.started"
	TypeQuestionRejected = "question.rejected"
	TypeRaceSettled      = "race.settled"
	TypeTurnCompleted    = "turn.completed"
	TypeTurnFailed       = "turn.failed"
	TypeGameOver         = "game.over"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Game Lifecycle Events
// -----------------------------------------------------------------------------

// GameStartedEvent is emitted once the host has chosen a topic.
// The topic itself is never part of the event.
type GameStartedEvent struct {
	baseEvent
	GameID       string `json:"game_id"`
	Mode         string `json:"mode"`
	Guessers     int    `json:"guessers"`
	MaxQuestions int    `json:"max_questions"`
}

// NewGameStartedEvent creates a GameStartedEvent.
func NewGameStartedEvent(gameID, mode string, guessers, maxQuestions int) GameStartedEvent {
	return GameStartedEvent{
		baseEvent:    newBaseEvent(TypeGameStarted),
		GameID:       gameID,
		Mode:         mode,
		Guessers:     guessers,
		MaxQuestions: maxQuestions,
	}
}

// GameOverEvent is emitted when a game reaches a terminal state.
type GameOverEvent struct {
	baseEvent
	GameID         string `json:"game_id"`
	Winner         string `json:"winner"`
	Topic          string `json:"topic"`
	QuestionsAsked int    `json:"questions_asked"`
	Message        string `json:"message"`
}

// NewGameOverEvent creates a GameOverEvent.
func NewGameOverEvent(gameID, winner, topic string, questionsAsked int, message string) GameOverEvent {
	return GameOverEvent{
		baseEvent:      newBaseEvent(TypeGameOver),
		GameID:         gameID,
		Winner:         winner,
		Topic:          topic,
		QuestionsAsked: questionsAsked,
		Message:        message,
	}
}

// -----------------------------------------------------------------------------
// Turn Events
// -----------------------------------------------------------------------------

// QuestionRejectedEvent is emitted when a guesser's attempt produced no
// usable question, either because validation failed or the LLM call did.
type QuestionRejectedEvent struct {
	baseEvent
	GameID string `json:"game_id"`
	Agent  string `json:"agent"`
	Reason string `json:"reason"`
}

// NewQuestionRejectedEvent creates a QuestionRejectedEvent.
func NewQuestionRejectedEvent(gameID, agent, reason string) QuestionRejectedEvent {
	return QuestionRejectedEvent{
		baseEvent: newBaseEvent(TypeQuestionRejected),
		GameID:    gameID,
		Agent:     agent,
		Reason:    reason,
	}
}

// RaceSettledEvent is emitted when one of several racing guessers wins a turn.
type RaceSettledEvent struct {
	baseEvent
	GameID     string `json:"game_id"`
	Turn       int    `json:"turn"`
	Winner     string `json:"winner"`
	Contenders int    `json:"contenders"`
	ElapsedMS  int64  `json:"elapsed_ms"`
}

// NewRaceSettledEvent creates a RaceSettledEvent.
func NewRaceSettledEvent(gameID string, turn int, winner string, contenders int, elapsed time.Duration) RaceSettledEvent {
	return RaceSettledEvent{
		baseEvent:  newBaseEvent(TypeRaceSettled),
		GameID:     gameID,
		Turn:       turn,
		Winner:     winner,
		Contenders: contenders,
		ElapsedMS:  elapsed.Milliseconds(),
	}
}

// TurnCompletedEvent is emitted after the host answered an accepted question.
type TurnCompletedEvent struct {
	baseEvent
	GameID   string `json:"game_id"`
	Turn     int    `json:"turn"`
	Agent    string `json:"agent"`
	Question string `json:"question"`
	Answer   bool   `json:"answer"`
}

// NewTurnCompletedEvent creates a TurnCompletedEvent.
func NewTurnCompletedEvent(gameID string, turn int, agent, question string, answer bool) TurnCompletedEvent {
	return TurnCompletedEvent{
		baseEvent: newBaseEvent(TypeTurnCompleted),
		GameID:    gameID,
		Turn:      turn,
		Agent:     agent,
		Question:  question,
		Answer:    answer,
	}
}

// TurnFailedEvent is emitted when no valid question could be produced for a turn.
type TurnFailedEvent struct {
	baseEvent
	GameID      string `json:"game_id"`
	Turn        int    `json:"turn"`
	Reason      string `json:"reason"`
	Consecutive int    `json:"consecutive"`
}

// NewTurnFailedEvent creates a TurnFailedEvent.
func NewTurnFailedEvent(gameID string, turn int, reason string, consecutive int) TurnFailedEvent {
	return TurnFailedEvent{
		baseEvent:   newBaseEvent(TypeTurnFailed),
		GameID:      gameID,
		Turn:        turn,
		Reason:      reason,
		Consecutive: consecutive,
	}
}
