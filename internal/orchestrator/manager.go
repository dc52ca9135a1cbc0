package orchestrator

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/Iron-Ham/twentyq/internal/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Iron-Ham/twentyq/internal/orchestrator"

// Transcript messages
const (
	MsgTurnSkipped = "Turn skipped - no valid question generated"
)

// Defaults for Settings
const (
	DefaultMaxQuestions   = 20
	DefaultMaxFailedTurns = 3
)

// Settings are the rules a Manager enforces.
type Settings struct {
	// Mode is recorded in events and the audit log.
	Mode string
	// MaxQuestions is the question budget; the host wins once it is spent.
	MaxQuestions int
	// MaxFailedTurns is how many consecutive failed turns Run tolerates.
	MaxFailedTurns int
}

// Manager drives a single game. It is not safe for concurrent use; racing
// guessers only touch the state through its concurrency-safe audit log.
type Manager struct {
	host      Host
	source    QuestionSource
	validator *validator.Validator
	settings  Settings
	bus       *event.Bus
	logger    *logging.Logger
	tracer    trace.Tracer

	state        *game.State
	transcript   []string
	failedStreak int
}

// Option configures a Manager.
type Option func(*Manager)

// WithBus publishes game events on bus.
func WithBus(bus *event.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracerProvider records spans with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		m.tracer = tracer(tp)
	}
}

// WithValidator replaces the validator used for guess extraction.
func WithValidator(v *validator.Validator) Option {
	return func(m *Manager) {
		if v != nil {
			m.validator = v
		}
	}
}

// NewManager creates a manager. The game starts with StartGame.
func NewManager(host Host, source QuestionSource, settings Settings, opts ...Option) *Manager {
	if settings.MaxQuestions < 1 {
		settings.MaxQuestions = DefaultMaxQuestions
	}
	if settings.MaxFailedTurns < 0 {
		settings.MaxFailedTurns = DefaultMaxFailedTurns
	}

	m := &Manager{
		host:      host,
		source:    source,
		validator: validator.New(),
		settings:  settings,
		logger:    logging.NopLogger(),
		tracer:    tracer(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current game state, or nil before StartGame.
func (m *Manager) State() *game.State { return m.state }

// Transcript returns a copy of the messages collected by Run.
func (m *Manager) Transcript() []string { return append([]string(nil), m.transcript...) }

// Result summarizes the current game.
func (m *Manager) Result() game.Result {
	if m.state == nil {
		return game.Result{}
	}
	return game.NewResult(m.state, m.transcript)
}

// StartGame begins a fresh game: the host chooses the topic and the first
// turn may be played. Starting again discards the previous game.
func (m *Manager) StartGame(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "orchestrator.start")
	defer span.End()

	state := game.NewState()
	if err := state.SetTopic(m.host.ChooseTopic(ctx)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "topic rejected")
		return errors.NewGameError("failed to start game", err).WithGameID(state.ID())
	}

	m.state = state
	m.transcript = nil
	m.failedStreak = 0

	span.SetAttributes(attribute.String("game.id", state.ID()))
	state.AddLog(game.LogGameEvent, "Game started", "", map[string]any{
		"mode":          m.settings.Mode,
		"guessers":      m.source.Guessers(),
		"max_questions": m.settings.MaxQuestions,
	})
	m.gameLogger().Info("game started", "mode", m.settings.Mode, "guessers", m.source.Guessers())
	publish(m.bus, event.NewGameStartedEvent(state.ID(), m.settings.Mode, m.source.Guessers(), m.settings.MaxQuestions))
	return nil
}

// PlayTurn plays one turn and returns its transcript message.
//
// Once the question budget is spent the next call ends the game in the
// host's favor. A turn whose question could not be produced returns an
// error matching errors.ErrGenerationExhausted and leaves the game as it was.
func (m *Manager) PlayTurn(ctx context.Context) (string, error) {
	if m.state == nil {
		return "", errors.ErrGameNotStarted
	}
	if m.state.GameOver() {
		return "", errors.ErrGameOver
	}

	turn := m.state.QuestionsAsked() + 1
	logger := m.gameLogger().WithTurn(turn)

	ctx, span := m.tracer.Start(ctx, "orchestrator.turn", trace.WithAttributes(
		attribute.String("game.id", m.state.ID()),
		attribute.Int("game.turn", turn),
	))
	defer span.End()

	if m.state.QuestionsAsked() >= m.settings.MaxQuestions {
		msg := fmt.Sprintf("Game Over - Host wins! Question number is over limit (%d).", m.settings.MaxQuestions)
		m.finish(game.WinnerHost, msg)
		span.SetAttributes(attribute.String("game.winner", string(game.WinnerHost)))
		return msg, nil
	}

	candidate, err := m.source.Next(ctx, m.state.Snapshot(m.settings.MaxQuestions), m.state)
	if err != nil {
		m.failedStreak++
		m.state.AddLog(game.LogGameEvent, "Turn failed: no valid question generated", "", map[string]any{
			"turn":  turn,
			"error": err.Error(),
		})
		turnErr := errors.NewGameError("turn could not proceed", err).
			WithGameID(m.state.ID()).
			WithTurn(turn).
			WithSeverity(errors.SeverityWarning)
		logger.Log(errors.GetSeverity(turnErr).LogLevel(), "turn failed", "error", err, "consecutive", m.failedStreak)
		publish(m.bus, event.NewTurnFailedEvent(m.state.ID(), turn, err.Error(), m.failedStreak))

		span.RecordError(err)
		span.SetStatus(codes.Error, "no valid question")
		return "", turnErr
	}
	m.failedStreak = 0

	question := candidate.Question
	topic := m.state.Topic()
	guess, isGuess := m.validator.ExtractGuess(question)
	answer := m.host.AnswerQuestion(ctx, question, topic)

	m.state.RecordTurn(question, answer)
	m.state.AddLog(game.LogQuestion, "Question asked", question, map[string]any{"agent": candidate.Agent, "turn": turn})
	m.state.AddLog(game.LogAnswer, yesNo(answer), question, map[string]any{"turn": turn})
	logger.Info("turn completed", "agent", candidate.Agent, "question", question, "answer", answer)
	publish(m.bus, event.NewTurnCompletedEvent(m.state.ID(), turn, candidate.Agent, question, answer))

	if isGuess && answer && validator.MatchesTopic(guess, topic) {
		msg := fmt.Sprintf("Game Over - Guesser wins! The topic was %s", topic)
		m.finish(game.WinnerGuesser, msg)
		span.SetAttributes(attribute.String("game.winner", string(game.WinnerGuesser)))
		return msg, nil
	}

	return fmt.Sprintf("Q: %s\nA: %s", question, yesNo(answer)), nil
}

// Run plays the game to the end, starting it first if needed, and returns
// the result. A failed turn is played again under the same turn number; in
// race mode this is a fresh race, so MaxFailedTurns is what bounds the
// re-races. More than MaxFailedTurns consecutive failed turns abort the game
// with a critical GameError wrapping the last turn's error; the partial
// result is still returned.
func (m *Manager) Run(ctx context.Context) (game.Result, error) {
	if m.state == nil || m.state.GameOver() {
		if err := m.StartGame(ctx); err != nil {
			return game.Result{}, err
		}
	}

	for !m.state.GameOver() {
		msg, err := m.PlayTurn(ctx)
		if err == nil {
			m.transcript = append(m.transcript, msg)
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			m.state.AddLog(game.LogGameEvent, "Game interrupted", "", nil)
			return m.Result(), fmt.Errorf("game interrupted: %w: %w", errors.ErrCanceled, ctxErr)
		}

		m.transcript = append(m.transcript, MsgTurnSkipped)
		if m.failedStreak > m.settings.MaxFailedTurns {
			m.state.AddLog(game.LogGameEvent, "Game aborted", "", map[string]any{"failed_turns": m.failedStreak})
			aborted := errors.NewGameError(fmt.Sprintf("aborted after %d consecutive failed turns", m.failedStreak), err).
				WithGameID(m.state.ID()).
				WithSeverity(errors.SeverityCritical)
			m.gameLogger().Log(errors.GetSeverity(aborted).LogLevel(), "game aborted", "failed_turns", m.failedStreak, "error", err)
			return m.Result(), aborted
		}
	}

	return m.Result(), nil
}

func (m *Manager) finish(winner game.Winner, msg string) {
	m.state.Finish(winner)
	m.state.AddLog(game.LogGameEvent, msg, "", map[string]any{"winner": string(winner)})
	m.gameLogger().Info("game over", "winner", winner, "questions", m.state.QuestionsAsked())
	publish(m.bus, event.NewGameOverEvent(m.state.ID(), string(winner), m.state.Topic(), m.state.QuestionsAsked(), msg))
}

func (m *Manager) gameLogger() *logging.Logger {
	return m.logger.WithGame(m.state.ID())
}

func yesNo(answer bool) string {
	if answer {
		return "Yes"
	}
	return "No"
}

func publish(bus *event.Bus, e event.Event) {
	if bus != nil {
		bus.Publish(e)
	}
}

func tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}
