package orchestrator

import (
	"fmt"

	"github.com/Iron-Ham/twentyq/internal/agent"
	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/llm"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/Iron-Ham/twentyq/internal/validator"
	"go.opentelemetry.io/otel/trace"
)

// SingleGuesserName is the guesser's name in single mode.
const SingleGuesserName = "Test Guesser"

// Deps are the shared collaborators handed to every game built by Build.
type Deps struct {
	Generator      llm.Generator
	Bus            *event.Bus
	Logger         *logging.Logger
	TracerProvider trace.TracerProvider
}

// GuesserName returns the name of the i-th racing guesser.
func GuesserName(i int) string {
	return fmt.Sprintf("Player_%d", i)
}

// Build wires a Manager for cfg: a host, one guesser with bounded retry in
// single mode, or cfg.NumAgents racing guessers in multi mode. All agents
// share deps.Generator.
func Build(cfg config.GameConfig, deps Deps) (*Manager, error) {
	if deps.Generator == nil {
		return nil, errors.NewValidationError("an LLM generator is required").WithField("generator")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	v := validator.New()
	agentOpts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithTimeout(cfg.GenerationTimeout),
	}
	host := agent.NewHost(agent.DefaultHostName, deps.Generator, append(agentOpts, agent.WithTopic(cfg.Topic))...)

	var source QuestionSource
	switch cfg.Mode {
	case config.ModeSingle, "":
		g := agent.NewGuesser(SingleGuesserName, deps.Generator, v, agentOpts...)
		source = NewSingleSource(g, cfg.MaxRetries, deps.Bus, deps.TracerProvider)
	case config.ModeMulti:
		if cfg.NumAgents < 1 {
			return nil, errors.ErrNoGuessers
		}
		guessers := make([]QuestionGenerator, cfg.NumAgents)
		for i := range guessers {
			guessers[i] = agent.NewGuesser(GuesserName(i), deps.Generator, v, agentOpts...)
		}
		source = NewRaceSource(guessers, deps.Bus, logger, deps.TracerProvider)
	default:
		return nil, errors.NewValidationError("unknown game mode").WithField("game.mode").WithValue(cfg.Mode)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = config.ModeSingle
	}
	return NewManager(host, source, Settings{
		Mode:           mode,
		MaxQuestions:   cfg.MaxQuestions,
		MaxFailedTurns: cfg.MaxFailedTurns,
	},
		WithBus(deps.Bus),
		WithLogger(logger),
		WithTracerProvider(deps.TracerProvider),
		WithValidator(v),
	), nil
}
