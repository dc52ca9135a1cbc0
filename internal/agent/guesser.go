package agent

import (
	"context"

	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/llm"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/Iron-Ham/twentyq/internal/validator"
)

// Guesser asks the LLM for the next question and screens it before it
// reaches the host. A Guesser holds no per-game state, so one value may
// generate for several racing goroutines at once.
type Guesser struct {
	name      string
	llm       llm.Generator
	validator *validator.Validator
	opts      options
	logger    *logging.Logger
}

// NewGuesser creates a guesser backed by gen. A nil validator gets the
// standard rule set.
func NewGuesser(name string, gen llm.Generator, v *validator.Validator, opts ...Option) *Guesser {
	if v == nil {
		v = validator.New()
	}
	o := buildOptions(opts)
	return &Guesser{
		name:      name,
		llm:       gen,
		validator: v,
		opts:      o,
		logger:    o.logger.WithAgent(name),
	}
}

// Name returns the guesser's display name.
func (g *Guesser) Name() string { return g.name }

// Role returns RoleGuesser.
func (g *Guesser) Role() Role { return RoleGuesser }

// GenerateQuestion produces the next question for snap. It returns
// (true, question) for an acceptable question and (false, reason) when the
// LLM failed or the question was rejected; rejections are recorded in sink.
func (g *Guesser) GenerateQuestion(ctx context.Context, snap game.Snapshot, sink game.LogSink) (bool, string) {
	callCtx, cancel := context.WithTimeout(ctx, g.opts.timeout)
	defer cancel()

	reply, err := g.llm.Generate(callCtx, buildQuestionPrompt(snap))
	if err != nil {
		logCallError(g.logger, "question generation failed", callError(ctx, "question generation", g.opts.timeout, err))
		return false, MsgLLMProblem
	}
	// A reply that lands after the race was settled is dropped unvalidated.
	if ctx.Err() != nil {
		g.logger.Debug("reply arrived after cancellation, discarded")
		return false, MsgLLMProblem
	}
	question := cleanReply(reply)

	if ok, msg := g.validator.IsValidQuestion(question, sink); !ok {
		g.logger.Debug("question rejected", "question", question, "reason", msg)
		return false, msg
	}
	if similar, msg := g.validator.IsSimilarToPrevious(question, snap.Questions, sink); similar {
		g.logger.Debug("question rejected", "question", question, "reason", msg)
		return false, msg
	}

	return true, question
}
