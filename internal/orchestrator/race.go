package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// msgGuesserPanicked is the rejection reason recorded for a guesser that
// panicked instead of returning.
const msgGuesserPanicked = "guesser panicked"

// RaceSource runs every guesser concurrently and takes the first valid
// question. The losers are canceled and not waited for.
type RaceSource struct {
	guessers []QuestionGenerator
	bus      *event.Bus
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewRaceSource creates a source racing guessers.
func NewRaceSource(guessers []QuestionGenerator, bus *event.Bus, logger *logging.Logger, tp trace.TracerProvider) *RaceSource {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &RaceSource{
		guessers: guessers,
		bus:      bus,
		logger:   logger,
		tracer:   tracer(tp),
	}
}

// Guessers returns the number of racing guessers.
func (r *RaceSource) Guessers() int { return len(r.guessers) }

type raceResult struct {
	agent string
	ok    bool
	msg   string
}

// settledSink forwards audit entries until the race is settled. Entries
// from losers arriving later are dropped so they never follow the turn's
// question and answer in the log.
type settledSink struct {
	mu      sync.Mutex
	sink    game.LogSink
	settled bool
}

func (s *settledSink) AddLog(logType game.LogType, message, question string, details map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settled {
		s.sink.AddLog(logType, message, question, details)
	}
}

func (s *settledSink) settle() {
	s.mu.Lock()
	s.settled = true
	s.mu.Unlock()
}

// Next implements QuestionSource. There is no retry: if every guesser
// fails, the turn fails with errors.ErrNoValidQuestion.
func (r *RaceSource) Next(ctx context.Context, snap game.Snapshot, sink game.LogSink) (Candidate, error) {
	if len(r.guessers) == 0 {
		return Candidate{}, errors.ErrNoGuessers
	}

	ctx, span := r.tracer.Start(ctx, "orchestrator.race",
		trace.WithAttributes(attribute.Int("contenders", len(r.guessers))))
	defer span.End()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	// Buffered so losers finishing after we return never block.
	results := make(chan raceResult, len(r.guessers))
	gate := &settledSink{sink: sink}
	defer gate.settle()

	var wg conc.WaitGroup
	for _, g := range r.guessers {
		wg.Go(func() {
			res := raceResult{agent: g.Name(), msg: msgGuesserPanicked}
			defer func() { results <- res }()
			res.ok, res.msg = g.GenerateQuestion(raceCtx, snap, gate)
		})
	}

	logger := r.logger.WithGame(snap.GameID).WithTurn(snap.QuestionsAsked + 1)
	go func() {
		if rec := wg.WaitAndRecover(); rec != nil {
			logger.Error("guesser panicked during race", "error", rec.AsError())
		}
	}()

	for range len(r.guessers) {
		select {
		case res := <-results:
			if !res.ok {
				publish(r.bus, event.NewQuestionRejectedEvent(snap.GameID, res.agent, res.msg))
				continue
			}

			cancel()
			elapsed := time.Since(start)
			span.SetAttributes(attribute.String("winner", res.agent))
			logger.Debug("race settled", "winner", res.agent, "elapsed", elapsed)
			publish(r.bus, event.NewRaceSettledEvent(snap.GameID, snap.QuestionsAsked+1, res.agent, len(r.guessers), elapsed))
			return Candidate{Agent: res.agent, Question: res.msg}, nil

		case <-ctx.Done():
			return Candidate{}, ctx.Err()
		}
	}

	return Candidate{}, errors.ErrNoValidQuestion
}
