package orchestrator

import (
	"context"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/game"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxRetries is the number of generation attempts per turn in
// single-guesser mode.
const DefaultMaxRetries = 5

// SingleSource asks one guesser repeatedly until it produces a valid question
// or the attempt budget is spent.
type SingleSource struct {
	guesser    QuestionGenerator
	maxRetries int
	bus        *event.Bus
	tracer     trace.Tracer
}

// NewSingleSource creates a source with maxRetries attempts per turn.
// Values below 1 use DefaultMaxRetries.
func NewSingleSource(g QuestionGenerator, maxRetries int, bus *event.Bus, tp trace.TracerProvider) *SingleSource {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return &SingleSource{
		guesser:    g,
		maxRetries: maxRetries,
		bus:        bus,
		tracer:     tracer(tp),
	}
}

// Guessers returns 1.
func (s *SingleSource) Guessers() int { return 1 }

// Next implements QuestionSource.
func (s *SingleSource) Next(ctx context.Context, snap game.Snapshot, sink game.LogSink) (Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "orchestrator.single",
		trace.WithAttributes(
			attribute.String("guesser", s.guesser.Name()),
			attribute.Int("max_retries", s.maxRetries),
		))
	defer span.End()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Candidate{}, err
		}

		ok, msg := s.guesser.GenerateQuestion(ctx, snap, sink)
		if ok {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return Candidate{Agent: s.guesser.Name(), Question: msg}, nil
		}
		publish(s.bus, event.NewQuestionRejectedEvent(snap.GameID, s.guesser.Name(), msg))
	}

	span.SetAttributes(attribute.Int("attempts", s.maxRetries))
	return Candidate{}, errors.Wrapf(errors.ErrGenerationExhausted, "%d attempts failed", s.maxRetries)
}
