package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/testutil"
)

func TestRaceSource_SecondGuesserWins(t *testing.T) {
	canceled := make(chan struct{})

	invalid := &fakeGuesser{name: "Player_0", fn: func(_ context.Context, _ game.Snapshot, sink game.LogSink) (bool, string) {
		sink.AddLog(game.LogValidationError, "bad", "what?", nil)
		return false, "Question starts with '^what', it's mostly not a valid question"
	}}
	winner := &fakeGuesser{name: "Player_1", fn: func(context.Context, game.Snapshot, game.LogSink) (bool, string) {
		time.Sleep(10 * time.Millisecond)
		return true, "Is it a machine?"
	}}
	slow := &fakeGuesser{name: "Player_2", fn: func(ctx context.Context, _ game.Snapshot, _ game.LogSink) (bool, string) {
		<-ctx.Done()
		close(canceled)
		return false, "Problem interacting with llm"
	}}

	bus := event.NewBus(nil)
	var settled []event.RaceSettledEvent
	var rejected []string
	bus.Subscribe(event.TypeRaceSettled, func(e event.Event) { settled = append(settled, e.(event.RaceSettledEvent)) })
	bus.Subscribe(event.TypeQuestionRejected, func(e event.Event) {
		rejected = append(rejected, e.(event.QuestionRejectedEvent).Agent)
	})

	state := game.NewState()
	src := NewRaceSource([]QuestionGenerator{invalid, winner, slow}, bus, nil, nil)

	got, err := src.Next(context.Background(), state.Snapshot(20), state)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got.Agent != "Player_1" || got.Question != "Is it a machine?" {
		t.Errorf("Next() = %+v, want Player_1's question", got)
	}

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("losing guesser was not canceled")
	}

	if len(settled) != 1 || settled[0].Winner != "Player_1" || settled[0].Contenders != 3 || settled[0].Turn != 1 {
		t.Errorf("settled events = %+v", settled)
	}
	if len(rejected) != 1 || rejected[0] != "Player_0" {
		t.Errorf("rejected = %v, want [Player_0]", rejected)
	}
	if len(state.Logs()) != 1 {
		t.Errorf("got %d audit entries, want 1", len(state.Logs()))
	}
	if src.Guessers() != 3 {
		t.Errorf("Guessers() = %d", src.Guessers())
	}
}

func TestRaceSource_MiddleGuesserWinsWhileOthersPending(t *testing.T) {
	canceled := make(chan string, 2)
	pending := func(name string) *fakeGuesser {
		return &fakeGuesser{name: name, fn: func(ctx context.Context, _ game.Snapshot, _ game.LogSink) (bool, string) {
			<-ctx.Done()
			canceled <- name
			return false, "Problem interacting with llm"
		}}
	}

	src := NewRaceSource([]QuestionGenerator{
		pending("Player_0"),
		fixedGuesser("Player_1", true, "Is it a vehicle?"),
		pending("Player_2"),
	}, nil, nil, nil)

	got, err := src.Next(context.Background(), game.NewState().Snapshot(20), game.DiscardSink{})
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got.Agent != "Player_1" {
		t.Errorf("winner = %q, want Player_1", got.Agent)
	}

	seen := map[string]bool{}
	for range 2 {
		select {
		case name := <-canceled:
			seen[name] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("canceled = %v, want Player_0 and Player_2", seen)
		}
	}
	if !seen["Player_0"] || !seen["Player_2"] {
		t.Errorf("canceled = %v, want Player_0 and Player_2", seen)
	}
}

func TestRaceSource_LateAuditEntriesDropped(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})

	late := &fakeGuesser{name: "late", fn: func(_ context.Context, _ game.Snapshot, sink game.LogSink) (bool, string) {
		defer close(done)
		<-release // ignores cancellation
		sink.AddLog(game.LogValidationError, "Question starts with '^what', it's mostly not a valid question", "what is it?", nil)
		return false, "Question starts with '^what', it's mostly not a valid question"
	}}
	state := game.NewState()
	src := NewRaceSource([]QuestionGenerator{late, fixedGuesser("fast", true, "Is it fast?")}, nil, nil, nil)

	if _, err := src.Next(context.Background(), state.Snapshot(20), state); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("late guesser never finished")
	}

	if logs := state.Logs(); len(logs) != 0 {
		t.Errorf("entries after settlement reached the audit log: %+v", logs)
	}
}

func TestRaceSource_DoesNotWaitForLosers(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	stubborn := &fakeGuesser{name: "stubborn", fn: func(context.Context, game.Snapshot, game.LogSink) (bool, string) {
		<-release // ignores cancellation
		return true, "Is it late?"
	}}
	fast := fixedGuesser("fast", true, "Is it fast?")

	src := NewRaceSource([]QuestionGenerator{stubborn, fast}, nil, nil, nil)

	done := make(chan Candidate, 1)
	go func() {
		c, _ := src.Next(context.Background(), game.NewState().Snapshot(20), game.DiscardSink{})
		done <- c
	}()

	select {
	case c := <-done:
		if c.Agent != "fast" {
			t.Errorf("winner = %q, want fast", c.Agent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next() blocked on a losing guesser")
	}
}

func TestRaceSource_AllInvalid(t *testing.T) {
	guessers := []QuestionGenerator{
		fixedGuesser("Player_0", false, "Question could not be empty. Please give a valid question"),
		fixedGuesser("Player_1", false, "Question is exact same with one of the previous one"),
		fixedGuesser("Player_2", false, "Problem interacting with llm"),
	}
	src := NewRaceSource(guessers, nil, nil, nil)

	_, err := src.Next(context.Background(), game.NewState().Snapshot(20), game.DiscardSink{})
	if !errors.Is(err, errors.ErrNoValidQuestion) {
		t.Fatalf("Next() error = %v, want ErrNoValidQuestion", err)
	}
	if !errors.Is(err, errors.ErrGenerationExhausted) {
		t.Error("ErrNoValidQuestion should match ErrGenerationExhausted")
	}
	for _, g := range guessers {
		if n := g.(*fakeGuesser).calls.Load(); n != 1 {
			t.Errorf("%s called %d times, want exactly 1 (no retry in race mode)", g.Name(), n)
		}
	}
}

func TestRaceSource_PanicCountsAsInvalid(t *testing.T) {
	panicky := &fakeGuesser{name: "panicky", fn: func(context.Context, game.Snapshot, game.LogSink) (bool, string) {
		panic("model returned garbage")
	}}

	t.Run("other guesser still wins", func(t *testing.T) {
		slowValid := &fakeGuesser{name: "steady", fn: func(context.Context, game.Snapshot, game.LogSink) (bool, string) {
			time.Sleep(20 * time.Millisecond)
			return true, "Is it round?"
		}}
		src := NewRaceSource([]QuestionGenerator{panicky, slowValid}, nil, nil, nil)

		got, err := src.Next(context.Background(), game.NewState().Snapshot(20), game.DiscardSink{})
		if err != nil || got.Agent != "steady" {
			t.Errorf("Next() = %+v, %v", got, err)
		}
	})

	t.Run("lone panic fails the turn", func(t *testing.T) {
		src := NewRaceSource([]QuestionGenerator{panicky}, nil, nil, nil)
		if _, err := src.Next(context.Background(), game.NewState().Snapshot(20), game.DiscardSink{}); !errors.Is(err, errors.ErrNoValidQuestion) {
			t.Errorf("Next() error = %v", err)
		}
	})
}

func TestRaceSource_ParentCanceled(t *testing.T) {
	blocked := &fakeGuesser{name: "blocked", fn: func(ctx context.Context, _ game.Snapshot, _ game.LogSink) (bool, string) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return false, "Problem interacting with llm"
	}}
	src := NewRaceSource([]QuestionGenerator{blocked}, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := src.Next(ctx, game.NewState().Snapshot(20), game.DiscardSink{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRaceSource_NoGuessers(t *testing.T) {
	src := NewRaceSource(nil, nil, nil, nil)
	if _, err := src.Next(context.Background(), game.Snapshot{}, game.DiscardSink{}); !errors.Is(err, errors.ErrNoGuessers) {
		t.Errorf("Next() error = %v, want ErrNoGuessers", err)
	}
}

func TestRaceSource_Span(t *testing.T) {
	tp, recorder := testutil.NewTracerProvider(t)

	src := NewRaceSource([]QuestionGenerator{fixedGuesser("Player_0", true, "Is it blue?")}, nil, nil, tp)
	if _, err := src.Next(context.Background(), game.NewState().Snapshot(20), game.DiscardSink{}); err != nil {
		t.Fatalf("Next() error = %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "orchestrator.race" {
		t.Fatalf("spans = %v", spans)
	}
	if winner := testutil.SpanAttribute(spans[0], "winner"); winner != "Player_0" {
		t.Errorf("winner attribute = %q", winner)
	}
}
