package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
)

type host struct{}

func (host) ChooseTopic(context.Context) string { return "Lamp" }

func (host) AnswerQuestion(_ context.Context, question, _ string) bool {
	return question == "Is it a lamp?"
}

// source asks its questions in order; an empty list fails every turn.
type source struct {
	questions []string
	active    *atomic.Int32
	peak      *atomic.Int32
}

func (s source) Guessers() int { return 1 }

func (s source) Next(_ context.Context, snap game.Snapshot, _ game.LogSink) (orchestrator.Candidate, error) {
	if s.active != nil {
		n := s.active.Add(1)
		defer s.active.Add(-1)
		for {
			p := s.peak.Load()
			if n <= p || s.peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(s.questions) == 0 {
		return orchestrator.Candidate{}, errors.ErrNoValidQuestion
	}
	q := s.questions[min(snap.QuestionsAsked, len(s.questions)-1)]
	if snap.QuestionsAsked >= len(s.questions)-1 && q != "Is it a lamp?" {
		q = fmt.Sprintf("%s %d", q, snap.QuestionsAsked)
	}
	return orchestrator.Candidate{Agent: "Test Guesser", Question: q}, nil
}

// mixed builds guesser wins for even games, host wins for odd ones and an
// aborted game every fifth game.
func mixed(active, peak *atomic.Int32) Factory {
	return func(i int) (*orchestrator.Manager, error) {
		src := source{active: active, peak: peak}
		switch {
		case i%5 == 4:
		case i%2 == 0:
			src.questions = []string{"Does it glow?", "Is it a lamp?"}
		default:
			src.questions = []string{"Is it an animal?"}
		}
		return orchestrator.NewManager(host{}, src, orchestrator.Settings{MaxQuestions: 3, MaxFailedTurns: 0}), nil
	}
}

func TestRunner_Run(t *testing.T) {
	var active, peak atomic.Int32
	var progressed int

	r := NewRunner(WithParallel(2), WithProgress(func(Outcome) { progressed++ }))
	stats, outcomes, err := r.Run(context.Background(), 10, mixed(&active, &peak))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// games 0, 2, 6, 8 won by the guesser; 1, 3, 5, 7 by the host; 4 and 9 aborted
	if stats.Games != 10 || stats.GuesserWins != 4 || stats.HostWins != 4 || stats.Aborted != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalQuestions != 4*2+4*3 {
		t.Errorf("TotalQuestions = %d, want 20", stats.TotalQuestions)
	}
	if got := stats.AverageQuestions(); got != 2.5 {
		t.Errorf("AverageQuestions() = %v, want 2.5", got)
	}
	if got := stats.GuesserWinRate(); got != 0.5 {
		t.Errorf("GuesserWinRate() = %v, want 0.5", got)
	}
	if progressed != 10 {
		t.Errorf("progress called %d times, want 10", progressed)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak parallelism = %d, want <= 2", p)
	}

	for i, o := range outcomes {
		if o.Index != i {
			t.Errorf("outcomes[%d].Index = %d", i, o.Index)
		}
	}
	if !errors.Is(outcomes[4].Err, errors.ErrGenerationExhausted) {
		t.Errorf("aborted game error = %v", outcomes[4].Err)
	}
}

func TestRunner_FactoryErrorStopsBatch(t *testing.T) {
	boom := errors.New("no generator")
	factory := func(i int) (*orchestrator.Manager, error) {
		if i == 1 {
			return nil, boom
		}
		return orchestrator.NewManager(host{}, source{questions: []string{"Is it a lamp?"}}, orchestrator.Settings{}), nil
	}

	_, outcomes, err := NewRunner().Run(context.Background(), 3, factory)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if outcomes != nil {
		t.Errorf("outcomes = %v, want nil on failure", outcomes)
	}
}

func TestRunner_InvalidCount(t *testing.T) {
	if _, _, err := NewRunner().Run(context.Background(), 0, nil); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Run(0) error = %v, want ErrInvalidInput", err)
	}
}

func TestStats_Empty(t *testing.T) {
	var s Stats
	if s.AverageQuestions() != 0 || s.GuesserWinRate() != 0 {
		t.Error("empty stats should report zero averages")
	}
}
