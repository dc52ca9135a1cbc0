// Package batch plays many games with bounded parallelism and tallies the
// outcomes.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/twentyq/internal/errors"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
	"golang.org/x/sync/errgroup"
)

// Factory builds the i-th game of a batch.
type Factory func(i int) (*orchestrator.Manager, error)

// Outcome is the result of one game in a batch. Err is set for games that
// were aborted; their Result holds the partial game.
type Outcome struct {
	Index  int
	Result game.Result
	Err    error
}

// Stats tallies a batch.
type Stats struct {
	Games          int
	HostWins       int
	GuesserWins    int
	Aborted        int
	TotalQuestions int
	Elapsed        time.Duration
}

// AverageQuestions is the mean number of questions over finished games.
func (s Stats) AverageQuestions() float64 {
	finished := s.HostWins + s.GuesserWins
	if finished == 0 {
		return 0
	}
	return float64(s.TotalQuestions) / float64(finished)
}

// GuesserWinRate is the share of finished games won by the guessers.
func (s Stats) GuesserWinRate() float64 {
	finished := s.HostWins + s.GuesserWins
	if finished == 0 {
		return 0
	}
	return float64(s.GuesserWins) / float64(finished)
}

func (s *Stats) add(o Outcome) {
	s.Games++
	switch {
	case o.Err != nil || o.Result.Winner == nil:
		s.Aborted++
		return
	case *o.Result.Winner == string(game.WinnerGuesser):
		s.GuesserWins++
	default:
		s.HostWins++
	}
	s.TotalQuestions += o.Result.QuestionsAsked
}

// Runner plays batches of games.
type Runner struct {
	parallel int
	logger   *logging.Logger
	progress func(Outcome)
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallel bounds the number of games played at once. Values below 1
// mean one at a time.
func WithParallel(n int) Option {
	return func(r *Runner) {
		r.parallel = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress calls fn after every game. Calls are serialized.
func WithProgress(fn func(Outcome)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{parallel: 1, logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallel < 1 {
		r.parallel = 1
	}
	return r
}

// Run plays games games built by newGame. An aborted game is counted and
// does not stop the batch; a factory error or a canceled ctx does.
func (r *Runner) Run(ctx context.Context, games int, newGame Factory) (Stats, []Outcome, error) {
	if games < 1 {
		return Stats{}, nil, errors.NewValidationError("at least one game is required").WithField("games").WithValue(games)
	}

	start := time.Now()
	outcomes := make([]Outcome, games)

	var (
		mu    sync.Mutex
		stats Stats
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallel)

	for i := range games {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			mgr, err := newGame(i)
			if err != nil {
				return errors.Wrapf(err, "game %d", i)
			}

			result, err := mgr.Run(ctx)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				r.logger.WithGame(result.GameID).Warn("game aborted", "index", i, "error", err)
			}

			o := Outcome{Index: i, Result: result, Err: err}
			mu.Lock()
			defer mu.Unlock()
			outcomes[i] = o
			stats.add(o)
			if r.progress != nil {
				r.progress(o)
			}
			return nil
		})
	}

	err := eg.Wait()
	stats.Elapsed = time.Since(start)
	r.logger.Info("batch finished",
		"games", stats.Games,
		"guesser_wins", stats.GuesserWins,
		"host_wins", stats.HostWins,
		"aborted", stats.Aborted,
		"elapsed", stats.Elapsed,
	)
	if err != nil {
		return stats, nil, err
	}
	return stats, outcomes, nil
}
