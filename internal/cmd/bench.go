package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/twentyq/internal/batch"
	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
	"github.com/Iron-Ham/twentyq/internal/render"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Play many games and report win rates",
	Long: `Play a batch of games with bounded parallelism and print how often the
guessers won and how many questions they needed on average.

All games share one LLM client, so --parallel also bounds the number of
concurrent game loops hitting the provider.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

var (
	benchGames    int
	benchParallel int
)

func init() {
	addGameFlags(benchCmd)
	benchCmd.Flags().IntVarP(&benchGames, "games", "n", 10, "number of games to play")
	benchCmd.Flags().IntVarP(&benchParallel, "parallel", "p", 2, "games played at once")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd, gameFlags); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdown, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	logger, err := newLogger(cfg, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	gen, err := newGenerator(cfg, tp)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := render.NewPrinter(out, render.WithWidth(terminalWidth(out)))

	newGame := func(int) (*orchestrator.Manager, error) {
		return orchestrator.Build(cfg.Game, orchestrator.Deps{
			Generator:      gen,
			Logger:         logger,
			TracerProvider: tp,
		})
	}

	runner := batch.NewRunner(
		batch.WithParallel(benchParallel),
		batch.WithLogger(logger),
		batch.WithProgress(printer.Outcome),
	)
	stats, _, err := runner.Run(ctx, benchGames, newGame)
	if err != nil {
		return err
	}

	printer.Summary(stats)
	return nil
}
