package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/game"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
	"github.com/Iron-Ham/twentyq/internal/render"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one game and print the transcript",
	Long: `Play one game of 20 Questions.

The transcript is printed as the game goes. When the game ends, the audit log
of rejected questions and game events and the final result are written as JSON
to the output directory.`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var (
	playVerbose bool
	playQuiet   bool
)

func init() {
	addGameFlags(playCmd)
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "also print rejected questions and race results")
	playCmd.Flags().BoolVarP(&playQuiet, "quiet", "q", false, "do not print the transcript")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, _ []string) error {
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
	printer := render.NewPrinter(out, render.WithWidth(terminalWidth(out)), render.WithVerbose(playVerbose))
	bus := event.NewBus(logger)
	if !playQuiet {
		detach := printer.Attach(bus)
		defer detach()
	}

	mgr, err := orchestrator.Build(cfg.Game, orchestrator.Deps{
		Generator:      gen,
		Bus:            bus,
		Logger:         logger,
		TracerProvider: tp,
	})
	if err != nil {
		return err
	}

	result, runErr := mgr.Run(ctx)

	// Partial games are exported too.
	if state := mgr.State(); state != nil {
		paths, err := exportGame(cfg, state, result)
		if err != nil {
			return err
		}
		if !playQuiet {
			printer.Saved(paths...)
		}
	}
	return runErr
}

// exportGame writes the audit log and the result into the output directory
// and returns the paths written.
func exportGame(cfg *config.Config, state *game.State, result game.Result) ([]string, error) {
	logPath := cfg.Output.ErrorLogPath(cfg.Output.Dir)
	if err := state.ExportLogs(logPath); err != nil {
		return nil, fmt.Errorf("failed to export game log: %w", err)
	}
	resultPath := cfg.Output.ResultPath(cfg.Output.Dir)
	if err := result.Export(resultPath); err != nil {
		return nil, fmt.Errorf("failed to export result: %w", err)
	}
	return []string{logPath, resultPath}, nil
}
