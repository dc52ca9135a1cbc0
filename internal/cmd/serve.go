package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/event"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/Iron-Ham/twentyq/internal/orchestrator"
	"github.com/Iron-Ham/twentyq/internal/stream"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve games over websocket",
	Long: `Start an HTTP server that plays one game per websocket connection.

Connect to /play to start a game; its events are streamed as JSON messages
{"type", "timestamp", "data"} and the final message has type "result".
GET /healthz reports liveness.

The config file is watched: games started after a change use the new settings.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveInsecureOrigins bool

func init() {
	addGameFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from config: :8080)")
	serveCmd.Flags().BoolVar(&serveInsecureOrigins, "insecure-origins", false, "accept websocket connections from any origin")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(cmd, gameFlags); err != nil {
		return err
	}
	if err := bindFlags(cmd, map[string]string{"addr": "serve.addr"}); err != nil {
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

	current := watchConfig(cfg, logger)

	var opts []stream.Option
	if serveInsecureOrigins {
		opts = append(opts, stream.WithInsecureOrigins())
	}
	handler := stream.NewHandler(gameFactory(current, logger, tp), logger, opts...)

	srv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           otelhttp.NewHandler(stream.NewServeMux(handler), serviceName, otelhttp.WithTracerProvider(tp)),
		ReadHeaderTimeout: 10 * time.Second,
		// Hijacked websocket connections outlive Shutdown; tie their games to ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("serving games", "addr", cfg.Serve.Addr)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving games on ws://%s/play\n", displayAddr(cfg.Serve.Addr))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// watchConfig returns the live configuration, replaced whenever the config
// file changes and still validates.
func watchConfig(cfg *config.Config, logger *logging.Logger) *atomic.Pointer[config.Config] {
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	if viper.ConfigFileUsed() == "" {
		return &current
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		next, err := config.Load()
		if err != nil {
			logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		current.Store(next)
		logger.Info("config reloaded", "file", e.Name, "op", e.Op.String())
	})
	viper.WatchConfig()
	return &current
}

// gameFactory builds each connection's game from the configuration current
// at the time it connects.
func gameFactory(current *atomic.Pointer[config.Config], logger *logging.Logger, tp trace.TracerProvider) stream.GameFactory {
	return func(bus *event.Bus) (*orchestrator.Manager, error) {
		cfg := current.Load()
		gen, err := newGenerator(cfg, tp)
		if err != nil {
			return nil, err
		}
		return orchestrator.Build(cfg.Game, orchestrator.Deps{
			Generator:      gen,
			Bus:            bus,
			Logger:         logger,
			TracerProvider: tp,
		})
	}
}

func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host != "" {
		return addr
	}
	return net.JoinHostPort("localhost", port)
}
