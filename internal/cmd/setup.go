package cmd

import (
	"context"
	"io"
	"os"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/Iron-Ham/twentyq/internal/llm"
	"github.com/Iron-Ham/twentyq/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"
)

const serviceName = "twentyq"

// generatorFactory builds the LLM client. Tests replace it with a scripted
// generator.
var generatorFactory = func(cfg config.LLMConfig) (llm.Generator, error) {
	return llm.NewFromConfig(cfg)
}

// newGenerator builds the configured LLM client with a span per call.
func newGenerator(cfg *config.Config, tp trace.TracerProvider) (llm.Generator, error) {
	gen, err := generatorFactory(cfg.LLM)
	if err != nil {
		return nil, err
	}
	return llm.Traced(gen, tp), nil
}

// newLogger returns a logger writing debug.log into dir, or a no-op logger
// when logging is disabled.
func newLogger(cfg *config.Config, dir string) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(dir, logging.ParseLevel(cfg.Logging.Level))
}

// setupTracing installs an OTLP exporter when an endpoint is configured.
// Without one the global (no-op) provider is returned and shutdown does
// nothing.
func setupTracing(ctx context.Context, cfg config.TracingConfig) (trace.TracerProvider, func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return otel.GetTracerProvider(), func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}

// terminalWidth returns the width of w when it is a terminal, otherwise 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	if termWidth, _, err := term.GetSize(int(f.Fd())); err == nil {
		return termWidth
	}
	return 0
}

// gameFlags maps the game flags shared by play, bench and serve onto their
// config keys.
var gameFlags = map[string]string{
	"mode":          "game.mode",
	"agents":        "game.num_agents",
	"topic":         "game.topic",
	"max-questions": "game.max_questions",
	"output":        "output.dir",
}

func addGameFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "game mode: single or multi (default from config: single)")
	cmd.Flags().Int("agents", 0, "number of racing guessers in multi mode (default from config: 3)")
	cmd.Flags().String("topic", "", "fix the secret topic instead of letting the host choose")
	cmd.Flags().Int("max-questions", 0, "question budget before the host wins (default from config: 20)")
	cmd.Flags().String("output", "", "directory for logs and results (default from config: output)")
}

// bindFlags binds the flags of cmd that were set on the command line, so
// they override config and environment values.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for name, key := range keys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
