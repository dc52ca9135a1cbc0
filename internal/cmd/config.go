package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify twentyq configuration",
	Long: `View or modify twentyq configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  twentyq config set game.mode multi
  twentyq config set game.num_agents 5
  twentyq config set llm.request_timeout 90s

Run 'twentyq config show' to see every key and its current value.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/twentyq/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// keyKind is how a config value given on the command line is coerced.
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindBool
	kindDuration
)

// settableKeys are the keys accepted by config set.
var settableKeys = map[string]keyKind{
	"llm.provider":            kindString,
	"llm.model":               kindString,
	"llm.api_key":             kindString,
	"llm.base_url":            kindString,
	"llm.max_tokens":          kindInt,
	"llm.request_timeout":     kindDuration,
	"llm.max_retries":         kindInt,
	"game.mode":               kindString,
	"game.num_agents":         kindInt,
	"game.max_questions":      kindInt,
	"game.max_retries":        kindInt,
	"game.generation_timeout": kindDuration,
	"game.max_failed_turns":   kindInt,
	"game.topic":              kindString,
	"output.dir":              kindString,
	"output.error_log_file":   kindString,
	"output.result_file":      kindString,
	"logging.enabled":         kindBool,
	"logging.level":           kindString,
	"serve.addr":              kindString,
	"tracing.endpoint":        kindString,
	"tracing.insecure":        kindBool,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	return writeConfigYAML(out, cfg)
}

// writeConfigYAML prints cfg as YAML with durations in their string form
// and the API key masked.
func writeConfigYAML(w io.Writer, cfg *config.Config) error {
	doc := map[string]any{
		"llm": map[string]any{
			"provider":        cfg.LLM.Provider,
			"model":           cfg.LLM.Model,
			"api_key":         maskSecret(cfg.LLM.ResolvedAPIKey()),
			"base_url":        cfg.LLM.BaseURL,
			"max_tokens":      cfg.LLM.MaxTokens,
			"request_timeout": cfg.LLM.RequestTimeout.String(),
			"max_retries":     cfg.LLM.MaxRetries,
		},
		"game": map[string]any{
			"mode":               cfg.Game.Mode,
			"num_agents":         cfg.Game.NumAgents,
			"max_questions":      cfg.Game.MaxQuestions,
			"max_retries":        cfg.Game.MaxRetries,
			"generation_timeout": cfg.Game.GenerationTimeout.String(),
			"max_failed_turns":   cfg.Game.MaxFailedTurns,
			"topic":              cfg.Game.Topic,
		},
		"output":  cfg.Output,
		"logging": cfg.Logging,
		"serve":   cfg.Serve,
		"tracing": cfg.Tracing,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	return enc.Close()
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	kind, ok := settableKeys[key]
	if !ok {
		keys := make([]string, 0, len(settableKeys))
		for k := range settableKeys {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return fmt.Errorf("unknown configuration key: %s\nValid keys:\n  %s", key, strings.Join(keys, "\n  "))
	}

	// Validate the value based on type
	var typedValue any
	switch kind {
	case kindString:
		typedValue = value
	case kindInt:
		n, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = n
	case kindBool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case kindDuration:
		d, err := cast.ToDurationE(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected a duration such as 30s", key)
		}
		typedValue = d.String()
	}

	// Reject values that would leave the config invalid before writing anything
	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)

	return nil
}

const configTemplate = `# twentyq configuration

# Language model access
llm:
  # anthropic, or openai for any OpenAI-compatible endpoint (e.g. Groq)
  provider: anthropic
  # Leave empty for the provider's default model
  model: ""
  # Leave empty to use ANTHROPIC_API_KEY / OPENAI_API_KEY from the environment or .env
  api_key: ""
  base_url: ""
  max_tokens: 1024
  request_timeout: 60s
  # Retries on rate limits and server errors
  max_retries: 3

# Game rules
game:
  # single: one guesser retries until it asks a valid question
  # multi: num_agents guessers race, the first valid question wins
  mode: single
  num_agents: 3
  max_questions: 20
  # Attempts per turn in single mode
  max_retries: 5
  generation_timeout: 30s
  # Consecutive turns without a valid question before the game is aborted
  max_failed_turns: 3
  # Fix the secret topic; empty lets the host choose
  topic: ""

# Where game logs and results are written
output:
  dir: output
  error_log_file: game_error_logs.json
  result_file: result_and_logs.json

# Debug log written to <output.dir>/debug.log
logging:
  enabled: true
  level: info

# twentyq serve
serve:
  addr: ":8080"

# OpenTelemetry trace export; empty endpoint disables it
tracing:
  endpoint: ""
  insecure: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'twentyq config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize twentyq's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.{yaml,json}"))
	fmt.Fprintln(out, "  2. $HOME/.config/twentyq/config.{yaml,json}")
	fmt.Fprintln(out, "  3. ./config.{yaml,json} (current directory)")
	fmt.Fprintf(out, "\nEnvironment variables: %s_* (e.g., %s_GAME_MODE)\n", config.EnvPrefix, config.EnvPrefix)

	return nil
}
