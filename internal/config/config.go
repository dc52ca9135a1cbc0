package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Game modes
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// LLM providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// EnvPrefix prefixes every environment override, e.g. TWENTYQ_GAME_MODE.
const EnvPrefix = "TWENTYQ"

// EnvKeyReplacer maps nested keys onto environment variable names
// (game.max_questions -> GAME_MAX_QUESTIONS).
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// Config represents the complete twentyq configuration
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Game    GameConfig    `mapstructure:"game" yaml:"game"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Serve   ServeConfig   `mapstructure:"serve" yaml:"serve"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// LLMConfig controls how the language model is reached
type LLMConfig struct {
	// Provider selects the API flavour: "anthropic" or "openai" (any OpenAI-compatible
	// chat completions endpoint, e.g. Groq)
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Model overrides the provider's default model
	Model string `mapstructure:"model" yaml:"model"`
	// APIKey authenticates requests. Falls back to ANTHROPIC_API_KEY / OPENAI_API_KEY.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// BaseURL overrides the provider endpoint
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// MaxTokens caps the length of each completion
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RequestTimeout bounds a single HTTP request
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// MaxRetries is the number of retries on 429/5xx responses (0 disables retry)
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// GameConfig controls the rules of a game
type GameConfig struct {
	// Mode is "single" (one guesser, bounded retry) or "multi" (guessers race)
	Mode string `mapstructure:"mode" yaml:"mode"`
	// NumAgents is the number of racing guessers in multi mode
	NumAgents int `mapstructure:"num_agents" yaml:"num_agents"`
	// MaxQuestions is the question budget before the host wins
	MaxQuestions int `mapstructure:"max_questions" yaml:"max_questions"`
	// MaxRetries bounds question generation attempts per turn in single mode
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// GenerationTimeout bounds each guesser's LLM call
	GenerationTimeout time.Duration `mapstructure:"generation_timeout" yaml:"generation_timeout"`
	// MaxFailedTurns is how many consecutive turns may fail before the game aborts
	MaxFailedTurns int `mapstructure:"max_failed_turns" yaml:"max_failed_turns"`
	// Topic fixes the secret topic; empty lets the host choose
	Topic string `mapstructure:"topic" yaml:"topic"`
}

// OutputConfig controls where game artifacts are written
type OutputConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	ErrorLogFile string `mapstructure:"error_log_file" yaml:"error_log_file"`
	ResultFile   string `mapstructure:"result_file" yaml:"result_file"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether a debug.log is written next to the game output
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum level: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
}

// ServeConfig controls the websocket server
type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// TracingConfig controls OpenTelemetry span export
type TracingConfig struct {
	// Endpoint is an OTLP gRPC collector address; empty disables export
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       ProviderAnthropic,
			Model:          "",
			APIKey:         "",
			BaseURL:        "",
			MaxTokens:      1024,
			RequestTimeout: 60 * time.Second,
			MaxRetries:     3,
		},
		Game: GameConfig{
			Mode:              ModeSingle,
			NumAgents:         3,
			MaxQuestions:      20,
			MaxRetries:        5,
			GenerationTimeout: 30 * time.Second,
			MaxFailedTurns:    3,
			Topic:             "",
		},
		Output: OutputConfig{
			Dir:          "output",
			ErrorLogFile: "game_error_logs.json",
			ResultFile:   "result_and_logs.json",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
		Tracing: TracingConfig{
			Endpoint: "",
			Insecure: true,
		},
	}
}

// ResolvedAPIKey returns the configured key or the provider's conventional env var.
func (c *LLMConfig) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch c.Provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	default:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// ErrorLogPath returns the error log export path inside dir.
func (o *OutputConfig) ErrorLogPath(dir string) string {
	return filepath.Join(dir, o.ErrorLogFile)
}

// ResultPath returns the result export path inside dir.
func (o *OutputConfig) ResultPath(dir string) string {
	return filepath.Join(dir, o.ResultFile)
}

// SetDefaults registers default values with viper
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values on v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// LLM defaults
	v.SetDefault("llm.provider", defaults.LLM.Provider)
	v.SetDefault("llm.model", defaults.LLM.Model)
	v.SetDefault("llm.api_key", defaults.LLM.APIKey)
	v.SetDefault("llm.base_url", defaults.LLM.BaseURL)
	v.SetDefault("llm.max_tokens", defaults.LLM.MaxTokens)
	v.SetDefault("llm.request_timeout", defaults.LLM.RequestTimeout)
	v.SetDefault("llm.max_retries", defaults.LLM.MaxRetries)

	// Game defaults
	v.SetDefault("game.mode", defaults.Game.Mode)
	v.SetDefault("game.num_agents", defaults.Game.NumAgents)
	v.SetDefault("game.max_questions", defaults.Game.MaxQuestions)
	v.SetDefault("game.max_retries", defaults.Game.MaxRetries)
	v.SetDefault("game.generation_timeout", defaults.Game.GenerationTimeout)
	v.SetDefault("game.max_failed_turns", defaults.Game.MaxFailedTurns)
	v.SetDefault("game.topic", defaults.Game.Topic)

	// Output defaults
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.error_log_file", defaults.Output.ErrorLogFile)
	v.SetDefault("output.result_file", defaults.Output.ResultFile)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetDefault("serve.addr", defaults.Serve.Addr)

	v.SetDefault("tracing.endpoint", defaults.Tracing.Endpoint)
	v.SetDefault("tracing.insecure", defaults.Tracing.Insecure)
}

// legacyKeys maps the flat keys of a config.json from earlier releases onto
// their nested equivalents.
var legacyKeys = map[string]string{
	"api_key":    "llm.api_key",
	"game_mode":  "game.mode",
	"num_agents": "game.num_agents",
}

// applyLegacyKeys lifts flat legacy keys into the defaults of their nested
// keys, so an explicit nested value or environment variable still wins.
func applyLegacyKeys(v *viper.Viper) {
	for legacy, key := range legacyKeys {
		if v.IsSet(legacy) {
			v.SetDefault(key, v.Get(legacy))
		}
	}
}

// Load reads the configuration from the global viper instance and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v and validates it
func LoadFrom(v *viper.Viper) (*Config, error) {
	applyLegacyKeys(v)

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when it
// cannot be loaded
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "twentyq")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".twentyq"
	}
	return filepath.Join(home, ".config", "twentyq")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidModes returns the list of valid game modes
func ValidModes() []string {
	return []string{ModeSingle, ModeMulti}
}

// ValidProviders returns the list of supported LLM providers
func ValidProviders() []string {
	return []string{ProviderAnthropic, ProviderOpenAI}
}

// IsValidMode checks if the given mode is valid
func IsValidMode(mode string) bool {
	return slices.Contains(ValidModes(), mode)
}
