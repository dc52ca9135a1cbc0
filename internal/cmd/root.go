package cmd

import (
	"github.com/Iron-Ham/twentyq/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "twentyq",
	Short: "LLM agents playing 20 Questions",
	Long: `twentyq plays the game of 20 Questions between language model agents.

A host agent picks a secret topic and answers yes/no questions. Guesser agents
ask the questions: one guesser retrying until it produces a valid question, or
several guessers racing for every turn with the first valid question winning.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/twentyq/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with API keys, ignored when missing")
}

func initConfig() {
	// API keys usually live in a .env file next to the working directory.
	// Variables already set in the environment win.
	if envFile, _ := rootCmd.PersistentFlags().GetString("env-file"); envFile != "" {
		_ = godotenv.Load(envFile)
	}

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/twentyq")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	// e.g. TWENTYQ_GAME_MAX_QUESTIONS for game.max_questions
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer())

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
