package main

import (
	"chester/internal/engine"
	"chester/internal/models"
	"chester/internal/pkg/board"
	"chester/internal/pkg/chatSession"
	"chester/internal/pkg/commands"
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const applicationName = "chester-cli"

var configFile string

var rootCmd = &cobra.Command{
	Use:   applicationName,
	Short: "Play chess in the terminal with an AI coach",
	Long: `chester-cli plays the black pieces against you and coaches you along the way.

Type a move with /move e2e4, ask for help with /breakdown, /next-move or
/mind-reader, or just ask a question about the position.

Examples:
  chester-cli -m ollama:qwen3:8b
  chester-cli -m anthropic:claude-3-5-sonnet-latest --level intermediate
  chester-cli -m google:gemini-2.0-flash --templates ./templates.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChester(cmd.Context())
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default is $HOME/.chester.yaml)")
	flags.StringP("model", "m", "ollama:qwen3:8b", "model to use (format: provider:model)")
	flags.String("level", string(commands.DefaultSkillLevel), "student skill level: novice, intermediate, advanced or expert")
	flags.String("templates", "", "YAML file overriding prompt templates")
	flags.String("system-prompt", "", "system prompt override")
	flags.Float32("temperature", models.DefaultTemperature, "sampling temperature")
	flags.Int("max-tokens", models.DefaultMaxTokens, "maximum tokens per answer")
	flags.Duration("timeout", models.DefaultTimeout, "model call timeout")
	flags.Bool("strict-moves", true, "reject model moves missing from the legal move list")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("openai-url", "", "base URL for OpenAI API")
	flags.String("anthropic-url", "", "base URL for Anthropic API")
	flags.String("ollama-url", "", "base URL for Ollama API")
	flags.String("openai-api-key", "", "OpenAI API key")
	flags.String("anthropic-api-key", "", "Anthropic API key")
	flags.String("google-api-key", "", "Google (Gemini) API key")

	// Bind flags to viper for config file and environment support
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	viper.SetEnvPrefix("CHESTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if homeDir, err := os.UserHomeDir(); err == nil {
		viper.SetConfigFile(filepath.Join(homeDir, ".chester.yaml"))
	}
	// Ignore error if no config found
	_ = viper.ReadInConfig()
}

func setupZerolog(debug bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func runChester(ctx context.Context) error {
	setupZerolog(viper.GetBool("debug"))

	modelConfig := &models.ProviderConfig{
		ModelString:      viper.GetString("model"),
		SystemPrompt:     viper.GetString("system-prompt"),
		Temperature:      float32(viper.GetFloat64("temperature")),
		MaxTokens:        viper.GetInt("max-tokens"),
		AnthropicAPIKey:  viper.GetString("anthropic-api-key"),
		AnthropicBaseURL: viper.GetString("anthropic-url"),
		OpenAIAPIKey:     viper.GetString("openai-api-key"),
		OpenAIBaseURL:    viper.GetString("openai-url"),
		GoogleAPIKey:     viper.GetString("google-api-key"),
		OllamaBaseURL:    viper.GetString("ollama-url"),
	}

	if err := models.Probe(ctx, modelConfig); err != nil {
		return fmt.Errorf("model provider is not reachable: %w", err)
	}

	chessAdvisor, err := engine.NewAdvisor(ctx, &engine.EngineConfig{
		ModelConfig:    modelConfig,
		TemplatesFile:  viper.GetString("templates"),
		RequestTimeout: viper.GetDuration("timeout"),
		StrictMoves:    viper.GetBool("strict-moves"),
	})
	if err != nil {
		return fmt.Errorf("failed to create advisor: %w", err)
	}

	chessBoard := board.New()
	game := newTerminalGame(os.Stdin, os.Stdout, chessBoard)
	session, err := chatSession.New(uuid.NewString(), chatSession.Dependencies{
		Advisor:      chessAdvisor,
		Board:        chessBoard,
		ResponseFunc: game.onUpdate,
	})
	if err != nil {
		return fmt.Errorf("chatSession.New() failed: %w", err)
	}
	defer session.Shutdown()

	if level := viper.GetString("level"); level != "" {
		if _, err := session.SetSkillLevel(ctx, level); err != nil {
			return err
		}
	}

	fmt.Printf("Model loaded: %s\n", modelConfig.ModelString)
	return game.run(ctx, session)
}
