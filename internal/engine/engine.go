package engine

import (
	"chester/internal/models"
	"chester/internal/pkg/advice"
	"chester/internal/pkg/advisor"
	"chester/internal/pkg/prompts"
	"context"
	"errors"
	"fmt"
	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"
	"time"
)

// EngineConfig gathers what every binary needs to build an advisor.
type EngineConfig struct {
	ModelConfig    *models.ProviderConfig
	TemplatesFile  string
	RequestTimeout time.Duration
	StrictMoves    bool
}

// NewAdvisor connects to the configured provider and builds the advisor on top of it.
func NewAdvisor(ctx context.Context, config *EngineConfig) (*advisor.Advisor, error) {
	if config == nil || config.ModelConfig == nil {
		return nil, errors.New("model configuration is required")
	}

	config.ModelConfig.ResponseSchema = advice.Schema()
	chatModel, err := models.NewChatModel(ctx, config.ModelConfig)
	if err != nil {
		return nil, fmt.Errorf("models.NewChatModel() failed: %w", err)
	}

	return NewAdvisorWithModel(chatModel, config)
}

func NewAdvisorWithModel(chatModel model.BaseChatModel, config *EngineConfig) (*advisor.Advisor, error) {
	templates, err := prompts.LoadTemplates(config.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("prompts.LoadTemplates() failed: %w", err)
	}
	assembler, err := prompts.New(templates)
	if err != nil {
		return nil, fmt.Errorf("prompts.New() failed: %w", err)
	}

	systemPrompt := assembler.System()
	invokerConfig := models.InvokerConfig{
		SystemPrompt: systemPrompt,
		Temperature:  models.DefaultTemperature,
		MaxTokens:    models.DefaultMaxTokens,
		Timeout:      config.RequestTimeout,
	}
	if config.ModelConfig != nil {
		if config.ModelConfig.SystemPrompt != "" {
			invokerConfig.SystemPrompt = config.ModelConfig.SystemPrompt
		}
		invokerConfig.Temperature = config.ModelConfig.Temperature
		if config.ModelConfig.MaxTokens > 0 {
			invokerConfig.MaxTokens = config.ModelConfig.MaxTokens
		}
	}

	log.Info().
		Str("templates_file", config.TemplatesFile).
		Bool("strict_moves", config.StrictMoves).
		Dur("timeout", config.RequestTimeout).
		Msg("advisor configured")

	invoker := models.NewInvoker(chatModel, invokerConfig)
	return advisor.New(assembler, invoker, advisor.Options{StrictMoves: config.StrictMoves}), nil
}
