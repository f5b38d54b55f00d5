package models

import (
	"chester/internal/pkg/failures"
	"context"
	"errors"
	"fmt"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"time"
)

const (
	DefaultTemperature = 0
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 60 * time.Second
)

type InvokerConfig struct {
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
}

// Invoker performs exactly one model call per Invoke. It never retries.
type Invoker struct {
	chatModel model.BaseChatModel
	config    InvokerConfig
}

type generateResult struct {
	message *schema.Message
	err     error
}

func NewInvoker(chatModel model.BaseChatModel, config InvokerConfig) *Invoker {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Invoker{chatModel: chatModel, config: config}
}

// Invoke returns the raw completion text. Every failure, the timeout included, wraps failures.ErrTransport.
func (instance *Invoker) Invoke(ctx context.Context, promptText string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, instance.config.Timeout)
	defer cancel()

	messages := make([]*schema.Message, 0, 2)
	if instance.config.SystemPrompt != "" {
		messages = append(messages, schema.SystemMessage(instance.config.SystemPrompt))
	}
	messages = append(messages, schema.UserMessage(promptText))

	results := make(chan generateResult, 1)
	go func() {
		message, err := instance.chatModel.Generate(callCtx, messages,
			model.WithTemperature(instance.config.Temperature),
			model.WithMaxTokens(instance.config.MaxTokens))
		results <- generateResult{message: message, err: err}
	}()

	// Providers that ignore the context still lose the race against the deadline.
	select {
	case result := <-results:
		if result.err != nil {
			return "", fmt.Errorf("%w: %w", failures.ErrTransport, result.err)
		}
		if result.message == nil {
			return "", fmt.Errorf("%w: empty model response", failures.ErrTransport)
		}
		return result.message.Content, nil
	case <-callCtx.Done():
		err := callCtx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: model call timed out after %s", failures.ErrTransport, instance.config.Timeout)
		}
		return "", fmt.Errorf("%w: %w", failures.ErrTransport, err)
	}
}
