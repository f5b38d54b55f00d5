package advice

import (
	"chester/internal/pkg/failures"
	"context"
	"fmt"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

const repairTemplate = `Instructions:
--------------
{instructions}
--------------
Completion:
--------------
{completion}
--------------

Above, the Completion did not satisfy the constraints given in the Instructions.
Error:
--------------
{error}
--------------

Please try again. Please only respond with an answer that satisfies the constraints laid out in the Instructions:`

// Repairer sends one prompt to the model. models.Invoker satisfies it.
type Repairer interface {
	Invoke(ctx context.Context, promptText string) (string, error)
}

// Validator enforces the response schema with at most one repair round trip.
type Validator struct {
	repairer Repairer
	template prompt.ChatTemplate
}

func NewValidator(repairer Repairer) *Validator {
	return &Validator{
		repairer: repairer,
		template: prompt.FromMessages(schema.FString, schema.UserMessage(repairTemplate)),
	}
}

func (instance *Validator) Validate(ctx context.Context, raw string) (Response, error) {
	response, err := Parse(raw)
	if err == nil {
		return response, nil
	}

	log.Warn().Err(err).Str("completion", raw).Msg("model response failed validation, attempting repair")

	repairPrompt, err := instance.repairPrompt(ctx, raw, err)
	if err != nil {
		return Response{}, fmt.Errorf("%w: repair prompt: %v", failures.ErrValidation, err)
	}

	repaired, err := instance.repairer.Invoke(ctx, repairPrompt)
	if err != nil {
		log.Error().Err(err).Msg("repair call failed")
		return Response{}, fmt.Errorf("%w: repair call failed: %v", failures.ErrValidation, err)
	}

	response, err = Parse(repaired)
	if err != nil {
		log.Error().Err(err).Str("completion", repaired).Msg("repaired model response failed validation")
		return Response{}, fmt.Errorf("%w: %v", failures.ErrValidation, err)
	}

	return response, nil
}

func (instance *Validator) repairPrompt(ctx context.Context, raw string, cause error) (string, error) {
	messages, err := instance.template.Format(ctx, map[string]any{
		"instructions": FormatInstructions(),
		"completion":   raw,
		"error":        cause.Error(),
	})
	if err != nil {
		return "", err
	}
	return messages[0].Content, nil
}
