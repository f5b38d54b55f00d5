package advisor

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"chester/internal/pkg/prompts"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
)

// Invoker is the single model call the advisor depends on.
type Invoker interface {
	Invoke(ctx context.Context, promptText string) (string, error)
}

type Request struct {
	Command    commands.Request
	SkillLevel commands.SkillLevel
	GameState  game.GameState
	LegalMoves []game.LegalMove
}

type Options struct {
	// StrictMoves rejects next-move and opponent answers whose move is not in the legal-move set.
	StrictMoves bool
}

// Advisor runs assemble, invoke and validate for one request. It holds no per-request state.
type Advisor struct {
	assembler *prompts.Assembler
	invoker   Invoker
	validator *advice.Validator
	options   Options
}

func New(assembler *prompts.Assembler, invoker Invoker, options Options) *Advisor {
	return &Advisor{
		assembler: assembler,
		invoker:   invoker,
		validator: advice.NewValidator(invoker),
		options:   options,
	}
}

func (instance *Advisor) Advise(ctx context.Context, request Request) (advice.Response, error) {
	if !request.SkillLevel.IsKnown() {
		return advice.Response{}, fmt.Errorf("%w: unknown skill level %q", failures.ErrInvalidParameter, request.SkillLevel)
	}

	promptText, err := instance.assembler.Assemble(ctx, prompts.Input{
		Request:    request.Command,
		SkillLevel: request.SkillLevel,
		GameState:  request.GameState,
		LegalMoves: request.LegalMoves,
	})
	if err != nil {
		return advice.Response{}, fmt.Errorf("prompts.Assembler.Assemble() failed: %w", err)
	}

	raw, err := instance.invoker.Invoke(ctx, promptText)
	if err != nil {
		instance.logFailure(err, request)
		return advice.Response{}, err
	}

	response, err := instance.validator.Validate(ctx, raw)
	if err != nil {
		instance.logFailure(err, request)
		return advice.Response{}, err
	}

	if err := instance.checkLegality(request, response); err != nil {
		instance.logFailure(err, request)
		return advice.Response{}, err
	}

	return response, nil
}

func (instance *Advisor) checkLegality(request Request, response advice.Response) error {
	if !instance.options.StrictMoves || !request.Command.Command.ChecksLegality() || !response.HasMove() {
		return nil
	}
	if game.ContainsMove(request.LegalMoves, response.From, response.To) {
		return nil
	}
	return fmt.Errorf("%w: %w: %s%s is not a legal move", failures.ErrValidation, failures.ErrIllegalMove,
		response.From, response.To)
}

func (instance *Advisor) logFailure(err error, request Request) {
	event := log.Error()
	if errors.Is(err, failures.ErrTransport) {
		event = event.Str("failure", "transport")
	} else {
		event = event.Str("failure", "validation")
	}
	event.Err(err).
		Str("command", request.Command.Command.String()).
		Str("skill_level", request.SkillLevel.String()).
		Str("fen", request.GameState.PositionNotation).
		Str("pgn", request.GameState.MoveHistoryNotation).
		Msg("advisor.Advise() failed")
}
