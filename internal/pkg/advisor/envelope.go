package advisor

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"fmt"
	"strings"
)

// Envelope is the outward shape of every advisory result.
type Envelope struct {
	Success bool             `json:"success"`
	Result  *advice.Response `json:"result,omitempty"`
	Message string           `json:"message,omitempty"`
}

// NewEnvelope returns the HTTP status together with the envelope for a result or an error.
func NewEnvelope(result advice.Response, err error) (int, Envelope) {
	if err != nil {
		return failures.Status(err), Envelope{Success: false, Message: failures.Message(err)}
	}
	return failures.Status(nil), Envelope{Success: true, Result: &result}
}

// WireRequest is the body of the stateless next-move route. Pointers tell absent fields from empty ones.
type WireRequest struct {
	Type       *string          `json:"type"`
	Elo        *string          `json:"elo"`
	Board      *game.GameState  `json:"board"`
	ValidMoves []game.LegalMove `json:"validMoves"`
}

func (wire WireRequest) ToRequest() (Request, error) {
	if wire.Type == nil || strings.TrimSpace(*wire.Type) == "" ||
		wire.Elo == nil || strings.TrimSpace(*wire.Elo) == "" ||
		wire.Board == nil || wire.ValidMoves == nil {
		return Request{}, failures.ErrMissingParameter
	}

	skillLevel, ok := commands.ParseSkillLevel(*wire.Elo)
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown skill level %q", failures.ErrInvalidParameter, *wire.Elo)
	}

	return Request{
		Command:    commands.Parse(*wire.Type),
		SkillLevel: skillLevel,
		GameState:  *wire.Board,
		LegalMoves: wire.ValidMoves,
	}, nil
}
