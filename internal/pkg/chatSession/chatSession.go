package chatSession

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/advisor"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/game"
	"context"
)

const Greeting = "Hello, I'm Chester. I'm here to help you get better at chess. I will be playing as the black pieces."

// TurnOwner is the party expected to produce the next board move.
type TurnOwner string

const (
	Human     TurnOwner = "human"
	Assistant TurnOwner = "assistant"
)

type ChatInteraction struct {
	IsBot   bool   `json:"isBot"`
	Message string `json:"message"`
	// Command is the token of the request that produced the interaction; empty for the greeting.
	Command string `json:"command,omitempty"`
}

type Event string

const (
	EventState      Event = "state"
	EventSubmitted  Event = "submitted"
	EventCompleted  Event = "completed"
	EventFailed     Event = "failed"
	EventMoved      Event = "moved"
	EventSkillLevel Event = "skill-level"
	EventCleared    Event = "cleared"
)

// Update is published after every state change and returned by the mutating operations.
type Update struct {
	Event       Event               `json:"event"`
	History     []ChatInteraction   `json:"history"`
	Response    *advice.Response    `json:"response,omitempty"`
	AppliedMove *game.LegalMove     `json:"appliedMove,omitempty"`
	TurnOwner   TurnOwner           `json:"turnOwner"`
	Processing  bool                `json:"processing"`
	Pending     string              `json:"pending,omitempty"`
	SkillLevel  commands.SkillLevel `json:"skillLevel"`
	Board       game.GameState      `json:"board"`
	Outcome     string              `json:"outcome"`
	Message     string              `json:"message,omitempty"`
}

type ResponseFunc func(update Update)

// Advisor produces one validated answer per request.
type Advisor interface {
	Advise(ctx context.Context, request advisor.Request) (advice.Response, error)
}

type ChatSession interface {
	ID() string
	// Submit parses input as a command or a free-text question and waits for the answer.
	Submit(ctx context.Context, input string) (Update, error)
	// Reask repeats the request behind the most recent bot interaction.
	Reask(ctx context.Context) (Update, error)
	ApplyHumanMove(ctx context.Context, from game.Square, to game.Square) (Update, error)
	// SyncTurn hands the turn to the assistant when the board says it is black's move.
	SyncTurn(ctx context.Context) (Update, error)
	Clear(ctx context.Context) (Update, error)
	SetSkillLevel(ctx context.Context, level string) (Update, error)
	Snapshot() Update
	Interactions() []ChatInteraction
	Processing() bool
	// Wait blocks until automatically submitted requests have finished.
	Wait()
	Shutdown()
}
