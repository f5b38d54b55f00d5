package prompts

import (
	"chester/internal/pkg/advice"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/game"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const startingFen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func testInput(request commands.Request) Input {
	return Input{
		Request:    request,
		SkillLevel: commands.Intermediate,
		GameState:  game.GameState{PositionNotation: startingFen, MoveHistoryNotation: "1. e4 e5"},
		LegalMoves: []game.LegalMove{
			{From: "e2", To: "e4", Piece: "p"},
			{From: "d2", To: "d4", Piece: "p"},
		},
	}
}

func newTestAssembler(t *testing.T) *Assembler {
	assembler, err := NewDefault()
	require.NoError(t, err)
	return assembler
}

func TestEveryCommandEndsWithTheSchemaDirective(t *testing.T) {
	assembler := newTestAssembler(t)

	for _, command := range commands.All() {
		text, err := assembler.Assemble(context.Background(), testInput(commands.New(command)))
		require.NoError(t, err, command.String())

		assert.True(t, strings.HasSuffix(text, advice.FormatInstructions()+"."), command.String())
		assert.Equal(t, 1, strings.Count(text, advice.FormatInstructions()), command.String())
		assert.Contains(t, text, "800-1500", command.String())
		assert.Contains(t, text, startingFen, command.String())
		assert.Contains(t, text, "1. e4 e5", command.String())
	}
}

func TestLegalMovesOnlyForMoveProducingCommands(t *testing.T) {
	assembler := newTestAssembler(t)
	serialized := `[{"from":"e2","to":"e4","piece":"p"},{"from":"d2","to":"d4","piece":"p"}]`

	for _, command := range commands.All() {
		text, err := assembler.Assemble(context.Background(), testInput(commands.New(command)))
		require.NoError(t, err)
		if command.IncludesLegalMoves() {
			assert.Contains(t, text, serialized, command.String())
		} else {
			assert.NotContains(t, text, serialized, command.String())
		}
	}
}

func TestQuestionEmbedsRawTextAndDirectory(t *testing.T) {
	assembler := newTestAssembler(t)

	request := commands.Parse("Why is my bishop {bad}?")
	text, err := assembler.Assemble(context.Background(), testInput(request))
	require.NoError(t, err)

	assert.Contains(t, text, "Q: Why is my bishop {bad}?")
	assert.Contains(t, text, commands.Directory())
}

func TestAssembleIsDeterministic(t *testing.T) {
	assembler := newTestAssembler(t)
	input := testInput(commands.New(commands.NextMove))

	first, err := assembler.Assemble(context.Background(), input)
	require.NoError(t, err)
	second, err := assembler.Assemble(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMalformedGameStatePassesThrough(t *testing.T) {
	assembler := newTestAssembler(t)
	input := testInput(commands.New(commands.Breakdown))
	input.GameState = game.GameState{PositionNotation: "not a fen {at all}", MoveHistoryNotation: "???"}

	text, err := assembler.Assemble(context.Background(), input)
	require.NoError(t, err)
	assert.Contains(t, text, "not a fen {at all}")
}

func TestNewRejectsMissingTemplate(t *testing.T) {
	templates, err := DefaultTemplates()
	require.NoError(t, err)
	delete(templates.Commands, commands.MindReader.String())

	_, err = New(templates)
	assert.ErrorContains(t, err, "mind-reader")
}

func TestLoadTemplatesOverridesSingleCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := "commands:\n  breakdown: |\n    Short breakdown at {elo} for {fen}.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)
	assembler, err := New(templates)
	require.NoError(t, err)

	text, err := assembler.Assemble(context.Background(), testInput(commands.New(commands.Breakdown)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Short breakdown at 800-1500 for "+startingFen+"."))
	assert.NotEmpty(t, assembler.System())

	text, err = assembler.Assemble(context.Background(), testInput(commands.New(commands.Opponent)))
	require.NoError(t, err)
	assert.Contains(t, text, "best move for the black player")
}

func TestLoadTemplatesRejectsBrokenYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: [unterminated"), 0o600))

	_, err := LoadTemplates(path)
	assert.Error(t, err)
}
