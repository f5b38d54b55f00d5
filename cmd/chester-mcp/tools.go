package main

import (
	"chester/internal/pkg/advisor"
	"chester/internal/pkg/board"
	"chester/internal/pkg/chatSession"
	"chester/internal/pkg/commands"
	"chester/internal/pkg/failures"
	"context"
	"fmt"
	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"strings"
)

const (
	adviseToolName     = "advise"
	legalMovesToolName = "legal_moves"
)

func newMCPServer(chessAdvisor chatSession.Advisor) *server.MCPServer {
	mcpServer := server.NewMCPServer(applicationName, "1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	mcpServer.AddTool(newAdviseTool(), adviseHandler(chessAdvisor))
	mcpServer.AddTool(newLegalMovesTool(), legalMovesHandler)
	return mcpServer
}

func newAdviseTool() mcp.Tool {
	tokens := make([]string, 0, len(commands.All()))
	for _, command := range commands.All() {
		if command != commands.Question {
			tokens = append(tokens, command.String())
		}
	}
	levels := make([]string, 0, len(commands.SkillLevels()))
	for _, level := range commands.SkillLevels() {
		levels = append(levels, level.String())
	}

	return mcp.NewTool(adviseToolName,
		mcp.WithDescription("Ask the chess coach about a position. Returns an explanation, a win probability for black and, for move commands, a move."),
		mcp.WithString("fen",
			mcp.Required(),
			mcp.Description("Position in Forsyth-Edwards Notation"),
		),
		mcp.WithString("pgn",
			mcp.Description("Move history in Portable Game Notation"),
		),
		mcp.WithString("command",
			mcp.Description("One of "+strings.Join(tokens, ", ")+", or a free-text question"),
		),
		mcp.WithString("skill_level",
			mcp.Description("Student skill level"),
			mcp.Enum(levels...),
		),
	)
}

func newLegalMovesTool() mcp.Tool {
	return mcp.NewTool(legalMovesToolName,
		mcp.WithDescription("List the legal moves of the side to move"),
		mcp.WithString("fen",
			mcp.Required(),
			mcp.Description("Position in Forsyth-Edwards Notation"),
		),
	)
}

func adviseHandler(chessAdvisor chatSession.Advisor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fen, err := request.RequireString("fen")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		chessBoard, err := board.FromFEN(fen)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid fen: %v", err)), nil
		}

		skillLevel := commands.DefaultSkillLevel
		if value := request.GetString("skill_level", ""); value != "" {
			parsed, ok := commands.ParseSkillLevel(value)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("unknown skill level %q", value)), nil
			}
			skillLevel = parsed
		}

		command := strings.TrimSpace(request.GetString("command", commands.NextMove.String()))
		if command == "" {
			return mcp.NewToolResultError(failures.Message(failures.ErrMissingParameter)), nil
		}
		if !strings.HasPrefix(command, "/") && commands.Parse(command).Command != commands.Question {
			command = "/" + command
		}

		gameState := chessBoard.State()
		gameState.MoveHistoryNotation = request.GetString("pgn", "")

		response, err := chessAdvisor.Advise(ctx, advisor.Request{
			Command:    commands.Parse(command),
			SkillLevel: skillLevel,
			GameState:  gameState,
			LegalMoves: chessBoard.LegalMoves(),
		})
		if err != nil {
			log.Error().Err(err).Str("fen", fen).Msg("advisor.Advise() failed")
			return mcp.NewToolResultError(failures.Message(err)), nil
		}

		content, err := sonic.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("sonic.Marshal() failed: %w", err)
		}
		return mcp.NewToolResultText(string(content)), nil
	}
}

func legalMovesHandler(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fen, err := request.RequireString("fen")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	chessBoard, err := board.FromFEN(fen)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fen: %v", err)), nil
	}

	content, err := sonic.Marshal(chessBoard.LegalMoves())
	if err != nil {
		return nil, fmt.Errorf("sonic.Marshal() failed: %w", err)
	}
	return mcp.NewToolResultText(string(content)), nil
}
