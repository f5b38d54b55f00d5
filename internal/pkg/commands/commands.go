package commands

import (
	"strings"
)

// Command selects a prompt template. Question is the free-text fallback arm.
type Command int

const (
	Question Command = iota
	Breakdown
	NextMove
	MindReader
	Opponent
)

type definition struct {
	token        string
	description  string
	includeMoves bool
	checkMoves   bool
	colorCode    string
}

// definitions is indexed by Command; a missing entry is caught by TestDefinitionsCoverAllCommands.
var definitions = [...]definition{
	Question: {
		token:       "question",
		description: "Ask any question about the current position.",
		colorCode:   "7",
	},
	Breakdown: {
		token:       "breakdown",
		description: "I'll carefully analyze the positions of the pieces, evaluate potential threats, and identify any tactical opportunities.",
		colorCode:   "2",
	},
	NextMove: {
		token:        "next-move",
		description:  "I'll scrutinize the present situation on the board and devise the most advantageous next move for your student.",
		includeMoves: true,
		checkMoves:   true,
		colorCode:    "4",
	},
	MindReader: {
		token:        "mind-reader",
		description:  "I'll evaluate the current position, consider potential moves, and decide on the best actions.",
		includeMoves: true,
		colorCode:    "3",
	},
	Opponent: {
		token:        "opponent",
		description:  "I'll find the best move for the black pieces and explain the thought process behind it.",
		includeMoves: true,
		checkMoves:   true,
		colorCode:    "5",
	},
}

// All returns every command, fallback included, in declaration order.
func All() []Command {
	return []Command{Question, Breakdown, NextMove, MindReader, Opponent}
}

func (command Command) String() string {
	if !command.known() {
		return "unknown"
	}
	return definitions[command].token
}

// Token is the slash form typed by users, e.g. "/next-move".
func (command Command) Token() string {
	return "/" + command.String()
}

func (command Command) Description() string {
	if !command.known() {
		return ""
	}
	return definitions[command].description
}

// IncludesLegalMoves reports whether the command's prompt carries the legal-move set.
func (command Command) IncludesLegalMoves() bool {
	return command.known() && definitions[command].includeMoves
}

// ChecksLegality reports whether a returned move must belong to the legal-move set.
func (command Command) ChecksLegality() bool {
	return command.known() && definitions[command].checkMoves
}

// ColorCode is an ANSI 256 color index used when printing the command.
func (command Command) ColorCode() string {
	if !command.known() {
		return ""
	}
	return definitions[command].colorCode
}

func (command Command) known() bool {
	return command >= 0 && int(command) < len(definitions)
}

// Request is one parsed user input. Raw keeps the text exactly as typed.
type Request struct {
	Command Command
	Raw     string
}

func (request Request) IsQuestion() bool {
	return request.Command == Question
}

// Parse never fails: unknown tokens become a Question carrying the raw text.
func Parse(input string) Request {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.TrimPrefix(normalized, "/")
	for _, command := range All() {
		if command == Question {
			continue
		}
		if normalized == definitions[command].token {
			return Request{Command: command, Raw: input}
		}
	}
	return Request{Command: Question, Raw: input}
}

// New builds the request a user would produce by typing the command's token.
func New(command Command) Request {
	return Request{Command: command, Raw: command.Token()}
}

// Directory lists the commands the fallback prompt may suggest.
func Directory() string {
	var builder strings.Builder
	for _, command := range All() {
		if command == Question || command == Opponent {
			continue
		}
		builder.WriteString(command.Token())
		builder.WriteString(": ")
		builder.WriteString(command.Description())
		builder.WriteString("\n")
	}
	return strings.TrimSuffix(builder.String(), "\n")
}
