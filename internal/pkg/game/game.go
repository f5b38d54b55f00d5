package game

import (
	"regexp"
)

// Square is a board coordinate such as "e4". EmptySquare means no move is involved.
type Square string

const EmptySquare Square = "EMPTY"

var squarePattern = regexp.MustCompile(`^[a-h][1-8]$`)

// SquarePattern is shared with the response schema so both agree on what a square is.
const SquarePattern = `^([a-h][1-8]|EMPTY)$`

func (square Square) IsEmpty() bool {
	return square == EmptySquare
}

func (square Square) IsValid() bool {
	return squarePattern.MatchString(string(square))
}

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (color Color) Opposite() Color {
	if color == White {
		return Black
	}
	return White
}

func ParseColor(value string) (Color, bool) {
	switch value {
	case "white", "w", "White":
		return White, true
	case "black", "b", "Black":
		return Black, true
	}
	return "", false
}

// GameState holds the two serialized views of a position. Both are opaque to the advisory engine.
type GameState struct {
	PositionNotation    string `json:"fen"`
	MoveHistoryNotation string `json:"pgn"`
}

type LegalMove struct {
	From  Square `json:"from"`
	To    Square `json:"to"`
	Piece string `json:"piece,omitempty"`
}

func ContainsMove(moves []LegalMove, from Square, to Square) bool {
	for _, move := range moves {
		if move.From == from && move.To == to {
			return true
		}
	}
	return false
}
