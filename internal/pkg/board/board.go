package board

import (
	"chester/internal/pkg/failures"
	"chester/internal/pkg/game"
	"fmt"
	"github.com/notnil/chess"
	"strings"
	"sync"
)

// Board is the rules engine the session consults. It owns legality; callers never re-check it.
type Board interface {
	State() game.GameState
	LegalMoves() []game.LegalMove
	ApplyMove(from game.Square, to game.Square) error
	Turn() game.Color
	Reset()
	Outcome() string
	IsOver() bool
}

type ChessBoard struct {
	mutex sync.RWMutex
	game  *chess.Game
}

func New() *ChessBoard {
	return &ChessBoard{game: chess.NewGame()}
}

// FromPGN replays a move history. An empty history is the starting position.
func FromPGN(pgn string) (*ChessBoard, error) {
	if strings.TrimSpace(pgn) == "" {
		return New(), nil
	}
	option, err := chess.PGN(strings.NewReader(withResult(pgn)))
	if err != nil {
		return nil, fmt.Errorf("chess.PGN() failed: %w", err)
	}
	return &ChessBoard{game: chess.NewGame(option)}, nil
}

// FromFEN starts from a position with no move history.
func FromFEN(fen string) (*ChessBoard, error) {
	option, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("chess.FEN() failed: %w", err)
	}
	return &ChessBoard{game: chess.NewGame(option)}, nil
}

func (instance *ChessBoard) State() game.GameState {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	return game.GameState{
		PositionNotation:    instance.game.FEN(),
		MoveHistoryNotation: moveHistory(instance.game),
	}
}

// moveHistory is the PGN movetext without the "*" placeholder of a game in progress.
func moveHistory(chessGame *chess.Game) string {
	pgn := strings.TrimSpace(chessGame.String())
	if chessGame.Outcome() == chess.NoOutcome {
		pgn = strings.TrimSpace(strings.TrimSuffix(pgn, string(chess.NoOutcome)))
	}
	return pgn
}

func withResult(pgn string) string {
	pgn = strings.TrimSpace(pgn)
	for _, result := range []chess.Outcome{chess.NoOutcome, chess.WhiteWon, chess.BlackWon, chess.Draw} {
		if strings.HasSuffix(pgn, string(result)) {
			return pgn
		}
	}
	return pgn + " " + string(chess.NoOutcome)
}

// LegalMoves lists every legal move once per from/to pair; promotions collapse into one entry.
func (instance *ChessBoard) LegalMoves() []game.LegalMove {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	position := instance.game.Position()
	moves := make([]game.LegalMove, 0)
	for _, move := range instance.game.ValidMoves() {
		from := game.Square(move.S1().String())
		to := game.Square(move.S2().String())
		if game.ContainsMove(moves, from, to) {
			continue
		}
		moves = append(moves, game.LegalMove{
			From:  from,
			To:    to,
			Piece: position.Board().Piece(move.S1()).Type().String(),
		})
	}
	return moves
}

// ApplyMove plays from-to for the side to move. Promotions become a queen.
func (instance *ChessBoard) ApplyMove(from game.Square, to game.Square) error {
	instance.mutex.Lock()
	defer instance.mutex.Unlock()

	move := findMove(instance.game.ValidMoves(), from, to)
	if move == nil {
		return fmt.Errorf("%w: %s%s", failures.ErrIllegalMove, from, to)
	}
	if err := instance.game.Move(move); err != nil {
		return fmt.Errorf("%w: %w", failures.ErrIllegalMove, err)
	}
	return nil
}

func findMove(moves []*chess.Move, from game.Square, to game.Square) *chess.Move {
	var found *chess.Move
	for _, move := range moves {
		if move.S1().String() != string(from) || move.S2().String() != string(to) {
			continue
		}
		if move.Promo() == chess.NoPieceType || move.Promo() == chess.Queen {
			return move
		}
		if found == nil {
			found = move
		}
	}
	return found
}

func (instance *ChessBoard) Turn() game.Color {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	if instance.game.Position().Turn() == chess.Black {
		return game.Black
	}
	return game.White
}

func (instance *ChessBoard) Reset() {
	instance.mutex.Lock()
	instance.game = chess.NewGame()
	instance.mutex.Unlock()
}

// Outcome is "*" while the game is in progress, otherwise "1-0", "0-1" or "1/2-1/2".
func (instance *ChessBoard) Outcome() string {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	return string(instance.game.Outcome())
}

func (instance *ChessBoard) IsOver() bool {
	return instance.Outcome() != string(chess.NoOutcome)
}

// Render draws the position from white's side.
func (instance *ChessBoard) Render() string {
	instance.mutex.RLock()
	defer instance.mutex.RUnlock()

	return instance.game.Position().Board().Draw()
}
