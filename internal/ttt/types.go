package ttt

import "errors"

// Marker is the content of a single cell.
type Marker string

const (
	Empty Marker = ""
	X     Marker = "X"
	O     Marker = "O"
)

// Players is the fixed seat count of a game.
const Players = 2

// MarkerFor returns the marker of the player seated at index (0 → X, 1 → O).
func MarkerFor(player int) Marker {
	switch player {
	case 0:
		return X
	case 1:
		return O
	default:
		return Empty
	}
}

// Board is a row-major 3x3 grid.
type Board [9]Marker

// OutcomeKind describes how (or whether) a game has ended.
type OutcomeKind string

const (
	OutcomeNone   OutcomeKind = ""
	OutcomeWin    OutcomeKind = "win"
	OutcomeDraw   OutcomeKind = "draw"
	OutcomeForced OutcomeKind = "forced"
)

// Outcome is the evaluated state of a board.
type Outcome struct {
	Kind   OutcomeKind `json:"kind,omitempty"`
	Winner Marker      `json:"winner,omitempty"`
	Line   []int       `json:"line,omitempty"`
}

// Terminal reports whether the outcome ends the game.
func (o Outcome) Terminal() bool { return o.Kind != OutcomeNone }

var (
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell already occupied")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrGameOver     = errors.New("game is over")
	ErrNotInitiator = errors.New("only the initiating player can end the game")
)

// Triples are the winning lines: rows, columns, diagonals.
var Triples = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}
