package ttt

import (
	"fmt"
	"strings"
)

// Game holds the rule state of one align-three match.
type Game struct {
	Board       Board   `json:"board"`
	Current     int     `json:"current"`
	Moves       []int   `json:"moves"`
	InitiatorID string  `json:"initiator_id"`
	Outcome     Outcome `json:"outcome"`
}

// NewGame returns an empty board with player one to move.
func NewGame(initiatorID string) *Game {
	return &Game{
		Moves:       []int{},
		InitiatorID: strings.TrimSpace(initiatorID),
	}
}

// Evaluate checks the fixed triples first, then a full board.
func Evaluate(b Board) Outcome {
	for _, t := range Triples {
		a := b[t[0]]
		if a != Empty && a == b[t[1]] && a == b[t[2]] {
			return Outcome{Kind: OutcomeWin, Winner: a, Line: []int{t[0], t[1], t[2]}}
		}
	}
	for _, c := range b {
		if c == Empty {
			return Outcome{}
		}
	}
	return Outcome{Kind: OutcomeDraw}
}

// Play places the marker of player on cell. A rejected move leaves the game untouched.
func (g *Game) Play(player, cell int) error {
	if g.Outcome.Terminal() {
		return ErrGameOver
	}
	if player != g.Current {
		return ErrNotYourTurn
	}
	if cell < 0 || cell >= len(g.Board) {
		return fmt.Errorf("%w: %d", ErrInvalidCell, cell)
	}
	if g.Board[cell] != Empty {
		return ErrCellOccupied
	}

	g.Board[cell] = MarkerFor(player)
	g.Moves = append(g.Moves, cell)
	g.Outcome = Evaluate(g.Board)
	if !g.Outcome.Terminal() {
		g.Current = (g.Current + 1) % Players
	}
	return nil
}

// ForceEnd ends the game on behalf of issuerID, which must be the initiator.
func (g *Game) ForceEnd(issuerID string) error {
	if g.Outcome.Terminal() {
		return ErrGameOver
	}
	if g.InitiatorID == "" || strings.TrimSpace(issuerID) != g.InitiatorID {
		return ErrNotInitiator
	}
	g.Outcome = Outcome{Kind: OutcomeForced}
	return nil
}

// AvailableMoves lists the empty cells in ascending order.
func (g *Game) AvailableMoves() []int {
	out := make([]int, 0, len(g.Board))
	for i, c := range g.Board {
		if c == Empty {
			out = append(out, i)
		}
	}
	return out
}

// CurrentMarker is the marker of the player to move.
func (g *Game) CurrentMarker() Marker { return MarkerFor(g.Current) }

// Finished reports whether the game has a terminal outcome.
func (g *Game) Finished() bool { return g.Outcome.Terminal() }

// Clone returns a deep copy.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	cp := *g
	cp.Moves = append([]int(nil), g.Moves...)
	cp.Outcome.Line = append([]int(nil), g.Outcome.Line...)
	return &cp
}
