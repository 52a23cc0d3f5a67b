package ttt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardOf(cells string) Board {
	var b Board
	for i, r := range cells {
		switch r {
		case 'X':
			b[i] = X
		case 'O':
			b[i] = O
		}
	}
	return b
}

func TestNewGame(t *testing.T) {
	// Given: a freshly started game
	g := NewGame("gm")

	// Then: the board is empty and player one moves first
	assert.Equal(t, Board{}, g.Board)
	assert.Equal(t, 0, g.Current)
	assert.Equal(t, X, g.CurrentMarker())
	assert.False(t, g.Finished())
	assert.Len(t, g.AvailableMoves(), 9)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		board  string
		kind   OutcomeKind
		winner Marker
	}{
		{name: "empty board", board: ".........", kind: OutcomeNone},
		{name: "top row", board: "XXXOO....", kind: OutcomeWin, winner: X},
		{name: "middle row", board: "XX.OOOX..", kind: OutcomeWin, winner: O},
		{name: "bottom row", board: "OO.X..XXX", kind: OutcomeWin, winner: X},
		{name: "left column", board: "OX.OX.O..", kind: OutcomeWin, winner: O},
		{name: "middle column", board: "OX..XO.X.", kind: OutcomeWin, winner: X},
		{name: "right column", board: "XXOX.O..O", kind: OutcomeWin, winner: O},
		{name: "main diagonal", board: "XO.OX...X", kind: OutcomeWin, winner: X},
		{name: "anti diagonal", board: "XXO.O.OX.", kind: OutcomeWin, winner: O},
		{name: "full board without line", board: "XOXXOOOXX", kind: OutcomeDraw},
		{name: "mixed line is not a win", board: "XOX......", kind: OutcomeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(boardOf(tt.board))
			assert.Equal(t, tt.kind, out.Kind)
			assert.Equal(t, tt.winner, out.Winner)
		})
	}
}

func TestEvaluate_WinIffSomeTripleMatches(t *testing.T) {
	// Every one of the 8 triples filled with the same marker is a win, and the reported line is that triple.
	for _, tr := range Triples {
		var b Board
		for _, i := range tr {
			b[i] = O
		}
		out := Evaluate(b)
		require.Equal(t, OutcomeWin, out.Kind)
		assert.Equal(t, O, out.Winner)
		assert.Equal(t, []int{tr[0], tr[1], tr[2]}, out.Line)
	}
}

func TestGame_Play(t *testing.T) {
	t.Run("alternates turns", func(t *testing.T) {
		g := NewGame("gm")

		require.NoError(t, g.Play(0, 4))
		assert.Equal(t, 1, g.Current)
		require.NoError(t, g.Play(1, 0))
		assert.Equal(t, 0, g.Current)
		assert.Equal(t, []int{4, 0}, g.Moves)
	})

	t.Run("rejects occupied cell without changing the board", func(t *testing.T) {
		g := NewGame("gm")
		require.NoError(t, g.Play(0, 4))
		before := g.Board

		err := g.Play(1, 4)

		assert.ErrorIs(t, err, ErrCellOccupied)
		assert.Equal(t, before, g.Board)
		assert.Equal(t, 1, g.Current)
	})

	t.Run("rejects out of turn move", func(t *testing.T) {
		g := NewGame("gm")

		err := g.Play(1, 0)

		assert.ErrorIs(t, err, ErrNotYourTurn)
		assert.Equal(t, Board{}, g.Board)
	})

	t.Run("rejects cells outside the grid", func(t *testing.T) {
		g := NewGame("gm")

		assert.ErrorIs(t, g.Play(0, -1), ErrInvalidCell)
		assert.ErrorIs(t, g.Play(0, 9), ErrInvalidCell)
		assert.Equal(t, Board{}, g.Board)
	})

	t.Run("player one wins with the top row", func(t *testing.T) {
		g := NewGame("gm")
		for _, mv := range [][2]int{{0, 0}, {1, 3}, {0, 1}, {1, 4}, {0, 2}} {
			require.NoError(t, g.Play(mv[0], mv[1]))
		}

		assert.True(t, g.Finished())
		assert.Equal(t, OutcomeWin, g.Outcome.Kind)
		assert.Equal(t, X, g.Outcome.Winner)
		assert.Equal(t, 0, g.Current, "turn stays with the winner")
		assert.ErrorIs(t, g.Play(1, 8), ErrGameOver)
	})

	t.Run("full board is a draw", func(t *testing.T) {
		g := NewGame("gm")
		// X O X / X O O / O X X
		for i, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			require.NoError(t, g.Play(i%2, cell))
		}

		assert.Equal(t, OutcomeDraw, g.Outcome.Kind)
		assert.Empty(t, g.AvailableMoves())
	})
}

func TestGame_ForceEnd(t *testing.T) {
	t.Run("initiator can end the game", func(t *testing.T) {
		g := NewGame("gm")

		require.NoError(t, g.ForceEnd("gm"))
		assert.Equal(t, OutcomeForced, g.Outcome.Kind)
		assert.True(t, g.Finished())
	})

	t.Run("anyone else leaves the state unchanged", func(t *testing.T) {
		g := NewGame("gm")
		require.NoError(t, g.Play(0, 4))
		before := g.Clone()

		err := g.ForceEnd("someone")

		assert.ErrorIs(t, err, ErrNotInitiator)
		assert.Equal(t, before, g)
	})

	t.Run("finished game cannot be ended again", func(t *testing.T) {
		g := NewGame("gm")
		require.NoError(t, g.ForceEnd("gm"))

		assert.ErrorIs(t, g.ForceEnd("gm"), ErrGameOver)
	})
}

func TestGame_AvailableMoves(t *testing.T) {
	g := NewGame("gm")
	require.NoError(t, g.Play(0, 0))
	require.NoError(t, g.Play(1, 8))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, g.AvailableMoves())
}
