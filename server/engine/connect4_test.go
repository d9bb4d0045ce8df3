package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func playAll(t *testing.T, g *Connect4Engine, columns ...int) {
	t.Helper()
	for _, c := range columns {
		require.NoError(t, g.ApplyMove(c))
	}
}

func TestConnect4GravityAndTurns(t *testing.T) {
	g := NewConnect4()
	require.Equal(t, 1, g.Current)

	playAll(t, g, 3, 3, 3)
	require.Equal(t, 1, g.Board[3][Rows-1], "first piece rests on the floor")
	require.Equal(t, 2, g.Board[3][Rows-2], "second piece stacks on top")
	require.Equal(t, 1, g.Board[3][Rows-3])
	require.Equal(t, 2, g.Current, "turn alternates after each move")
	require.Equal(t, 3, g.Moves)
	require.Equal(t, &CellMove{Col: 3, Row: Rows - 3}, g.LastMove)
}

func TestConnect4VerticalWin(t *testing.T) {
	g := NewConnect4()
	playAll(t, g, 0, 1, 0, 1, 0, 1, 0)
	require.True(t, g.Over)
	require.Equal(t, 1, g.Winner)
	require.Nil(t, g.ValidMoves())
}

func TestConnect4HorizontalWin(t *testing.T) {
	g := NewConnect4()
	playAll(t, g, 0, 0, 1, 1, 2, 2, 3)
	require.True(t, g.Over)
	require.Equal(t, 1, g.Winner)
}

func TestConnect4DiagonalWin(t *testing.T) {
	// Player 1 builds the rising diagonal (0,floor) .. (3,floor-3).
	g := NewConnect4()
	playAll(t, g,
		0, 1, // p1 floor of 0, p2 floor of 1
		1, 2, // p1 on 1, p2 floor of 2
		2, 3, // p1 on 2, p2 floor of 3
		2, 3, // p1 tops 2, p2 on 3
		3, 6, // p1 on 3 (height 3), p2 elsewhere
		3, // p1 completes the diagonal
	)
	require.True(t, g.Over)
	require.Equal(t, 1, g.Winner)
}

func TestConnect4ThreeInARowIsNotAWin(t *testing.T) {
	g := NewConnect4()
	playAll(t, g, 0, 0, 1, 1, 2, 2)
	require.False(t, g.Over)
	require.Equal(t, 0, g.Winner)
}

func TestConnect4InvalidMoves(t *testing.T) {
	g := NewConnect4()

	var invalid *InvalidMoveError
	require.ErrorAs(t, g.ApplyMove(-1), &invalid)
	require.ErrorAs(t, g.ApplyMove(Cols), &invalid)

	for i := 0; i < Rows; i++ {
		require.NoError(t, g.ApplyMove(0))
	}
	err := g.ApplyMove(0)
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, 0, invalid.Column)

	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, g.ValidMoves())
}

func TestConnect4RejectsMovesAfterGameOver(t *testing.T) {
	g := NewConnect4()
	playAll(t, g, 0, 1, 0, 1, 0, 1, 0)
	require.True(t, g.Over)
	require.ErrorIs(t, g.ApplyMove(3), ErrGameOver)
}

// A board that fills completely with the 42nd piece completing four in a row
// must score as a win, not a draw.
func TestConnect4WinOnFinalCell(t *testing.T) {
	g := NewConnect4()
	// 41 pieces placed, only the top of column 6 free. Rows 1-3 of column 6
	// belong to player 1, so the final drop completes a vertical four.
	for c := 0; c < Cols-1; c++ {
		for r := 0; r < Rows; r++ {
			g.Board[c][r] = 1 + (c+r)%2
		}
	}
	g.Board[6][5], g.Board[6][4] = 2, 2
	g.Board[6][3], g.Board[6][2], g.Board[6][1] = 1, 1, 1
	g.Moves = TotalCell - 1
	g.Current = 1

	require.NoError(t, g.ApplyMove(6))
	require.True(t, g.Over)
	require.Equal(t, 1, g.Winner, "winning 42nd piece scores as a win, not a draw")
	require.Equal(t, TotalCell, g.Moves)
}

func TestConnect4DrawOnFullBoard(t *testing.T) {
	g := NewConnect4()
	// Same position, but the final piece belongs to player 2 and connects
	// nothing.
	for c := 0; c < Cols-1; c++ {
		for r := 0; r < Rows; r++ {
			g.Board[c][r] = 1 + (c+r)%2
		}
	}
	g.Board[6][5], g.Board[6][4] = 1, 1
	g.Board[6][3], g.Board[6][2], g.Board[6][1] = 2, 2, 1
	g.Moves = TotalCell - 1
	g.Current = 2

	require.NoError(t, g.ApplyMove(6))
	require.True(t, g.Over)
	require.Equal(t, 0, g.Winner, "full board with no connection is a draw")
	require.Nil(t, g.ValidMoves())
}

func TestConnect4PromptRendersBoard(t *testing.T) {
	g := NewConnect4()
	playAll(t, g, 0, 1)
	p := g.Prompt()
	require.Contains(t, p, "|R| | | | | | |")
	require.Contains(t, p, "| |Y| | | | | |")
	require.Contains(t, p, "|0|1|2|3|4|5|6|")
	require.Contains(t, p, "You are red (R) (player 1).")

	playAll(t, g, 2)
	require.Contains(t, g.Prompt(), "You are yellow (Y) (player 2).")
}

func TestConnect4ApplyResponse(t *testing.T) {
	g := NewConnect4()

	res := g.ApplyResponse("<think>center control</think>3")
	require.True(t, res.Success)
	require.Equal(t, 3, res.Column)
	require.Equal(t, "center control", res.Thinking)
	require.Equal(t, 1, g.Board[3][Rows-1])

	res = g.ApplyResponse("no move at all")
	require.False(t, res.Success)
	require.Error(t, res.Err)
	require.Equal(t, -1, res.Column)
	require.Equal(t, 2, g.Current, "failed parse must not consume the turn")
}
