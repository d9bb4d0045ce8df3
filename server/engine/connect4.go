package engine

import (
	"fmt"
	"strings"
)

// Connect 4 board dimensions.
const (
	Cols      = 7
	Rows      = 6
	TotalCell = Cols * Rows
)

// CellMove records the column and row of the last placed piece.
type CellMove struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Connect4Engine is a pure state machine over a 7x6 gravity board.
// Cells hold 0 (empty), 1 or 2. Board is column-major; row 0 is the top.
type Connect4Engine struct {
	Board    [Cols][Rows]int `json:"board"`
	Current  int             `json:"current_player"`
	Over     bool            `json:"game_over"`
	Winner   int             `json:"winner"` // 1 or 2; 0 means draw once Over
	LastMove *CellMove       `json:"last_move"`
	Moves    int             `json:"moves_count"`
}

func NewConnect4() *Connect4Engine {
	g := &Connect4Engine{}
	g.Reset()
	return g
}

func (g *Connect4Engine) Reset() {
	*g = Connect4Engine{Current: 1}
}

// ApplyMove drops the active player's piece into the given column. The win
// check runs before the draw check so a winning 42nd piece scores as a win.
func (g *Connect4Engine) ApplyMove(column int) error {
	if g.Over {
		return ErrGameOver
	}
	if column < 0 || column >= Cols {
		return &InvalidMoveError{Column: column, Reason: "column out of range"}
	}
	row := -1
	for r := Rows - 1; r >= 0; r-- {
		if g.Board[column][r] == 0 {
			row = r
			break
		}
	}
	if row < 0 {
		return &InvalidMoveError{Column: column, Reason: "column is full"}
	}

	g.Board[column][row] = g.Current
	g.LastMove = &CellMove{Col: column, Row: row}
	g.Moves++

	switch {
	case g.checkWin(column, row):
		g.Over = true
		g.Winner = g.Current
	case g.Moves == TotalCell:
		g.Over = true
		g.Winner = 0
	default:
		g.Current = 3 - g.Current
	}
	return nil
}

// checkWin scans the four axes through the just-placed cell, counting
// consecutive same-owner cells in both directions.
func (g *Connect4Engine) checkWin(col, row int) bool {
	player := g.Board[col][row]
	axes := [4][2][2]int{
		{{0, 1}, {0, -1}},  // vertical
		{{1, 0}, {-1, 0}},  // horizontal
		{{1, 1}, {-1, -1}}, // diagonal /
		{{1, -1}, {-1, 1}}, // diagonal \
	}
	for _, axis := range axes {
		count := 1
		for _, dir := range axis {
			x, y := col, row
			for step := 0; step < 3; step++ {
				x += dir[0]
				y += dir[1]
				if x < 0 || x >= Cols || y < 0 || y >= Rows || g.Board[x][y] != player {
					break
				}
				count++
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}

// ValidMoves lists playable columns, empty once the game is over.
func (g *Connect4Engine) ValidMoves() []int {
	if g.Over {
		return nil
	}
	var cols []int
	for c := 0; c < Cols; c++ {
		if g.Board[c][0] == 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

// Prompt renders the board and move instructions for the active player.
func (g *Connect4Engine) Prompt() string {
	var b strings.Builder
	b.WriteString("\nYou are playing Connect 4 against another player. Here's the current game state:\n\n")
	b.WriteString("Current board (0=empty, 1=red, 2=yellow):\n")
	for r := 0; r < Rows; r++ {
		b.WriteString("|")
		for c := 0; c < Cols; c++ {
			switch g.Board[c][r] {
			case 1:
				b.WriteString("R")
			case 2:
				b.WriteString("Y")
			default:
				b.WriteString(" ")
			}
			b.WriteString("|")
		}
		b.WriteString("\n")
	}
	b.WriteString("+-+-+-+-+-+-+-+\n")
	b.WriteString("|0|1|2|3|4|5|6|\n\n")

	color := "red (R)"
	if g.Current == 2 {
		color = "yellow (Y)"
	}
	fmt.Fprintf(&b, "You are %s (player %d).\n\n", color, g.Current)
	b.WriteString("Please choose a column (0-6) to drop your piece.\n\n")
	b.WriteString("You can use <think>...</think> tags to show your reasoning process.\n\n")
	b.WriteString("Respond with ONLY a single digit (0-6) representing your chosen column.\n")
	return b.String()
}

// MoveResult reports the outcome of applying a free-form response.
type MoveResult struct {
	Column   int    `json:"column"`
	Success  bool   `json:"success"`
	Thinking string `json:"thinking,omitempty"`
	Err      error  `json:"-"`
}

// ApplyResponse extracts a column from the response text and plays it.
func (g *Connect4Engine) ApplyResponse(response string) MoveResult {
	thinking, _ := StripThinking(response)
	column, err := ParseColumn(response)
	if err != nil {
		return MoveResult{Column: -1, Thinking: thinking, Err: err}
	}
	if err := g.ApplyMove(column); err != nil {
		return MoveResult{Column: column, Thinking: thinking, Err: err}
	}
	return MoveResult{Column: column, Success: true, Thinking: thinking}
}
