package engine

import (
	"errors"
	"fmt"
)

// Outcome identifies who won a finished game.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomePlayer Outcome = "player"
	OutcomeDealer Outcome = "dealer"
	OutcomeTie    Outcome = "tie"
	OutcomeDraw   Outcome = "draw"
)

// BlackjackAction is a parsed HIT/STAND decision.
type BlackjackAction string

const (
	Hit   BlackjackAction = "HIT"
	Stand BlackjackAction = "STAND"
)

// ErrGameOver is returned when an action is submitted after the game ended.
// The engine state is left untouched.
var ErrGameOver = errors.New("game is over")

// InvalidMoveError rejects an out-of-range or unplayable move.
type InvalidMoveError struct {
	Column int
	Reason string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move (column %d): %s", e.Column, e.Reason)
}

// UnparseableError carries the raw decision text for diagnostics when no
// recognizable action could be extracted from it.
type UnparseableError struct {
	Raw string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("could not extract an action from response %q", e.Raw)
}
