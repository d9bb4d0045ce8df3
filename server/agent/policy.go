// Package agent defines the DecisionPolicy capability: one uniform way for a
// seat to turn rendered game-state text into a decision, whether the seat is
// backed by a language model or a learned policy.
package agent

import (
	"context"
	"time"
)

// Status classifies how a decision was obtained.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// DecisionResult is the structured outcome of one decision request. A failed
// primary source never surfaces as an error to the driver; it degrades to a
// fallback decision with the failure captured here.
type DecisionResult struct {
	Text         string        `json:"text"`
	Thinking     string        `json:"thinking,omitempty"`
	Latency      time.Duration `json:"-"`
	Model        string        `json:"model"`
	Status       Status        `json:"status"`
	FallbackUsed bool          `json:"fallback,omitempty"`
	ErrText      string        `json:"error,omitempty"`
}

// LatencySeconds reports the decision latency the way the match log stores it.
func (r DecisionResult) LatencySeconds() float64 { return r.Latency.Seconds() }

// DecisionPolicy is implemented by every decision source bound to a seat.
// Implementations are stateless with respect to game state but may hold a
// running dialogue transcript or a loaded policy table.
type DecisionPolicy interface {
	// Name identifies the policy in seat assignments and the match log.
	Name() string

	// Decide produces a decision for the rendered game-state text. It must
	// always return a usable result; source failures degrade to a fallback.
	Decide(ctx context.Context, prompt string) DecisionResult

	// ResetContext clears any running dialogue state between games.
	ResetContext()

	// UpdateWithResult is a hook for online learning, currently unused.
	UpdateWithResult(won bool)
}
