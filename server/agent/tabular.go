package agent

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"llm-arcade/server/rl"
)

// TabularPolicy serves the Monte Carlo policy table. Unseen states fall back
// to the hit-below-17 heuristic. Exploration defaults to off at serving time
// so a fixed state always yields the same decision; set Epsilon to restore
// the legacy epsilon-greedy behavior.
type TabularPolicy struct {
	model   *rl.TabularModel
	Epsilon float64
}

// NewTabularPolicy wraps an in-memory model.
func NewTabularPolicy(model *rl.TabularModel) *TabularPolicy {
	if model == nil {
		model = &rl.TabularModel{Policy: map[string]int{}}
	}
	return &TabularPolicy{model: model}
}

// LoadTabularPolicy reads the flat policy file. A missing or unreadable file
// is never fatal: the policy starts with an empty table, meaning the default
// heuristic plays every state.
func LoadTabularPolicy(path string) *TabularPolicy {
	model, err := rl.LoadTabularModel(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("no pre-trained monte carlo model found, using default policy")
		model = &rl.TabularModel{Policy: map[string]int{}}
	}
	return &TabularPolicy{model: model}
}

func (p *TabularPolicy) Name() string { return "monte_carlo" }

func (p *TabularPolicy) Decide(ctx context.Context, prompt string) DecisionResult {
	start := time.Now()
	state := ParseBlackjackState(prompt)
	action := p.action(state)

	text := "STAND"
	if action == rl.ActionHit {
		text = "HIT"
	}
	return DecisionResult{
		Text: text,
		Thinking: fmt.Sprintf("Algorithm: monte_carlo\nPlayer sum: %d\nDealer visible: %d\nUsable ace: %v\nAction: %s",
			state.PlayerSum, state.DealerCard, state.UsableAce, text),
		Latency: time.Since(start),
		Model:   p.Name(),
		Status:  StatusSuccess,
	}
}

func (p *TabularPolicy) action(state rl.State) int {
	if state.PlayerSum >= 21 {
		return rl.ActionStand
	}
	if p.Epsilon > 0 && rand.Float64() < p.Epsilon {
		return rand.IntN(2)
	}
	return p.model.Action(state)
}

func (p *TabularPolicy) ResetContext() {}

func (p *TabularPolicy) UpdateWithResult(won bool) {}
