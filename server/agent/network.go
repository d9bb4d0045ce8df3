package agent

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"llm-arcade/server/rl"
)

// NetworkPolicy serves the Deep-Q network: the discretized state feeds the
// fixed 3-input feed-forward network and the argmax of the two outputs is
// the decision. Like TabularPolicy, exploration defaults to off at serving
// time.
type NetworkPolicy struct {
	net     *rl.Network
	Epsilon float64
}

// NewNetworkPolicy wraps an in-memory network. A nil network means the
// default heuristic plays every state.
func NewNetworkPolicy(net *rl.Network) *NetworkPolicy {
	return &NetworkPolicy{net: net}
}

// LoadNetworkPolicy reads the flat weights file. A missing or unreadable
// file is never fatal: the policy degrades to the default heuristic.
func LoadNetworkPolicy(path string) *NetworkPolicy {
	net, err := rl.LoadNetwork(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).
			Msg("no pre-trained deep-q model found, using default policy")
		net = nil
	}
	return &NetworkPolicy{net: net}
}

func (p *NetworkPolicy) Name() string { return "deep_q" }

func (p *NetworkPolicy) Decide(ctx context.Context, prompt string) DecisionResult {
	start := time.Now()
	state := ParseBlackjackState(prompt)
	action := p.action(state)

	text := "STAND"
	if action == rl.ActionHit {
		text = "HIT"
	}
	return DecisionResult{
		Text: text,
		Thinking: fmt.Sprintf("Algorithm: deep_q\nPlayer sum: %d\nDealer visible: %d\nUsable ace: %v\nAction: %s",
			state.PlayerSum, state.DealerCard, state.UsableAce, text),
		Latency: time.Since(start),
		Model:   p.Name(),
		Status:  StatusSuccess,
	}
}

func (p *NetworkPolicy) action(state rl.State) int {
	if state.PlayerSum >= 21 {
		return rl.ActionStand
	}
	if p.Epsilon > 0 && rand.Float64() < p.Epsilon {
		return rand.IntN(2)
	}
	if p.net == nil {
		return rl.DefaultAction(state.PlayerSum)
	}
	return p.net.Argmax(state.Vector())
}

func (p *NetworkPolicy) ResetContext() {}

func (p *NetworkPolicy) UpdateWithResult(won bool) {}
