package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"llm-arcade/server/engine"
	"llm-arcade/server/rl"
)

func blackjackPrompt(t *testing.T, cards ...engine.Card) string {
	t.Helper()
	g := engine.NewBlackjack(engine.NewStackedDeck(cards...))
	g.Start()
	return g.PlayerPrompt()
}

func TestTabularPolicyFollowsTable(t *testing.T) {
	model := &rl.TabularModel{Policy: map[string]int{
		"16,10,0": rl.ActionStand, // against the heuristic, to prove the table wins
	}}
	p := NewTabularPolicy(model)

	prompt := blackjackPrompt(t,
		engine.NewCard("hearts", "9"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "7"),
		engine.NewCard("diamonds", "10"),
	)

	res := p.Decide(context.Background(), prompt)
	require.Equal(t, "STAND", res.Text)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, "monte_carlo", res.Model)
	require.Contains(t, res.Thinking, "Algorithm: monte_carlo")
	require.Contains(t, res.Thinking, "Player sum: 16")
}

func TestTabularPolicyHeuristicOnUnseenState(t *testing.T) {
	p := NewTabularPolicy(nil)

	low := blackjackPrompt(t,
		engine.NewCard("hearts", "5"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "7"),
		engine.NewCard("diamonds", "10"),
	)
	require.Equal(t, "HIT", p.Decide(context.Background(), low).Text)

	high := blackjackPrompt(t,
		engine.NewCard("hearts", "9"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "10"),
		engine.NewCard("diamonds", "6"),
	)
	require.Equal(t, "STAND", p.Decide(context.Background(), high).Text)
}

func TestTabularPolicyDeterministicWithoutEpsilon(t *testing.T) {
	p := LoadTabularPolicy(filepath.Join(t.TempDir(), "missing.json"))

	prompt := blackjackPrompt(t,
		engine.NewCard("hearts", "9"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "7"),
		engine.NewCard("diamonds", "10"),
	)
	first := p.Decide(context.Background(), prompt).Text
	for i := 0; i < 20; i++ {
		require.Equal(t, first, p.Decide(context.Background(), prompt).Text,
			"no exploration at serving time")
	}
}

func TestNetworkPolicyHeuristicWithoutWeights(t *testing.T) {
	p := LoadNetworkPolicy(filepath.Join(t.TempDir(), "missing.json"))

	low := blackjackPrompt(t,
		engine.NewCard("hearts", "5"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "7"),
		engine.NewCard("diamonds", "10"),
	)
	res := p.Decide(context.Background(), low)
	require.Equal(t, "HIT", res.Text)
	require.Equal(t, "deep_q", res.Model)
	require.Contains(t, res.Thinking, "Algorithm: deep_q")
}

func TestNetworkPolicyUsesTrainedWeights(t *testing.T) {
	n := rl.TrainDeepQ(rl.WithDQEpisodes(50), rl.WithDQBatchSize(16), rl.WithDQSeed(4))
	p := NewNetworkPolicy(n)

	prompt := blackjackPrompt(t,
		engine.NewCard("hearts", "9"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "7"),
		engine.NewCard("diamonds", "10"),
	)
	res := p.Decide(context.Background(), prompt)
	require.Contains(t, []string{"HIT", "STAND"}, res.Text)

	want := "STAND"
	if n.Argmax(rl.State{PlayerSum: 16, DealerCard: 10}.Vector()) == rl.ActionHit {
		want = "HIT"
	}
	require.Equal(t, want, res.Text, "decision matches the network argmax")
}

func TestRLPoliciesStandAtTwentyOne(t *testing.T) {
	// Policies never hit a made 21 regardless of what the table or network
	// would say.
	model := &rl.TabularModel{Policy: map[string]int{"21,10,0": rl.ActionHit}}
	tp := NewTabularPolicy(model)
	require.Equal(t, rl.ActionStand, tp.action(rl.State{PlayerSum: 21, DealerCard: 10}))

	np := NewNetworkPolicy(nil)
	require.Equal(t, rl.ActionStand, np.action(rl.State{PlayerSum: 21, DealerCard: 10}))
	require.Equal(t, rl.ActionStand, np.action(rl.State{PlayerSum: 22, DealerCard: 5}))
}
