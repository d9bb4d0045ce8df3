package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"llm-arcade/server/engine"
)

func TestParseBlackjackStateFromEnginePrompt(t *testing.T) {
	g := engine.NewBlackjack(engine.NewStackedDeck(
		engine.NewCard("hearts", "9"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "7"),
		engine.NewCard("diamonds", "8"),
	))
	g.Start()

	s := ParseBlackjackState(g.PlayerPrompt())
	require.Equal(t, 16, s.PlayerSum)
	require.Equal(t, 8, s.DealerCard)
	require.False(t, s.UsableAce)
}

func TestParseBlackjackStateWithAce(t *testing.T) {
	g := engine.NewBlackjack(engine.NewStackedDeck(
		engine.NewCard("hearts", "A"),
		engine.NewCard("spades", "K"),
		engine.NewCard("clubs", "6"),
		engine.NewCard("diamonds", "10"),
	))
	g.Start()

	s := ParseBlackjackState(g.PlayerPrompt())
	require.Equal(t, 17, s.PlayerSum, "ace counts as 11 in a soft 17")
	require.Equal(t, 10, s.DealerCard)
}

func TestParseBlackjackStateFaceCards(t *testing.T) {
	g := engine.NewBlackjack(engine.NewStackedDeck(
		engine.NewCard("hearts", "Q"),
		engine.NewCard("spades", "2"),
		engine.NewCard("clubs", "J"),
		engine.NewCard("diamonds", "A"),
	))
	g.Start()

	s := ParseBlackjackState(g.PlayerPrompt())
	require.Equal(t, 20, s.PlayerSum, "face cards count 10 each")
	require.Equal(t, 11, s.DealerCard, "dealer ace reads as 11")
}

func TestParseBlackjackStateEmptyPrompt(t *testing.T) {
	s := ParseBlackjackState("not a blackjack prompt at all")
	require.Zero(t, s.PlayerSum)
	require.Zero(t, s.DealerCard)
}
