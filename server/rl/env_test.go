package rl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateKeyAndVector(t *testing.T) {
	s := State{PlayerSum: 15, DealerCard: 10, UsableAce: true}
	require.Equal(t, "15,10,1", s.Key())
	require.Equal(t, [3]float64{15, 10, 1}, s.Vector())

	s.UsableAce = false
	require.Equal(t, "15,10,0", s.Key())
}

func TestStateFromCards(t *testing.T) {
	// Ace counted as 11 while under 21.
	s := StateFromCards([]int{11, 6}, 10)
	require.Equal(t, 17, s.PlayerSum)
	require.False(t, s.UsableAce, "17 does not bust, no demotion happened")

	// Raw total busts, the ace demotes and is flagged usable.
	s = StateFromCards([]int{11, 6, 10}, 5)
	require.Equal(t, 17, s.PlayerSum)
	require.True(t, s.UsableAce)

	s = StateFromCards([]int{10, 9}, 2)
	require.Equal(t, 19, s.PlayerSum)
	require.False(t, s.UsableAce)
}

func TestEnvCardDistribution(t *testing.T) {
	e := NewEnv(11)
	counts := make(map[int]int)
	for i := 0; i < 13000; i++ {
		c := e.drawCard()
		counts[c]++
	}
	require.Empty(t, counts[1], "aces surface as 11")
	for c := 2; c <= 9; c++ {
		require.Greater(t, counts[c], 0, "card %d never drawn", c)
	}
	// 10, J, Q, K all fold to 10: roughly 4x the frequency of a pip card.
	require.Greater(t, counts[10], 3*counts[5])
	require.Greater(t, counts[11], 0)
}

func TestEnvEpisodeTerminates(t *testing.T) {
	e := NewEnv(3)
	for episode := 0; episode < 200; episode++ {
		state := e.Reset()
		require.GreaterOrEqual(t, state.PlayerSum, 4)
		require.LessOrEqual(t, state.PlayerSum, 21)

		done := false
		for steps := 0; !done; steps++ {
			require.Less(t, steps, 30, "episode must terminate")
			var reward float64
			state, reward, done = e.Step(ActionHit)
			if done {
				require.Equal(t, -1.0, reward, "hitting only ends an episode by busting")
			}
		}
	}
}

func TestEnvStandResolvesAgainstDealer(t *testing.T) {
	e := NewEnv(5)
	wins, losses, ties := 0, 0, 0
	for episode := 0; episode < 500; episode++ {
		e.Reset()
		_, reward, done := e.Step(ActionStand)
		require.True(t, done, "standing always ends the episode")
		switch reward {
		case 1:
			wins++
		case -1:
			losses++
		case 0:
			ties++
		default:
			t.Fatalf("unexpected reward %v", reward)
		}
	}
	require.Greater(t, wins, 0)
	require.Greater(t, losses, 0)
	require.Greater(t, ties, 0)
}

func TestEnvStateKeysAreWellFormed(t *testing.T) {
	e := NewEnv(9)
	for i := 0; i < 100; i++ {
		s := e.Reset()
		require.Len(t, strings.Split(s.Key(), ","), 3)
		require.GreaterOrEqual(t, s.DealerCard, 2)
		require.LessOrEqual(t, s.DealerCard, 11)
	}
}
