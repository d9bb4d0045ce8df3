package rl

import "fmt"

// Actions shared by the environment, the training loops and the serving
// policies. STAND is 0 so a zero-valued table entry is the safe action.
const (
	ActionStand = 0
	ActionHit   = 1
)

// State is the discretized blackjack decision state: the player total after
// soft-ace reduction, the dealer's visible card value and whether the player
// holds an ace still counted as 11.
type State struct {
	PlayerSum  int  `json:"player_sum"`
	DealerCard int  `json:"dealer_card"`
	UsableAce  bool `json:"usable_ace"`
}

// Key is the stable string form used in the flat policy files.
func (s State) Key() string {
	ace := 0
	if s.UsableAce {
		ace = 1
	}
	return fmt.Sprintf("%d,%d,%d", s.PlayerSum, s.DealerCard, ace)
}

// Vector is the network input encoding of the state.
func (s State) Vector() [3]float64 {
	ace := 0.0
	if s.UsableAce {
		ace = 1.0
	}
	return [3]float64{float64(s.PlayerSum), float64(s.DealerCard), ace}
}

// StateFromCards builds a State from raw card values (aces as 11), demoting
// one ace from 11 to 1 when the raw total busts.
func StateFromCards(playerCards []int, dealerCard int) State {
	sum := 0
	hasAce := false
	for _, v := range playerCards {
		sum += v
		if v == 11 {
			hasAce = true
		}
	}
	usable := hasAce && sum > 21
	if usable {
		sum -= 10
	}
	return State{PlayerSum: sum, DealerCard: dealerCard, UsableAce: usable}
}
