package rl

import (
	"math/rand/v2"
	"time"
)

// Env is the minimal simulated blackjack environment the training loops run
// against. Cards are drawn with replacement: uniform over 1..13 with face
// cards folding to 10 and the ace to 11. Rewards are +1/0/-1 on terminal
// states and 0 on a non-busting hit.
type Env struct {
	rng *rand.Rand

	playerCards []int
	dealerUp    int
	dealerHole  int
}

// NewEnv returns an environment. Seed 0 seeds from the clock.
func NewEnv(seed uint64) *Env {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Env{rng: rand.New(rand.NewPCG(seed, seed^0xd1b54a32d192ed03))}
}

func (e *Env) drawCard() int {
	card := e.rng.IntN(13) + 1
	if card > 10 {
		return 10 // face card
	}
	if card == 1 {
		return 11 // ace
	}
	return card
}

// Reset starts a new episode: two player cards, one dealer up card and one
// hole card.
func (e *Env) Reset() State {
	e.playerCards = []int{e.drawCard(), e.drawCard()}
	e.dealerUp = e.drawCard()
	e.dealerHole = e.drawCard()
	return e.state()
}

// Step applies an action and returns the next state, the reward and whether
// the episode ended.
func (e *Env) Step(action int) (State, float64, bool) {
	if action == ActionHit {
		e.playerCards = append(e.playerCards, e.drawCard())
		if cardSum(e.playerCards) > 21 {
			return e.state(), -1, true
		}
		return e.state(), 0, false
	}

	// STAND: dealer plays out by the hit-below-17 rule.
	dealerCards := []int{e.dealerUp, e.dealerHole}
	for cardSum(dealerCards) < 17 {
		dealerCards = append(dealerCards, e.drawCard())
	}
	dealerSum := cardSum(dealerCards)
	playerSum := cardSum(e.playerCards)

	switch {
	case dealerSum > 21:
		return e.state(), 1, true
	case playerSum > dealerSum:
		return e.state(), 1, true
	case playerSum < dealerSum:
		return e.state(), -1, true
	default:
		return e.state(), 0, true
	}
}

func (e *Env) state() State {
	sum := cardSum(e.playerCards)
	hasAce := false
	for _, c := range e.playerCards {
		if c == 11 {
			hasAce = true
		}
	}
	return State{PlayerSum: sum, DealerCard: e.dealerUp, UsableAce: hasAce && sum <= 21}
}

// cardSum totals raw card values, demoting aces from 11 to 1 one at a time
// while the total exceeds 21.
func cardSum(cards []int) int {
	total := 0
	aces := 0
	for _, c := range cards {
		total += c
		if c == 11 {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
