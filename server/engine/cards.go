package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

var suits = []string{"hearts", "diamonds", "clubs", "spades"}

var ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// RankValue maps a rank to its blackjack value. Aces count as 11 by default;
// Hand.Value demotes them to 1 as needed.
func RankValue(rank string) int {
	switch rank {
	case "J", "Q", "K":
		return 10
	case "A":
		return 11
	default:
		v := 0
		for _, c := range rank {
			v = v*10 + int(c-'0')
		}
		return v
	}
}

// Card is immutable once dealt except for the Hidden flag on the dealer's
// hole card.
type Card struct {
	Suit   string `json:"suit"`
	Rank   string `json:"rank"`
	Value  int    `json:"value"`
	Hidden bool   `json:"hidden"`
}

func NewCard(suit, rank string) Card {
	return Card{Suit: suit, Rank: rank, Value: RankValue(rank)}
}

func (c Card) String() string {
	if c.Hidden {
		return "Hidden Card"
	}
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Deck is a shuffled 52-card deck. Deal pops from the end and transparently
// reshuffles a fresh deck when exhausted; games never come close to 52 draws
// so there is no discard-pile bookkeeping.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck returns a shuffled deck. Seed 0 seeds from the clock.
func NewDeck(seed uint64) *Deck {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	d := &Deck{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	d.refill()
	return d
}

// NewStackedDeck builds a deck that deals the given cards in order, without
// shuffling. Used to set up deterministic hands in tests.
func NewStackedDeck(cards ...Card) *Deck {
	stacked := make([]Card, len(cards))
	// Deal pops from the end, so store in reverse.
	for i, c := range cards {
		stacked[len(cards)-1-i] = c
	}
	return &Deck{cards: stacked, rng: rand.New(rand.NewPCG(1, 1))}
}

func (d *Deck) refill() {
	d.cards = d.cards[:0]
	for _, s := range suits {
		for _, r := range ranks {
			d.cards = append(d.cards, NewCard(s, r))
		}
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Deal() Card {
	if len(d.cards) == 0 {
		d.refill()
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c
}

func (d *Deck) Remaining() int { return len(d.cards) }

// Hand is an ordered sequence of cards owned by one side of a blackjack game.
type Hand struct {
	Cards []Card `json:"cards"`
}

func (h *Hand) Add(c Card) { h.Cards = append(h.Cards, c) }

// Value sums the visible cards, demoting aces from 11 to 1 one at a time
// while the total exceeds 21 (soft-ace rule). Hidden cards do not count.
func (h *Hand) Value() int {
	value := 0
	aces := 0
	for _, c := range h.Cards {
		if c.Hidden {
			continue
		}
		value += c.Value
		if c.Rank == "A" {
			aces++
		}
	}
	for value > 21 && aces > 0 {
		value -= 10
		aces--
	}
	return value
}

func (h *Hand) IsBlackjack() bool { return len(h.Cards) == 2 && h.Value() == 21 }

func (h *Hand) IsBusted() bool { return h.Value() > 21 }

// Visible returns the non-hidden cards and the raw sum of their face values
// (no ace demotion), matching the wording used in the dealer prompts.
func (h *Hand) Visible() ([]Card, int) {
	var cards []Card
	sum := 0
	for _, c := range h.Cards {
		if c.Hidden {
			continue
		}
		cards = append(cards, c)
		sum += c.Value
	}
	return cards, sum
}
