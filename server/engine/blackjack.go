package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDealerMustHit rejects a dealer STAND while the dealer hand is below 17.
// The decision is not applied; the caller forces a hit instead.
var ErrDealerMustHit = errors.New("as the dealer, you must hit until your hand value is at least 17")

// BlackjackEngine runs one player hand against the dealer. The dealer's turn
// is either resolved by the house rule (PlayerStand) or handed to a decision
// policy (StandToDealer followed by DealerHit/DealerStand).
type BlackjackEngine struct {
	deck *Deck

	Player     Hand    `json:"player_hand"`
	Dealer     Hand    `json:"dealer_hand"`
	DealerTurn bool    `json:"dealer_turn"`
	Over       bool    `json:"game_over"`
	Winner     Outcome `json:"winner"`
	Message    string  `json:"message"`
}

// NewBlackjack creates an engine over the given deck. A nil deck gets a
// freshly shuffled one.
func NewBlackjack(deck *Deck) *BlackjackEngine {
	if deck == nil {
		deck = NewDeck(0)
	}
	return &BlackjackEngine{deck: deck}
}

// Start deals the opening hands: two visible player cards, dealer hole card
// plus one visible card. A player blackjack resolves immediately, bypassing
// the hit/stand flow.
func (g *BlackjackEngine) Start() {
	g.Player = Hand{}
	g.Dealer = Hand{}
	g.DealerTurn = false
	g.Over = false
	g.Winner = OutcomeNone
	g.Message = ""

	g.Player.Add(g.deck.Deal())
	hole := g.deck.Deal()
	hole.Hidden = true
	g.Dealer.Add(hole)
	g.Player.Add(g.deck.Deal())
	g.Dealer.Add(g.deck.Deal())

	if g.Player.IsBlackjack() {
		g.revealHole()
		if g.Dealer.IsBlackjack() {
			g.Winner = OutcomeTie
			g.Message = "Both have Blackjack! It's a tie!"
		} else {
			g.Winner = OutcomePlayer
			g.Message = "Blackjack! Player wins!"
		}
		g.Over = true
	}
}

func (g *BlackjackEngine) revealHole() {
	if len(g.Dealer.Cards) > 0 {
		g.Dealer.Cards[0].Hidden = false
	}
}

// playerDraw deals one card to the player and reports whether it busted the
// hand, ending the game with a dealer win.
func (g *BlackjackEngine) playerDraw() bool {
	g.Player.Add(g.deck.Deal())
	if !g.Player.IsBusted() {
		return false
	}
	g.Over = true
	g.Winner = OutcomeDealer
	g.Message = "Player busts! Dealer wins!"
	g.revealHole()
	return true
}

// PlayerHit draws one card into the player hand. A bust ends the game with a
// dealer win; a made 21 stands automatically.
func (g *BlackjackEngine) PlayerHit() error {
	if g.Over {
		return ErrGameOver
	}
	if busted := g.playerDraw(); busted {
		return nil
	}
	if g.Player.Value() == 21 {
		return g.PlayerStand()
	}
	return nil
}

// PlayerStand reveals the hole card, plays the dealer out by the fixed
// hit-below-17 rule and resolves the hand.
func (g *BlackjackEngine) PlayerStand() error {
	if g.Over {
		return ErrGameOver
	}
	g.revealHole()
	for g.Dealer.Value() < 17 {
		g.Dealer.Add(g.deck.Deal())
	}
	g.resolve()
	return nil
}

// StandToDealer ends the player's turn without auto-playing the dealer, for
// matches where the dealer seat is driven by a decision policy.
func (g *BlackjackEngine) StandToDealer() error {
	if g.Over {
		return ErrGameOver
	}
	g.revealHole()
	g.DealerTurn = true
	return nil
}

// DealerHit draws one card into the dealer hand.
func (g *BlackjackEngine) DealerHit() error {
	if g.Over {
		return ErrGameOver
	}
	g.Dealer.Add(g.deck.Deal())
	if g.Dealer.IsBusted() {
		g.Over = true
		g.Winner = OutcomePlayer
		g.Message = "Dealer busts! Player wins!"
	}
	return nil
}

// DealerStand resolves the hand, unless the dealer is still below 17 in
// which case the stand is rejected and nothing changes.
func (g *BlackjackEngine) DealerStand() error {
	if g.Over {
		return ErrGameOver
	}
	if g.Dealer.Value() < 17 {
		return ErrDealerMustHit
	}
	g.resolve()
	return nil
}

func (g *BlackjackEngine) resolve() {
	dealer := g.Dealer.Value()
	player := g.Player.Value()
	switch {
	case g.Dealer.IsBusted():
		g.Winner = OutcomePlayer
		g.Message = "Dealer busts! Player wins!"
	case dealer > player:
		g.Winner = OutcomeDealer
		g.Message = "Dealer wins!"
	case player > dealer:
		g.Winner = OutcomePlayer
		g.Message = "Player wins!"
	default:
		g.Winner = OutcomeTie
		g.Message = "It's a tie!"
	}
	g.Over = true
}

func joinCards(cards []Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// PlayerPrompt describes the player's view of the table and asks for a
// HIT/STAND decision.
func (g *BlackjackEngine) PlayerPrompt() string {
	visible, visibleValue := g.Dealer.Visible()
	var b strings.Builder
	b.WriteString("\nYou are playing Blackjack against a dealer. Here's the current game state:\n\n")
	fmt.Fprintf(&b, "Your cards: %s\n", joinCards(g.Player.Cards))
	fmt.Fprintf(&b, "Your hand value: %d\n\n", g.Player.Value())
	fmt.Fprintf(&b, "Dealer's visible cards: %s\n", joinCards(visible))
	fmt.Fprintf(&b, "Dealer's visible hand value: %d\n\n", visibleValue)
	b.WriteString("What would you like to do? Respond with only one of the following options:\n")
	b.WriteString("- HIT (take another card)\n")
	b.WriteString("- STAND (end your turn)\n\n")
	b.WriteString("Remember:\n")
	b.WriteString("- If your hand value exceeds 21, you bust and lose\n")
	b.WriteString("- The dealer must hit until they have at least 17\n")
	b.WriteString("- Your goal is to have a higher hand value than the dealer without busting\n")
	return b.String()
}

// DealerPrompt describes the dealer's view and asks for a HIT/STAND decision.
func (g *BlackjackEngine) DealerPrompt() string {
	visible, visibleValue := g.Dealer.Visible()
	var b strings.Builder
	b.WriteString("\nYou are the dealer in a game of Blackjack. Here's the current game state:\n\n")
	fmt.Fprintf(&b, "Your visible cards: %s\n", joinCards(visible))
	fmt.Fprintf(&b, "Your visible hand value: %d\n\n", visibleValue)
	fmt.Fprintf(&b, "Player's cards: %s\n", joinCards(g.Player.Cards))
	fmt.Fprintf(&b, "Player's hand value: %d\n\n", g.Player.Value())
	b.WriteString("What would you like to do? Respond with only one of the following options:\n")
	b.WriteString("- HIT (take another card)\n")
	b.WriteString("- STAND (end your turn)\n\n")
	b.WriteString("Remember, as the dealer, you must hit until your hand value is at least 17.\n")
	return b.String()
}

// ApplyPlayerResponse parses a player decision and applies it.
func (g *BlackjackEngine) ApplyPlayerResponse(response string) (BlackjackAction, error) {
	if g.Over {
		return "", ErrGameOver
	}
	action, err := ParseHitStand(response)
	if err != nil {
		return "", err
	}
	if action == Hit {
		return action, g.PlayerHit()
	}
	return action, g.PlayerStand()
}

// ApplyPlayerResponseToDealer is ApplyPlayerResponse for matches with a
// policy-driven dealer: a STAND hands the turn over instead of auto-playing.
func (g *BlackjackEngine) ApplyPlayerResponseToDealer(response string) (BlackjackAction, error) {
	if g.Over {
		return "", ErrGameOver
	}
	action, err := ParseHitStand(response)
	if err != nil {
		return "", err
	}
	if action == Hit {
		if busted := g.playerDraw(); busted {
			return action, nil
		}
		if g.Player.Value() == 21 {
			// A made 21 ends the player's turn; the dealer policy plays on.
			return action, g.StandToDealer()
		}
		return action, nil
	}
	return action, g.StandToDealer()
}

// ApplyDealerResponse parses a dealer decision and applies it. A STAND below
// 17 returns ErrDealerMustHit without mutating state.
func (g *BlackjackEngine) ApplyDealerResponse(response string) (BlackjackAction, error) {
	if g.Over {
		return "", ErrGameOver
	}
	action, err := ParseHitStand(response)
	if err != nil {
		return "", err
	}
	if action == Hit {
		return action, g.DealerHit()
	}
	return action, g.DealerStand()
}
