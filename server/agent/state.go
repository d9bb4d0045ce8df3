package agent

import (
	"strings"

	"llm-arcade/server/rl"
)

// rankScan mirrors the card list order used when the prompts are generated.
var rankScan = []struct {
	name  string
	value int
}{
	{"A", 11},
	{"2", 2}, {"3", 3}, {"4", 4}, {"5", 5}, {"6", 6},
	{"7", 7}, {"8", 8}, {"9", 9}, {"10", 10},
	{"J", 10}, {"Q", 10}, {"K", 10},
}

// ParseBlackjackState reconstructs the discretized state from the same
// prompt grammar the engine emits. It is a deliberately simple substring
// scan: each rank is counted at most once per section, which is sufficient
// for the decision states the policies are trained on.
func ParseBlackjackState(prompt string) rl.State {
	var playerCards []int
	if i := strings.Index(prompt, "Your cards:"); i >= 0 {
		part := prompt[i+len("Your cards:"):]
		if j := strings.Index(part, "Your hand value:"); j >= 0 {
			part = part[:j]
		}
		for _, r := range rankScan {
			if strings.Contains(part, r.name) {
				playerCards = append(playerCards, r.value)
			}
		}
	}

	dealerCard := 0
	if i := strings.Index(prompt, "Dealer's visible cards:"); i >= 0 {
		line := prompt[i+len("Dealer's visible cards:"):]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		for _, r := range rankScan {
			if strings.Contains(line, r.name) {
				dealerCard = r.value
				break
			}
		}
	}

	return rl.StateFromCards(playerCards, dealerCard)
}
