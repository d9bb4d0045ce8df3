package stats

import "math"

// Elo applies the standard expected-score update to a pair of ratings after
// one match. Score is from player A's perspective: 1 win, 0.5 tie, 0 loss.
type Elo struct {
	Start float64
	K     float64
}

func NewElo() Elo { return Elo{Start: 1200, K: 24} }

func (e Elo) expect(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// Update returns the new ratings for A and B given A's score.
func (e Elo) Update(ra, rb, scoreA float64) (float64, float64) {
	ea := e.expect(ra, rb)
	return ra + e.K*(scoreA-ea), rb + e.K*((1-scoreA)-(1-ea))
}
