package rl

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// TabularModel is the flat-file form of the Monte Carlo policy: per state
// key, the greedy action and the averaged Q-values for STAND and HIT.
type TabularModel struct {
	Policy map[string]int        `json:"policy"`
	Q      map[string][2]float64 `json:"q"`
}

// DefaultAction is the heuristic for states never visited during training:
// hit below 17, stand otherwise.
func DefaultAction(playerSum int) int {
	if playerSum < 17 {
		return ActionHit
	}
	return ActionStand
}

// Action returns the stored greedy action, falling back to the heuristic for
// unseen states.
func (m *TabularModel) Action(s State) int {
	if a, ok := m.Policy[s.Key()]; ok {
		return a
	}
	return DefaultAction(s.PlayerSum)
}

func (m *TabularModel) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadTabularModel reads a saved policy file.
func LoadTabularModel(path string) (*TabularModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m TabularModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse tabular model %s: %w", path, err)
	}
	if m.Policy == nil {
		m.Policy = map[string]int{}
	}
	return &m, nil
}

// MCOption tunes the Monte Carlo trainer.
type MCOption func(*mcTrainer)

func WithMCEpisodes(n int) MCOption {
	return func(t *mcTrainer) {
		if n > 0 {
			t.episodes = n
		}
	}
}

func WithMCEpsilon(eps float64) MCOption {
	return func(t *mcTrainer) {
		if eps >= 0 && eps <= 1 {
			t.epsilon = eps
		}
	}
}

func WithMCSeed(seed uint64) MCOption {
	return func(t *mcTrainer) { t.seed = seed }
}

type mcTrainer struct {
	episodes int
	epsilon  float64
	seed     uint64
}

type stateAction struct {
	key    string
	action int
}

// TrainMonteCarlo runs first-visit Monte Carlo control over the simulated
// environment: undiscounted returns averaged per (state, action) pair across
// each full episode, with the policy kept greedy on the running averages.
// Exploration epsilon is fixed for the whole run; ties break toward STAND.
func TrainMonteCarlo(opts ...MCOption) *TabularModel {
	t := &mcTrainer{episodes: 50000, epsilon: 0.1}
	for _, opt := range opts {
		opt(t)
	}

	env := NewEnv(t.seed)
	rng := env.rng
	model := &TabularModel{Policy: map[string]int{}, Q: map[string][2]float64{}}
	returnSum := map[stateAction]float64{}
	returnCount := map[stateAction]int{}

	log.Info().Int("episodes", t.episodes).Float64("epsilon", t.epsilon).Msg("training monte carlo agent")

	for episode := 0; episode < t.episodes; episode++ {
		state := env.Reset()
		var steps []struct {
			sa     stateAction
			reward float64
		}

		done := false
		for !done {
			var action int
			if rng.Float64() < t.epsilon {
				action = rng.IntN(2)
			} else {
				action = model.Action(state)
			}

			next, reward, isDone := env.Step(action)
			steps = append(steps, struct {
				sa     stateAction
				reward float64
			}{stateAction{state.Key(), action}, reward})
			state = next
			done = isDone
		}

		// First occurrence index per (state, action) in this episode.
		firstVisit := map[stateAction]int{}
		for i, s := range steps {
			if _, seen := firstVisit[s.sa]; !seen {
				firstVisit[s.sa] = i
			}
		}

		// Walk backward accumulating the undiscounted return; update the
		// running average only at the first visit.
		g := 0.0
		for i := len(steps) - 1; i >= 0; i-- {
			g += steps[i].reward
			sa := steps[i].sa
			if firstVisit[sa] != i {
				continue
			}
			returnSum[sa] += g
			returnCount[sa]++

			q := model.Q[sa.key]
			q[sa.action] = returnSum[sa] / float64(returnCount[sa])
			model.Q[sa.key] = q

			if q[ActionStand] >= q[ActionHit] {
				model.Policy[sa.key] = ActionStand
			} else {
				model.Policy[sa.key] = ActionHit
			}
		}

		if (episode+1)%10000 == 0 {
			log.Debug().Int("episode", episode+1).Int("states", len(model.Policy)).Msg("monte carlo progress")
		}
	}

	log.Info().Int("states", len(model.Policy)).Msg("monte carlo training complete")
	return model
}
