package rl

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// transition is one replay-buffer entry.
type transition struct {
	state     State
	action    int
	reward    float64
	nextState State
	done      bool
}

// replayBuffer is a bounded FIFO: the oldest transition is evicted first.
type replayBuffer struct {
	entries  []transition
	capacity int
	start    int
}

func newReplayBuffer(capacity int) *replayBuffer {
	return &replayBuffer{capacity: capacity}
}

func (b *replayBuffer) add(t transition) {
	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, t)
		return
	}
	b.entries[b.start] = t
	b.start = (b.start + 1) % b.capacity
}

func (b *replayBuffer) len() int { return len(b.entries) }

func (b *replayBuffer) sample(rng *rand.Rand, n int) []transition {
	out := make([]transition, n)
	for i := range out {
		out[i] = b.entries[rng.IntN(len(b.entries))]
	}
	return out
}

// SaveNetwork writes the weights as a flat JSON file.
func SaveNetwork(n *Network, path string) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadNetwork reads saved weights, validating the fixed topology.
func LoadNetwork(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse network model %s: %w", path, err)
	}
	if len(n.W1) != hiddenSize || len(n.W2) != hiddenSize || len(n.W3) != outputSize {
		return nil, fmt.Errorf("network model %s has unexpected topology", path)
	}
	return &n, nil
}

// DQOption tunes the Deep-Q trainer.
type DQOption func(*dqTrainer)

func WithDQEpisodes(n int) DQOption {
	return func(t *dqTrainer) {
		if n > 0 {
			t.episodes = n
		}
	}
}

func WithDQBatchSize(n int) DQOption {
	return func(t *dqTrainer) {
		if n > 0 {
			t.batchSize = n
		}
	}
}

func WithDQSeed(seed uint64) DQOption {
	return func(t *dqTrainer) { t.seed = seed }
}

type dqTrainer struct {
	episodes   int
	batchSize  int
	capacity   int
	gamma      float64
	lr         float64
	epsilon    float64
	epsilonMin float64
	decay      float64
	syncEvery  int
	seed       uint64
}

// TrainDeepQ runs experience-replay Q-learning: one online network, a target
// network synced every 100 episodes, and batched MSE steps against the
// one-step TD target once the buffer holds a batch. Epsilon decays
// geometrically per episode from 1.0 to a floor of 0.1.
func TrainDeepQ(opts ...DQOption) *Network {
	t := &dqTrainer{
		episodes:   5000,
		batchSize:  64,
		capacity:   10000,
		gamma:      0.99,
		lr:         0.001,
		epsilon:    1.0,
		epsilonMin: 0.1,
		decay:      0.995,
		syncEvery:  100,
		seed:       0,
	}
	for _, opt := range opts {
		opt(t)
	}

	seed := t.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xa0761d6478bd642f))

	env := NewEnv(seed + 1)
	online := NewNetwork(rng)
	target := online.Clone()
	buffer := newReplayBuffer(t.capacity)
	opt := newAdam(t.lr)
	epsilon := t.epsilon

	log.Info().Int("episodes", t.episodes).Int("batch", t.batchSize).Msg("training deep-q agent")

	for episode := 0; episode < t.episodes; episode++ {
		state := env.Reset()
		done := false

		for !done {
			var action int
			if rng.Float64() < epsilon {
				action = rng.IntN(2)
			} else {
				action = online.Argmax(state.Vector())
			}

			next, reward, isDone := env.Step(action)
			buffer.add(transition{state, action, reward, next, isDone})
			state = next
			done = isDone

			if buffer.len() >= t.batchSize {
				trainStep(online, target, buffer.sample(rng, t.batchSize), opt, t.gamma)
			}
		}

		if episode%t.syncEvery == 0 {
			target = online.Clone()
		}
		epsilon = max(t.epsilonMin, epsilon*t.decay)

		if (episode+1)%1000 == 0 {
			log.Debug().Int("episode", episode+1).Float64("epsilon", epsilon).Msg("deep-q progress")
		}
	}

	log.Info().Msg("deep-q training complete")
	return online
}

// trainStep runs one batched gradient step of MSE between the sampled
// Q-value and the one-step TD target computed from the target network.
func trainStep(online, target *Network, batch []transition, opt *adam, gamma float64) {
	g := newGrads()
	scale := 1.0 / float64(len(batch))

	for _, tr := range batch {
		pass := online.forward(tr.state.Vector())

		td := tr.reward
		if !tr.done {
			nextQ := target.Forward(tr.nextState.Vector())
			td += gamma * max(nextQ[ActionStand], nextQ[ActionHit])
		}

		// d(MSE)/d(q[a]) averaged over the batch.
		dLoss := 2 * (pass.out[tr.action] - td) * scale
		online.accumulate(g, pass, tr.action, dLoss)
	}

	opt.update(online, g)
}
