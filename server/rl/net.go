package rl

import (
	"math"
	"math/rand/v2"
)

// Network topology is fixed: 3 inputs (player sum, dealer card, usable ace),
// two hidden ReLU layers and 2 linear outputs (Q-values for STAND and HIT).
const (
	inputSize  = 3
	hiddenSize = 128
	outputSize = 2
)

// Network is a small feed-forward Q-network. Weight matrices are stored
// row-per-output-unit so they serialize directly into the flat model file.
type Network struct {
	W1 [][]float64 `json:"w1"`
	B1 []float64   `json:"b1"`
	W2 [][]float64 `json:"w2"`
	B2 []float64   `json:"b2"`
	W3 [][]float64 `json:"w3"`
	B3 []float64   `json:"b3"`
}

// NewNetwork returns a network with He-initialized weights.
func NewNetwork(rng *rand.Rand) *Network {
	return &Network{
		W1: heMatrix(rng, hiddenSize, inputSize),
		B1: make([]float64, hiddenSize),
		W2: heMatrix(rng, hiddenSize, hiddenSize),
		B2: make([]float64, hiddenSize),
		W3: heMatrix(rng, outputSize, hiddenSize),
		B3: make([]float64, outputSize),
	}
}

func heMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	scale := math.Sqrt(2.0 / float64(cols))
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = rng.NormFloat64() * scale
		}
	}
	return m
}

// Clone deep-copies the network, used for target-network syncs.
func (n *Network) Clone() *Network {
	return &Network{
		W1: copyMatrix(n.W1), B1: copySlice(n.B1),
		W2: copyMatrix(n.W2), B2: copySlice(n.B2),
		W3: copyMatrix(n.W3), B3: copySlice(n.B3),
	}
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = copySlice(m[i])
	}
	return out
}

func copySlice(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

// forwardPass keeps the intermediate activations needed for backprop.
type forwardPass struct {
	in  []float64
	a1  []float64 // post-ReLU hidden 1
	a2  []float64 // post-ReLU hidden 2
	out [outputSize]float64
}

func (n *Network) forward(x [3]float64) forwardPass {
	p := forwardPass{in: []float64{x[0], x[1], x[2]}}

	p.a1 = make([]float64, hiddenSize)
	for i := 0; i < hiddenSize; i++ {
		z := n.B1[i]
		for j := 0; j < inputSize; j++ {
			z += n.W1[i][j] * p.in[j]
		}
		if z > 0 {
			p.a1[i] = z
		}
	}

	p.a2 = make([]float64, hiddenSize)
	for i := 0; i < hiddenSize; i++ {
		z := n.B2[i]
		for j := 0; j < hiddenSize; j++ {
			z += n.W2[i][j] * p.a1[j]
		}
		if z > 0 {
			p.a2[i] = z
		}
	}

	for i := 0; i < outputSize; i++ {
		z := n.B3[i]
		for j := 0; j < hiddenSize; j++ {
			z += n.W3[i][j] * p.a2[j]
		}
		p.out[i] = z
	}
	return p
}

// Forward evaluates the Q-values for a state vector.
func (n *Network) Forward(x [3]float64) [2]float64 {
	return n.forward(x).out
}

// Argmax returns the greedy action for a state vector.
func (n *Network) Argmax(x [3]float64) int {
	q := n.Forward(x)
	if q[ActionHit] > q[ActionStand] {
		return ActionHit
	}
	return ActionStand
}

// grads accumulates parameter gradients over a minibatch.
type grads struct {
	W1 [][]float64
	B1 []float64
	W2 [][]float64
	B2 []float64
	W3 [][]float64
	B3 []float64
}

func newGrads() *grads {
	return &grads{
		W1: zeroMatrix(hiddenSize, inputSize), B1: make([]float64, hiddenSize),
		W2: zeroMatrix(hiddenSize, hiddenSize), B2: make([]float64, hiddenSize),
		W3: zeroMatrix(outputSize, hiddenSize), B3: make([]float64, outputSize),
	}
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// accumulate backpropagates the squared-error loss on a single output unit
// (the taken action) into g. dLoss is d(loss)/d(out[action]).
func (n *Network) accumulate(g *grads, p forwardPass, action int, dLoss float64) {
	// Output layer: only the taken action carries gradient.
	dOut := [outputSize]float64{}
	dOut[action] = dLoss

	dA2 := make([]float64, hiddenSize)
	for i := 0; i < outputSize; i++ {
		if dOut[i] == 0 {
			continue
		}
		g.B3[i] += dOut[i]
		for j := 0; j < hiddenSize; j++ {
			g.W3[i][j] += dOut[i] * p.a2[j]
			dA2[j] += dOut[i] * n.W3[i][j]
		}
	}

	dA1 := make([]float64, hiddenSize)
	for i := 0; i < hiddenSize; i++ {
		if p.a2[i] <= 0 { // ReLU gate
			continue
		}
		g.B2[i] += dA2[i]
		for j := 0; j < hiddenSize; j++ {
			g.W2[i][j] += dA2[i] * p.a1[j]
			dA1[j] += dA2[i] * n.W2[i][j]
		}
	}

	for i := 0; i < hiddenSize; i++ {
		if p.a1[i] <= 0 {
			continue
		}
		g.B1[i] += dA1[i]
		for j := 0; j < inputSize; j++ {
			g.W1[i][j] += dA1[i] * p.in[j]
		}
	}
}

// adam is a standard Adam optimizer over the network's parameter tensors.
type adam struct {
	lr, beta1, beta2, eps float64
	step                  int
	m, v                  *grads
}

func newAdam(lr float64) *adam {
	return &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-8, m: newGrads(), v: newGrads()}
}

func (a *adam) update(n *Network, g *grads) {
	a.step++
	bc1 := 1 - math.Pow(a.beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.beta2, float64(a.step))

	apply := func(w, grad, m, v []float64) {
		for i := range w {
			m[i] = a.beta1*m[i] + (1-a.beta1)*grad[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*grad[i]*grad[i]
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			w[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
	applyMat := func(w, grad, m, v [][]float64) {
		for i := range w {
			apply(w[i], grad[i], m[i], v[i])
		}
	}

	applyMat(n.W1, g.W1, a.m.W1, a.v.W1)
	apply(n.B1, g.B1, a.m.B1, a.v.B1)
	applyMat(n.W2, g.W2, a.m.W2, a.v.W2)
	apply(n.B2, g.B2, a.m.B2, a.v.B2)
	applyMat(n.W3, g.W3, a.m.W3, a.v.W3)
	apply(n.B3, g.B3, a.m.B3, a.v.B3)
}
