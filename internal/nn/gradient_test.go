package nn_test

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/seqnet/internal/nn"
	"github.com/born-ml/seqnet/internal/seq"
)

func randomSequence(rng *rand.Rand, n, width int) seq.Sequence {
	s := seq.New(n, width)
	for _, v := range s {
		for i := range v.Len() {
			v.SetVec(i, rng.NormFloat64())
		}
	}
	return s
}

func randomDistributions(rng *rand.Rand, n, width int) seq.Sequence {
	s := seq.New(n, width)
	for _, v := range s {
		v.SetVec(rng.Intn(width), 1)
	}
	return s
}

type lossFunc func(outputs, targets seq.Sequence) float64

func squaredError(outputs, targets seq.Sequence) float64 {
	var e float64
	for step, y := range outputs {
		for k := range y.Len() {
			d := targets[step].AtVec(k) - y.AtVec(k)
			e += d * d / 2
		}
	}
	return e
}

func crossEntropy(outputs, targets seq.Sequence) float64 {
	var e float64
	for step, y := range outputs {
		for k := range y.Len() {
			e -= targets[step].AtVec(k) * math.Log(y.AtVec(k))
		}
	}
	return e
}

// checkGradients compares the accumulated parameter gradients and the input
// gradients of net against central finite differences of loss. Both are
// negated because Backward consumes targets - outputs.
func checkGradients(t *testing.T, net nn.Network, xs, targets seq.Sequence, loss lossFunc) {
	t.Helper()

	eval := func() float64 {
		nn.SetInputs(net, xs)
		require.NoError(t, net.Forward())
		return loss(net.Core().Outputs, targets)
	}

	nn.ClearGradients(net)
	require.NoError(t, nn.Train(net, xs, targets))
	dinputs := net.Core().DInputs.Clone()

	settings := &fd.Settings{Formula: fd.Central}
	checked := 0
	for name, p := range nn.Weights(net, "") {
		values := p.Values()
		orig := slices.Clone(values)
		grad := fd.Gradient(nil, func(x []float64) float64 {
			copy(values, x)
			return eval()
		}, orig, settings)
		copy(values, orig)

		for i, g := range grad {
			assert.InDelta(t, -g, p.Grads()[i], 1e-5, "%s[%d]", name, i)
		}
		checked++
	}
	require.Positive(t, checked)

	for step := range xs {
		x := xs[step].RawVector().Data
		orig := slices.Clone(x)
		grad := fd.Gradient(nil, func(v []float64) float64 {
			copy(x, v)
			return eval()
		}, orig, settings)
		copy(x, orig)

		for i, g := range grad {
			assert.InDelta(t, -g, dinputs[step].AtVec(i), 1e-5, "d_inputs[%d][%d]", step, i)
		}
	}
}

func TestFullLayerGradients(t *testing.T) {
	for _, newLayer := range []func() *nn.Full{nn.NewLinear, nn.NewLogreg, nn.NewTanh} {
		layer := newLayer()
		t.Run(layer.Kind().String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(1))
			require.NoError(t, layer.Init(3, 4))
			for i := range layer.B.Len() {
				layer.B.SetVec(i, rng.NormFloat64())
			}

			xs := randomSequence(rng, 5, 4)
			targets := randomSequence(rng, 5, 3)
			checkGradients(t, layer, xs, targets, squaredError)
		})
	}
}

func TestSoftmaxGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	layer := nn.NewSoftmax()
	require.NoError(t, layer.Init(4, 3))

	xs := randomSequence(rng, 5, 3)
	targets := randomDistributions(rng, 5, 4)
	checkGradients(t, layer, xs, targets, crossEntropy)
}

func TestLSTMGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	lstm := nn.NewLSTM()
	lstm.Config.ForgetBias = 0.5
	require.NoError(t, lstm.Init(3, 2))

	xs := randomSequence(rng, 6, 2)
	targets := randomSequence(rng, 6, 3)
	checkGradients(t, lstm, xs, targets, squaredError)
}

func TestMLPGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, sizes := range [][]int{{2, 4, 3}, {2, 3, 4, 3}} {
		mlp := nn.NewMLP()
		require.NoError(t, mlp.Init(sizes...))

		xs := randomSequence(rng, 3, 3)
		targets := randomSequence(rng, 3, 2)
		checkGradients(t, mlp, xs, targets, squaredError)
	}
}

func TestLSTMStackGradients(t *testing.T) {
	for _, newStack := range []func() *nn.LSTMStack{nn.NewLSTM1, nn.NewRevLSTM1, nn.NewBidiLSTM} {
		stack := newStack()
		t.Run(stack.Kind().String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(5))
			require.NoError(t, stack.Init(3, 2, 2))

			xs := randomSequence(rng, 4, 2)
			targets := randomDistributions(rng, 4, 3)
			checkGradients(t, stack, xs, targets, crossEntropy)
		})
	}
}

func TestGradientsAccumulateAcrossBackwardCalls(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	layer := nn.NewTanh()
	require.NoError(t, layer.Init(2, 3))
	xs := randomSequence(rng, 3, 3)
	targets := randomSequence(rng, 3, 2)

	require.NoError(t, nn.Train(layer, xs, targets))
	once := layer.DW.RawMatrix().Data
	once = slices.Clone(once)

	require.NoError(t, nn.Train(layer, xs, targets))
	for i, g := range layer.DW.RawMatrix().Data {
		assert.InDelta(t, 2*once[i], g, 1e-12)
	}

	nn.ClearGradients(layer)
	for _, p := range nn.Weights(layer, "") {
		for _, g := range p.Grads() {
			assert.Zero(t, g)
		}
	}
}

func TestZeroDeltasPropagateZero(t *testing.T) {
	build := map[string]func() (nn.Network, error){
		"linear":  func() (nn.Network, error) { n := nn.NewLinear(); return n, n.Init(3, 2) },
		"logreg":  func() (nn.Network, error) { n := nn.NewLogreg(); return n, n.Init(3, 2) },
		"tanh":    func() (nn.Network, error) { n := nn.NewTanh(); return n, n.Init(3, 2) },
		"relu":    func() (nn.Network, error) { n := nn.NewRelu(); return n, n.Init(3, 2) },
		"softmax": func() (nn.Network, error) { n := nn.NewSoftmax(); return n, n.Init(3, 2) },
		"lstm":    func() (nn.Network, error) { n := nn.NewLSTM(); return n, n.Init(3, 2) },
		"mlp":     func() (nn.Network, error) { n := nn.NewMLP(); return n, n.Init(3, 4, 2) },
		"lstm1":   func() (nn.Network, error) { n := nn.NewLSTM1(); return n, n.Init(3, 4, 2) },
		"revlstm1": func() (nn.Network, error) {
			n := nn.NewRevLSTM1()
			return n, n.Init(3, 4, 2)
		},
		"bidilstm": func() (nn.Network, error) {
			n := nn.NewBidiLSTM()
			return n, n.Init(3, 4, 2)
		},
		"stacked": func() (nn.Network, error) {
			n := nn.NewStacked()
			a, b := nn.NewTanh(), nn.NewLinear()
			if err := a.Init(4, 2); err != nil {
				return nil, err
			}
			if err := b.Init(3, 4); err != nil {
				return nil, err
			}
			if err := n.Add(a); err != nil {
				return nil, err
			}
			return n, n.Add(b)
		},
		"parallel": func() (nn.Network, error) {
			n := nn.NewParallel()
			a, b := nn.NewTanh(), nn.NewLSTM()
			if err := a.Init(1, 2); err != nil {
				return nil, err
			}
			if err := b.Init(2, 2); err != nil {
				return nil, err
			}
			if err := n.Add(a); err != nil {
				return nil, err
			}
			return n, n.Add(b)
		},
		"reversed": func() (nn.Network, error) {
			n := nn.NewReversed()
			lstm := nn.NewLSTM()
			if err := lstm.Init(3, 2); err != nil {
				return nil, err
			}
			return n, n.Add(lstm)
		},
	}
	for name, newNet := range build {
		t.Run(name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			net, err := newNet()
			require.NoError(t, err)
			require.Equal(t, 3, net.NOutput())

			nn.SetInputs(net, randomSequence(rng, 4, 2))
			require.NoError(t, net.Forward())
			nn.ClearGradients(net)
			net.Core().DOutputs = seq.New(4, 3)
			require.NoError(t, net.Backward())

			for step, d := range net.Core().DInputs {
				for i := range d.Len() {
					assert.Zero(t, d.AtVec(i), "d_inputs[%d][%d]", step, i)
				}
			}
			for pname, p := range nn.Weights(net, "") {
				for i, g := range p.Grads() {
					assert.Zero(t, g, "%s[%d]", pname, i)
				}
			}
		})
	}
}
