package nn

import (
	"iter"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// Gate indices into LSTM.W.
const (
	GateInput = iota
	GateForget
	GateOutput
	GateCell
	numGates
)

var (
	gateWeightNames = [numGates]string{"WGI", "WGF", "WGO", "WCI"}
	gateInputNames  = [numGates]string{"gix", "gfx", "gox", "cix"}
	gateNames       = [numGates]string{"gi", "gf", "go", "ci"}
)

// LSTMConfig configures an LSTM layer.
type LSTMConfig struct {
	// ForgetBias initializes the bias column of the forget gate.
	ForgetBias float64
}

// Validate checks that ForgetBias is finite.
func (c LSTMConfig) Validate() error {
	if math.IsNaN(c.ForgetBias) || math.IsInf(c.ForgetBias, 0) {
		return nnerr.Shapef("lstm.Validate", "forget bias must be finite, got %g", c.ForgetBias)
	}
	return nil
}

// LSTM is a unidirectional long short-term memory layer.
//
// At every timestep the source vector [1, x_t, y_{t-1}] feeds four gates,
// each with its own (no x 1+ni+no) weight matrix whose first column is the
// bias:
//
//	gi = sigmoid(WGI src)   gf = sigmoid(WGF src)
//	go = sigmoid(WGO src)   ci = tanh(WCI src)
//	state_t = ci*gi + gf*state_{t-1}
//	y_t     = tanh(state_t) * go
//
// Backward is full backpropagation through time over the last Forward.
type LSTM struct {
	Base
	Config LSTMConfig

	W  [numGates]*mat.Dense
	DW [numGates]*mat.Dense

	source seq.Sequence
	pre    [numGates]seq.Sequence
	gate   [numGates]seq.Sequence
	state  seq.Sequence
}

// NewLSTM returns an un-initialized LSTM layer.
func NewLSTM() *LSTM {
	return &LSTM{Base: newBase(KindLSTM)}
}

// Init allocates the gate weights. It takes exactly (no, ni).
func (l *LSTM) Init(sizes ...int) error {
	if len(sizes) != 2 {
		return l.Base.Init(sizes...)
	}
	if err := l.Config.Validate(); err != nil {
		return err
	}
	no, ni := sizes[0], sizes[1]
	if no <= 0 || ni <= 0 {
		return nnerr.Shapef(l.op("Init"), "sizes must be positive, got no=%d ni=%d", no, ni)
	}
	nf := 1 + ni + no
	for g := range numGates {
		l.W[g] = Xavier(nf, no, no, nf)
		for i := range no {
			l.W[g].Set(i, 0, 0)
		}
		l.DW[g] = mat.NewDense(no, nf, nil)
	}
	for i := range no {
		l.W[GateForget].Set(i, 0, l.Config.ForgetBias)
	}
	return nil
}

// NInput returns ni.
func (l *LSTM) NInput() int {
	if l.W[0] == nil {
		return Unknown
	}
	r, c := l.W[0].Dims()
	return c - 1 - r
}

// NOutput returns no.
func (l *LSTM) NOutput() int {
	if l.W[0] == nil {
		return Unknown
	}
	r, _ := l.W[0].Dims()
	return r
}

// Add fails; LSTM layers are leaves.
func (l *LSTM) Add(Network) error { return l.rejectChild() }

// Forward runs the recurrence over Inputs.
func (l *LSTM) Forward() error {
	if l.W[0] == nil {
		return nnerr.Unimplementedf(l.op("Forward"), "layer is not initialized")
	}
	ni, no := l.NInput(), l.NOutput()
	if err := l.Inputs.Check(l.op("Forward"), ni); err != nil {
		return err
	}
	n := len(l.Inputs)
	l.source = seq.New(n, 1+ni+no)
	for g := range numGates {
		l.pre[g] = seq.New(n, no)
		l.gate[g] = seq.New(n, no)
	}
	l.state = seq.New(n, no)
	l.Outputs = seq.New(n, no)

	for t := range n {
		src := l.source[t].RawVector().Data
		src[0] = 1
		copy(src[1:1+ni], l.Inputs[t].RawVector().Data)
		if t > 0 {
			copy(src[1+ni:], l.Outputs[t-1].RawVector().Data)
		}
		for g := range numGates {
			l.pre[g][t].MulVec(l.W[g], l.source[t])
			f := sigmoidf
			if g == GateCell {
				f = math.Tanh
			}
			act, z := l.gate[g][t].RawVector().Data, l.pre[g][t].RawVector().Data
			for i := range act {
				act[i] = f(z[i])
			}
		}
		gi := l.gate[GateInput][t].RawVector().Data
		gf := l.gate[GateForget][t].RawVector().Data
		gout := l.gate[GateOutput][t].RawVector().Data
		ci := l.gate[GateCell][t].RawVector().Data
		c := l.state[t].RawVector().Data
		y := l.Outputs[t].RawVector().Data
		for i := range c {
			c[i] = ci[i] * gi[i]
			if t > 0 {
				c[i] += gf[i] * l.state[t-1].AtVec(i)
			}
			y[i] = math.Tanh(c[i]) * gout[i]
		}
	}
	return nil
}

// Backward propagates DOutputs through time, accumulating the gate weight
// gradients and computing DInputs.
func (l *LSTM) Backward() error {
	if l.W[0] == nil {
		return nnerr.Unimplementedf(l.op("Backward"), "layer is not initialized")
	}
	ni, no := l.NInput(), l.NOutput()
	if err := l.checkBackward(no); err != nil {
		return err
	}
	n := len(l.Outputs)
	nf := 1 + ni + no
	l.DInputs = seq.New(n, ni)

	var dpre [numGates]*mat.VecDense
	for g := range dpre {
		dpre[g] = mat.NewVecDense(no, nil)
	}
	dsource := mat.NewVecDense(nf, nil)
	dsourceNext := mat.NewVecDense(nf, nil)
	tmp := mat.NewVecDense(nf, nil)
	dstate := make([]float64, no)
	dstateNext := make([]float64, no)

	for t := n - 1; t >= 0; t-- {
		gi := l.gate[GateInput][t].RawVector().Data
		gf := l.gate[GateForget][t].RawVector().Data
		gout := l.gate[GateOutput][t].RawVector().Data
		ci := l.gate[GateCell][t].RawVector().Data
		dout := l.DOutputs[t].RawVector().Data
		for i := range no {
			// Output gradient from the caller plus the recurrent path
			// through the next step's source vector.
			dy := dout[i]
			dc := 0.0
			if t < n-1 {
				dy += dsourceNext.AtVec(1 + ni + i)
				dc = dstateNext[i] * l.gate[GateForget][t+1].AtVec(i)
			}
			h := math.Tanh(l.state[t].AtVec(i))
			dc += dy * gout[i] * (1 - h*h)
			dgf := 0.0
			if t > 0 {
				dgf = dc * l.state[t-1].AtVec(i)
			}
			dpre[GateInput].SetVec(i, dc*ci[i]*gi[i]*(1-gi[i]))
			dpre[GateForget].SetVec(i, dgf*gf[i]*(1-gf[i]))
			dpre[GateOutput].SetVec(i, dy*h*gout[i]*(1-gout[i]))
			dpre[GateCell].SetVec(i, dc*gi[i]*(1-ci[i]*ci[i]))
			dstate[i] = dc
		}
		dsource.Zero()
		for g := range numGates {
			tmp.MulVec(l.W[g].T(), dpre[g])
			dsource.AddVec(dsource, tmp)
			l.DW[g].RankOne(l.DW[g], 1, dpre[g], l.source[t])
		}
		copy(l.DInputs[t].RawVector().Data, dsource.RawVector().Data[1:1+ni])
		dsource, dsourceNext = dsourceNext, dsource
		dstate, dstateNext = dstateNext, dstate
	}
	return nil
}

// MyWeights yields WGI, WGF, WGO and WCI.
func (l *LSTM) MyWeights(prefix string) iter.Seq2[string, *Param] {
	return func(yield func(string, *Param) bool) {
		if l.W[0] == nil {
			return
		}
		for g := range numGates {
			if !yield(join(prefix, gateWeightNames[g]), &Param{Mat: l.W[g], DMat: l.DW[g]}) {
				return
			}
		}
	}
}

// MyStates yields the per-timestep intermediates of the last Forward.
func (l *LSTM) MyStates(prefix string) iter.Seq2[string, *seq.Sequence] {
	return func(yield func(string, *seq.Sequence) bool) {
		if !yield(join(prefix, "source"), &l.source) {
			return
		}
		for g := range numGates {
			if !yield(join(prefix, gateInputNames[g]), &l.pre[g]) {
				return
			}
		}
		for g := range numGates {
			if !yield(join(prefix, gateNames[g]), &l.gate[g]) {
				return
			}
		}
		if !yield(join(prefix, "state"), &l.state) {
			return
		}
		yield(join(prefix, "output"), &l.Outputs)
	}
}

// PostLoad resets the gradients to match the restored weights.
func (l *LSTM) PostLoad() {
	for g := range numGates {
		if l.W[g] != nil {
			l.DW[g] = zerosLike(l.W[g])
		}
	}
}
