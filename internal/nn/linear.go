package nn

import (
	"iter"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// Full is a fully connected layer applied independently at every timestep:
//
//	y_t = f(W x_t + w)
//
// where W is (no x ni), w is the bias of length no, and f is the identity
// (Linear), the logistic sigmoid (Logreg), tanh (Tanh) or max(0, x) (Relu).
//
// Weights are initialized with Xavier, biases with zeros.
//
// Example:
//
//	layer := nn.NewTanh()
//	if err := layer.Init(no, ni); err != nil {
//	    return err
//	}
type Full struct {
	Base

	W, DW *mat.Dense
	B, DB *mat.VecDense

	f activation
}

// NewLinear returns an un-initialized identity layer.
func NewLinear() *Full { return newFull(KindLinear, identity) }

// NewLogreg returns an un-initialized sigmoid layer.
func NewLogreg() *Full { return newFull(KindLogreg, sigmoid) }

// NewTanh returns an un-initialized tanh layer.
func NewTanh() *Full { return newFull(KindTanh, tanh) }

// NewRelu returns an un-initialized rectifier layer.
func NewRelu() *Full { return newFull(KindRelu, relu) }

func newFull(kind Kind, f activation) *Full {
	return &Full{Base: newBase(kind), f: f}
}

// Init allocates W as (no x ni) and w as (no). It takes exactly (no, ni).
func (l *Full) Init(sizes ...int) error {
	if len(sizes) != 2 {
		return l.Base.Init(sizes...)
	}
	no, ni := sizes[0], sizes[1]
	if no <= 0 || ni <= 0 {
		return nnerr.Shapef(l.op("Init"), "sizes must be positive, got no=%d ni=%d", no, ni)
	}
	l.W = Xavier(ni, no, no, ni)
	l.DW = mat.NewDense(no, ni, nil)
	l.B = mat.NewVecDense(no, nil)
	l.DB = mat.NewVecDense(no, nil)
	return nil
}

// NInput returns the number of columns of W.
func (l *Full) NInput() int {
	if l.W == nil {
		return Unknown
	}
	_, c := l.W.Dims()
	return c
}

// NOutput returns the number of rows of W.
func (l *Full) NOutput() int {
	if l.W == nil {
		return Unknown
	}
	r, _ := l.W.Dims()
	return r
}

// Add fails; full layers are leaves.
func (l *Full) Add(Network) error { return l.rejectChild() }

// Forward computes Outputs.
func (l *Full) Forward() error {
	if err := l.forwardAffine(); err != nil {
		return err
	}
	for _, y := range l.Outputs {
		raw := y.RawVector().Data
		for i, z := range raw {
			raw[i] = l.f.apply(z)
		}
	}
	return nil
}

// forwardAffine sets Outputs to W x_t + w.
func (l *Full) forwardAffine() error {
	if l.W == nil {
		return nnerr.Unimplementedf(l.op("Forward"), "layer is not initialized")
	}
	if err := l.Inputs.Check(l.op("Forward"), l.NInput()); err != nil {
		return err
	}
	l.Outputs = seq.New(len(l.Inputs), l.NOutput())
	for t, x := range l.Inputs {
		y := l.Outputs[t]
		y.MulVec(l.W, x)
		y.AddVec(y, l.B)
	}
	return nil
}

// Backward computes DInputs and accumulates DW and DB.
func (l *Full) Backward() error {
	if l.W == nil {
		return nnerr.Unimplementedf(l.op("Backward"), "layer is not initialized")
	}
	if err := l.checkBackward(l.NOutput()); err != nil {
		return err
	}
	l.DInputs = seq.New(len(l.Outputs), l.NInput())
	dz := mat.NewVecDense(l.NOutput(), nil)
	for t, y := range l.Outputs {
		dy := l.DOutputs[t]
		for i := range dz.Len() {
			dz.SetVec(i, dy.AtVec(i)*l.f.deriv(y.AtVec(i)))
		}
		l.accumulate(t, dz)
	}
	return nil
}

// accumulate propagates the pre-activation gradient dz at timestep t.
func (l *Full) accumulate(t int, dz *mat.VecDense) {
	l.DInputs[t].MulVec(l.W.T(), dz)
	l.DW.RankOne(l.DW, 1, dz, l.Inputs[t])
	l.DB.AddVec(l.DB, dz)
}

// MyWeights yields W and w.
func (l *Full) MyWeights(prefix string) iter.Seq2[string, *Param] {
	return func(yield func(string, *Param) bool) {
		if l.W == nil {
			return
		}
		if !yield(join(prefix, "W"), &Param{Mat: l.W, DMat: l.DW}) {
			return
		}
		yield(join(prefix, "w"), &Param{Vec: l.B, DVec: l.DB})
	}
}

// PostLoad resets the gradients to match the restored weights.
func (l *Full) PostLoad() {
	if l.W == nil {
		return
	}
	l.DW = zerosLike(l.W)
	l.DB = mat.NewVecDense(l.B.Len(), nil)
}
