package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// DefaultSoftmaxFloor is the smallest probability a Softmax layer emits.
const DefaultSoftmaxFloor = 1e-5

// SoftmaxConfig configures a Softmax layer.
type SoftmaxConfig struct {
	// Floor bounds every output probability from below. Outputs are
	// renormalized after flooring.
	Floor float64

	// Accelerated divides the backward delta by the predicted probability
	// of the target class, floored at Floor. This speeds up learning of
	// rare classes at the cost of an exact gradient. Backward expects plain
	// deltas, so targets must not be set with SetTargetsAccelerated.
	Accelerated bool
}

// DefaultSoftmaxConfig returns a config with DefaultSoftmaxFloor and plain
// gradients.
func DefaultSoftmaxConfig() SoftmaxConfig {
	return SoftmaxConfig{Floor: DefaultSoftmaxFloor}
}

// Validate checks that Floor is in (0, 1).
func (c SoftmaxConfig) Validate() error {
	if !(c.Floor > 0 && c.Floor < 1) {
		return nnerr.Shapef("softmax.Validate", "floor must be in (0, 1), got %g", c.Floor)
	}
	return nil
}

// Softmax is a full layer whose outputs at each timestep form a probability
// distribution.
//
// Backward treats DOutputs as (target - output) and passes it straight
// through to the pre-activation, which is the gradient of cross-entropy
// through softmax.
type Softmax struct {
	Full
	Config SoftmaxConfig
}

// NewSoftmax returns an un-initialized softmax layer with the default
// config.
func NewSoftmax() *Softmax {
	return &Softmax{
		Full:   Full{Base: newBase(KindSoftmax), f: identity},
		Config: DefaultSoftmaxConfig(),
	}
}

// Init validates Config and allocates W (no x ni) and w (no).
func (l *Softmax) Init(sizes ...int) error {
	if err := l.Config.Validate(); err != nil {
		return err
	}
	return l.Full.Init(sizes...)
}

// Forward computes floored, normalized class probabilities.
func (l *Softmax) Forward() error {
	if err := l.forwardAffine(); err != nil {
		return err
	}
	for _, y := range l.Outputs {
		raw := y.RawVector().Data
		m := floats.Max(raw)
		for i, z := range raw {
			raw[i] = math.Exp(z - m)
		}
		floats.Scale(1/floats.Sum(raw), raw)
		for i, p := range raw {
			raw[i] = math.Max(p, l.Config.Floor)
		}
		floats.Scale(1/floats.Sum(raw), raw)
	}
	return nil
}

// Backward computes DInputs and accumulates DW and DB.
func (l *Softmax) Backward() error {
	if l.W == nil {
		return nnerr.Unimplementedf(l.op("Backward"), "layer is not initialized")
	}
	if err := l.checkBackward(l.NOutput()); err != nil {
		return err
	}
	l.DInputs = seq.New(len(l.Outputs), l.NInput())
	dz := mat.NewVecDense(l.NOutput(), nil)
	target := make([]float64, l.NOutput())
	for t, y := range l.Outputs {
		dz.CopyVec(l.DOutputs[t])
		if l.Config.Accelerated {
			// The target distribution is recovered as dy + y.
			floats.AddTo(target, dz.RawVector().Data, y.RawVector().Data)
			k := floats.MaxIdx(target)
			dz.ScaleVec(1/math.Max(l.Config.Floor, y.AtVec(k)), dz)
		}
		l.accumulate(t, dz)
	}
	return nil
}
