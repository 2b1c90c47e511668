package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/seqnet/internal/ctc"
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// SetInputs sets the root's input sequence. The sequence is not copied.
func SetInputs(net Network, xs seq.Sequence) {
	net.Core().Inputs = xs
}

// SetTargets sets DOutputs to targets - outputs of the last Forward.
func SetTargets(net Network, targets seq.Sequence) error {
	return setDeltas(net, targets, func(int, []float64) float64 { return 1 })
}

// SetTargetsAccelerated is SetTargets with every timestep's delta divided
// by the predicted probability of that timestep's target class, floored at
// floor.
func SetTargetsAccelerated(net Network, targets seq.Sequence, floor float64) error {
	if !(floor > 0) {
		return nnerr.Shapef("nn.SetTargetsAccelerated", "floor must be positive, got %g", floor)
	}
	return setDeltas(net, targets, func(t int, out []float64) float64 {
		k := floats.MaxIdx(targets[t].RawVector().Data)
		return 1 / math.Max(floor, out[k])
	})
}

// setDeltas sets DOutputs[t] = scale(t) * (targets[t] - outputs[t]).
func setDeltas(net Network, targets seq.Sequence, scale func(t int, out []float64) float64) error {
	b := net.Core()
	const op = "nn.SetTargets"
	if len(targets) != len(b.Outputs) {
		return nnerr.Dimensionf(op, "%d targets for %d outputs", len(targets), len(b.Outputs))
	}
	if err := targets.Check(op, b.Outputs.Dim()); err != nil {
		return err
	}
	b.DOutputs = seq.New(len(targets), b.Outputs.Dim())
	for t, d := range b.DOutputs {
		out := b.Outputs[t].RawVector().Data
		raw := d.RawVector().Data
		floats.SubTo(raw, targets[t].RawVector().Data, out)
		floats.Scale(scale(t, out), raw)
	}
	return nil
}

// SetClasses sets one-hot targets from class indices.
func SetClasses(net Network, classes seq.Classes) error {
	targets, err := seq.OneHot(classes, net.Core().Outputs.Dim())
	if err != nil {
		return err
	}
	return SetTargets(net, targets)
}

// Train runs one forward/backward cycle against soft targets. Gradients are
// accumulated; applying them is the optimizer's job.
func Train(net Network, xs, targets seq.Sequence) error {
	SetInputs(net, xs)
	if err := net.Forward(); err != nil {
		return err
	}
	if err := SetTargets(net, targets); err != nil {
		return err
	}
	return net.Backward()
}

// CTrain is Train against class indices.
func CTrain(net Network, xs seq.Sequence, classes seq.Classes) error {
	SetInputs(net, xs)
	if err := net.Forward(); err != nil {
		return err
	}
	if err := SetClasses(net, classes); err != nil {
		return err
	}
	return net.Backward()
}

// CTrainAccelerated is CTrain with SetTargetsAccelerated deltas.
func CTrainAccelerated(net Network, xs seq.Sequence, classes seq.Classes, floor float64) error {
	SetInputs(net, xs)
	if err := net.Forward(); err != nil {
		return err
	}
	targets, err := seq.OneHot(classes, net.Core().Outputs.Dim())
	if err != nil {
		return err
	}
	if err := SetTargetsAccelerated(net, targets, floor); err != nil {
		return err
	}
	return net.Backward()
}

// CPred runs Forward and returns the arg-max class at every timestep.
func CPred(net Network, xs seq.Sequence) (seq.Classes, error) {
	SetInputs(net, xs)
	if err := net.Forward(); err != nil {
		return nil, err
	}
	return net.Core().Outputs.Argmax(), nil
}

// CTCTrain runs Forward, aligns the outputs against transcript and trains
// toward the aligned targets. It returns the aligned targets.
//
// A nil aligner uses ctc.NewAligner().
func CTCTrain(net Network, xs seq.Sequence, transcript seq.Classes, aligner *ctc.Aligner) (seq.Sequence, error) {
	if aligner == nil {
		aligner = ctc.NewAligner()
	}
	SetInputs(net, xs)
	if err := net.Forward(); err != nil {
		return nil, err
	}
	targets, err := aligner.AlignClasses(net.Core().Outputs, transcript)
	if err != nil {
		return nil, err
	}
	if err := SetTargets(net, targets); err != nil {
		return nil, err
	}
	if err := net.Backward(); err != nil {
		return nil, err
	}
	return targets, nil
}

// Loss returns half the squared norm of the root's DOutputs, the error
// that the last SetTargets measured.
func Loss(net Network) float64 {
	var sum float64
	for _, d := range net.Core().DOutputs {
		raw := d.RawVector().Data
		sum += floats.Dot(raw, raw)
	}
	return sum / 2
}
