package ctc

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// DefaultFloor is the smallest probability an output may contribute to a
// match score.
const DefaultFloor = 1e-5

// Blank is the class reserved for "no label" in transcripts built by
// MakeTargets.
const Blank = 0

// Aligner turns network outputs and target label sequences into per-timestep
// training targets.
type Aligner struct {
	// Skip is the log-probability of advancing a target position without
	// consuming a timestep.
	Skip float64
	// Floor clamps output probabilities before taking logs.
	Floor float64
}

// NewAligner returns an Aligner with DefaultSkip and DefaultFloor.
func NewAligner() *Aligner {
	return &Aligner{Skip: DefaultSkip, Floor: DefaultFloor}
}

// Align derives soft targets from outputs for the target sequence targets.
//
// outputs has one posterior vector per timestep; targets has one label
// distribution per target position, of the same width. The result has one
// vector per timestep: the alignment posterior over target positions,
// projected into label space and normalized.
func (a *Aligner) Align(outputs, targets seq.Sequence) (seq.Sequence, error) {
	const op = "ctc.Align"
	if outputs.Len() == 0 {
		return nil, nnerr.Shapef(op, "empty outputs")
	}
	if targets.Len() == 0 {
		return nil, nnerr.Shapef(op, "empty targets")
	}
	nc := outputs.Dim()
	if err := outputs.Check(op, nc); err != nil {
		return nil, nnerr.Shapef(op, "ragged outputs: %v", err)
	}
	if err := targets.Check(op, nc); err != nil {
		return nil, nnerr.Shapef(op, "targets do not match output width %d: %v", nc, err)
	}

	floor := math.Max(a.Floor, math.SmallestNonzeroFloat64)
	n1, n2 := outputs.Len(), targets.Len()
	lmatch := mat.NewDense(n1, n2, nil)
	out := make([]float64, nc)
	for t := 0; t < n1; t++ {
		copy(out, outputs[t].RawVector().Data)
		for j := range out {
			out[j] = math.Max(out[j], floor)
		}
		floats.Scale(1/floats.Sum(out), out)
		for k := 0; k < n2; k++ {
			lmatch.Set(t, k, math.Log(floats.Dot(out, targets[k].RawVector().Data)))
		}
	}

	posteriors := ForwardBackward(lmatch, a.Skip)

	var aligned mat.Dense
	aligned.Mul(posteriors, targets.ToDense())
	for t := 0; t < n1; t++ {
		row := aligned.RawRowView(t)
		floats.Scale(1/math.Max(1e-9, floats.Sum(row)), row)
	}
	return seq.FromDense(&aligned), nil
}

// AlignClasses derives soft targets for a transcript of class labels. The
// transcript is expanded with MakeTargets using the output width as the
// number of classes.
func (a *Aligner) AlignClasses(outputs seq.Sequence, transcript seq.Classes) (seq.Sequence, error) {
	if outputs.Len() == 0 {
		return nil, nnerr.Shapef("ctc.AlignClasses", "empty outputs")
	}
	targets, err := MakeTargets(transcript, outputs.Dim())
	if err != nil {
		return nil, err
	}
	return a.Align(outputs, targets)
}

// AlignHard returns the most likely class at each timestep of the soft
// alignment of transcript.
func (a *Aligner) AlignHard(outputs seq.Sequence, transcript seq.Classes) (seq.Classes, error) {
	aligned, err := a.AlignClasses(outputs, transcript)
	if err != nil {
		return nil, err
	}
	return aligned.Argmax(), nil
}

// MakeTargets expands a transcript into 2n+1 one-hot target positions of
// width ndim: blank, label 0, blank, label 1, ..., blank.
func MakeTargets(transcript seq.Classes, ndim int) (seq.Sequence, error) {
	const op = "ctc.MakeTargets"
	if ndim < 1 {
		return nil, nnerr.Shapef(op, "need at least one class, got %d", ndim)
	}
	targets := seq.New(2*len(transcript)+1, ndim)
	for t := range targets {
		if t%2 == 0 {
			targets[t].SetVec(Blank, 1)
			continue
		}
		label := transcript[(t-1)/2]
		if label < 0 || label >= ndim {
			return nil, nnerr.Shapef(op, "label %d outside [0, %d)", label, ndim)
		}
		targets[t].SetVec(label, 1)
	}
	return targets, nil
}

// Collapse performs greedy CTC decoding of per-timestep predictions: runs of
// the same class are merged and blanks are removed.
func Collapse(preds seq.Classes) seq.Classes {
	out := seq.Classes{}
	last := Blank
	for _, c := range preds {
		if c != last && c != Blank {
			out = append(out, c)
		}
		last = c
	}
	return out
}

// AlignTargets is Align with the default Aligner.
func AlignTargets(outputs, targets seq.Sequence) (seq.Sequence, error) {
	return NewAligner().Align(outputs, targets)
}

// AlignClasses is Aligner.AlignClasses with the default Aligner.
func AlignClasses(outputs seq.Sequence, transcript seq.Classes) (seq.Sequence, error) {
	return NewAligner().AlignClasses(outputs, transcript)
}
