// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ctc aligns network posteriors with label transcripts.
//
// The aligner runs a forward-backward pass over a log match matrix of
// timesteps against blank-interleaved target positions and returns, per
// timestep, the expected target distribution. Training on those targets is
// connectionist temporal classification.
//
// Example:
//
//	targets, err := ctc.AlignClasses(outputs, seq.Classes{3, 1, 4})
//	if err != nil {
//	    return err
//	}
//	err = nn.SetTargets(net, targets)
package ctc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/ctc"
	"github.com/born-ml/seqnet/internal/editdist"
	"github.com/born-ml/seqnet/internal/seq"
)

// Default alignment parameters.
const (
	DefaultSkip  = ctc.DefaultSkip
	DefaultFloor = ctc.DefaultFloor
)

// Blank is the class reserved for "no label".
const Blank = ctc.Blank

// Aligner derives training targets from outputs.
type Aligner = ctc.Aligner

// NewAligner returns an aligner with the default skip and floor.
func NewAligner() *Aligner { return ctc.NewAligner() }

// ForwardAlgorithm returns the log-space forward table of lmatch.
func ForwardAlgorithm(lmatch *mat.Dense, skip float64) *mat.Dense {
	return ctc.ForwardAlgorithm(lmatch, skip)
}

// ForwardBackward returns per-timestep posteriors over target positions.
func ForwardBackward(lmatch *mat.Dense, skip float64) *mat.Dense {
	return ctc.ForwardBackward(lmatch, skip)
}

// AlignTargets aligns outputs with a target sequence using the defaults.
func AlignTargets(outputs, targets seq.Sequence) (seq.Sequence, error) {
	return ctc.AlignTargets(outputs, targets)
}

// AlignClasses aligns outputs with a transcript using the defaults.
func AlignClasses(outputs seq.Sequence, transcript seq.Classes) (seq.Sequence, error) {
	return ctc.AlignClasses(outputs, transcript)
}

// MakeTargets builds the blank-interleaved one-hot target sequence.
func MakeTargets(transcript seq.Classes, ndim int) (seq.Sequence, error) {
	return ctc.MakeTargets(transcript, ndim)
}

// Collapse merges repeated classes and drops blanks.
func Collapse(preds seq.Classes) seq.Classes { return ctc.Collapse(preds) }

// Levenshtein returns the edit distance between two label sequences.
func Levenshtein(a, b seq.Classes) int { return editdist.Levenshtein(a, b) }

// ErrorRate returns the edit distance divided by the transcript length.
func ErrorRate(pred, truth seq.Classes) float64 { return editdist.ErrorRate(pred, truth) }
