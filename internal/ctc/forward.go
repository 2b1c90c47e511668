// Package ctc derives training targets for sequence networks whose outputs
// have unknown timing.
//
// Given a per-timestep, per-target-position log match score, the forward
// algorithm accumulates the log-probability of every monotone alignment
// prefix; combining it with the same computation run backwards yields the
// posterior probability that the alignment passes through each cell. The
// posteriors are projected back into label space to give soft targets for
// training, or reduced by arg-max to hard per-timestep labels.
//
// All accumulation happens in log space.
package ctc

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultSkip is the log-probability of advancing one target position
// without consuming a timestep.
const DefaultSkip = -5.0

var negInf = math.Inf(-1)

// ForwardAlgorithm computes the forward table of lmatch.
//
// lmatch has one row per timestep and one column per target position. The
// returned matrix has the same shape; cell (t, k) holds the log-probability
// of all alignments that have consumed timesteps 0..t and stand at target
// position k:
//
//	lr[t][k] = logsumexp(lr[t-1][k] + m, lr[t-1][k-1] + m, lr[t][k-1] + skip)
//
// with m = lmatch[t][k]. Before the first timestep the alignment stands at
// position 0; reaching position k without consuming input costs k*skip.
func ForwardAlgorithm(lmatch *mat.Dense, skip float64) *mat.Dense {
	n, m := lmatch.Dims()
	lr := mat.NewDense(n, m, nil)

	prev := make([]float64, m)
	for k := range prev {
		prev[k] = skip * float64(k)
	}
	terms := make([]float64, 0, 3)
	for t := 0; t < n; t++ {
		row := lr.RawRowView(t)
		for k := 0; k < m; k++ {
			match := lmatch.At(t, k)
			terms = append(terms[:0], prev[k]+match)
			if k > 0 {
				terms = append(terms, prev[k-1]+match, row[k-1]+skip)
			}
			row[k] = floats.LogSumExp(terms)
		}
		prev = row
	}
	return lr
}

// ForwardBackward returns, for every cell of lmatch, the posterior
// probability that the alignment passes through it. Each row sums to one;
// a row no alignment can reach is left at zero.
func ForwardBackward(lmatch *mat.Dense, skip float64) *mat.Dense {
	lr := ForwardAlgorithm(lmatch, skip)
	rl := flip(ForwardAlgorithm(flip(lmatch), skip))

	n, m := lmatch.Dims()
	both := mat.NewDense(n, m, nil)
	for t := 0; t < n; t++ {
		row := both.RawRowView(t)
		for k := range row {
			match := lmatch.At(t, k)
			if math.IsInf(match, -1) {
				row[k] = negInf
				continue
			}
			// The match score of each cell is counted by both passes.
			row[k] = lr.At(t, k) + rl.At(t, k) - match
		}
		total := floats.LogSumExp(row)
		if math.IsInf(total, -1) || math.IsNaN(total) {
			for k := range row {
				row[k] = 0
			}
			continue
		}
		for k := range row {
			row[k] = math.Exp(row[k] - total)
		}
	}
	return both
}

// flip reverses both the time and the position axis.
func flip(a *mat.Dense) *mat.Dense {
	n, m := a.Dims()
	out := mat.NewDense(n, m, nil)
	for t := 0; t < n; t++ {
		for k := 0; k < m; k++ {
			out.Set(n-1-t, m-1-k, a.At(t, k))
		}
	}
	return out
}
