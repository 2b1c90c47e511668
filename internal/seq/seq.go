// Package seq provides the time-indexed containers that flow between
// network nodes.
//
// A Sequence holds one dense vector per timestep; all vectors of a sequence
// have the same width. Classes holds one integer label per timestep (hard
// targets, predictions) or per recognized unit (transcripts).
package seq

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/nnerr"
)

// Sequence is an ordered list of feature vectors, one per timestep.
type Sequence []*mat.VecDense

// Classes is an ordered list of label indices.
type Classes []int

// New returns a zeroed sequence of n timesteps with the given width.
func New(n, width int) Sequence {
	s := make(Sequence, n)
	for t := range s {
		s[t] = mat.NewVecDense(width, nil)
	}
	return s
}

// FromRows builds a sequence from row slices. The rows are copied.
func FromRows(rows [][]float64) Sequence {
	s := make(Sequence, len(rows))
	for t, row := range rows {
		s[t] = mat.NewVecDense(len(row), append([]float64(nil), row...))
	}
	return s
}

// Len returns the number of timesteps.
func (s Sequence) Len() int { return len(s) }

// Dim returns the width of the vectors, or 0 for an empty sequence.
func (s Sequence) Dim() int {
	if len(s) == 0 {
		return 0
	}
	return s[0].Len()
}

// Check verifies that every timestep has the given width.
func (s Sequence) Check(op string, width int) error {
	for t, v := range s {
		if v == nil {
			return nnerr.Dimensionf(op, "missing vector at timestep %d", t)
		}
		if v.Len() != width {
			return nnerr.Dimensionf(op, "expected %d features at timestep %d, got %d", width, t, v.Len())
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s Sequence) Clone() Sequence {
	c := make(Sequence, len(s))
	for t, v := range s {
		c[t] = mat.VecDenseCopyOf(v)
	}
	return c
}

// Reversed returns a new sequence with the timesteps in reverse order. The
// vectors themselves are shared.
func (s Sequence) Reversed() Sequence {
	r := make(Sequence, len(s))
	for t, v := range s {
		r[len(s)-1-t] = v
	}
	return r
}

// Timeslice returns feature i across all timesteps.
func (s Sequence) Timeslice(i int) []float64 {
	out := make([]float64, len(s))
	for t, v := range s {
		out[t] = v.AtVec(i)
	}
	return out
}

// ToDense returns the sequence as a matrix with one row per timestep.
//
// Panics on an empty sequence.
func (s Sequence) ToDense() *mat.Dense {
	m := mat.NewDense(len(s), s.Dim(), nil)
	for t, v := range s {
		m.SetRow(t, v.RawVector().Data)
	}
	return m
}

// FromDense splits a matrix into a sequence, one row per timestep.
func FromDense(m mat.Matrix) Sequence {
	r, c := m.Dims()
	s := New(r, c)
	for t := 0; t < r; t++ {
		for j := 0; j < c; j++ {
			s[t].SetVec(j, m.At(t, j))
		}
	}
	return s
}

// Argmax returns the index of the largest feature at each timestep.
func (s Sequence) Argmax() Classes {
	out := make(Classes, len(s))
	for t, v := range s {
		out[t] = floats.MaxIdx(v.RawVector().Data)
	}
	return out
}

// OneHot encodes classes as a sequence of one-hot vectors of the given width.
func OneHot(classes Classes, width int) (Sequence, error) {
	s := New(len(classes), width)
	for t, c := range classes {
		if c < 0 || c >= width {
			return nil, nnerr.Shapef("seq.OneHot", "class %d at timestep %d outside [0, %d)", c, t, width)
		}
		s[t].SetVec(c, 1)
	}
	return s, nil
}

// Equal reports whether two class lists are identical.
func (c Classes) Equal(other Classes) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}
