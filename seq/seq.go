// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package seq provides the sequence types consumed and produced by networks.
//
// A Sequence is one gonum vector per timestep, all of the same width.
// Classes holds one class index per timestep or per transcript label.
package seq

import (
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/seqnet/internal/seq"
)

// Sequence is an ordered list of equally sized vectors.
type Sequence = seq.Sequence

// Classes is a list of class indices.
type Classes = seq.Classes

// New returns n zero vectors of the given width.
func New(n, width int) Sequence { return seq.New(n, width) }

// FromRows copies rows into a new sequence.
func FromRows(rows [][]float64) Sequence { return seq.FromRows(rows) }

// FromDense copies the rows of m into a new sequence.
func FromDense(m mat.Matrix) Sequence { return seq.FromDense(m) }

// OneHot encodes classes as one-hot vectors of the given width.
func OneHot(classes Classes, width int) (Sequence, error) { return seq.OneHot(classes, width) }
