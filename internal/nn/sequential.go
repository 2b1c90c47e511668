package nn

import (
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// Stacked chains its children: each child's outputs are the next child's
// inputs. Backward runs the children in reverse order.
//
// Example:
//
//	net := nn.NewStacked()
//	_ = net.Add(hidden)
//	_ = net.Add(output)
type Stacked struct {
	Base
}

// NewStacked returns an empty stack.
func NewStacked() *Stacked {
	return &Stacked{Base: newBase(KindStacked)}
}

// NInput returns the first child's input width.
func (s *Stacked) NInput() int {
	if len(s.Sub) == 0 {
		return Unknown
	}
	return s.Sub[0].NInput()
}

// NOutput returns the last child's output width.
func (s *Stacked) NOutput() int {
	if len(s.Sub) == 0 {
		return Unknown
	}
	return s.Sub[len(s.Sub)-1].NOutput()
}

// Forward runs the children in order.
func (s *Stacked) Forward() error {
	if len(s.Sub) == 0 {
		return nnerr.Unimplementedf(s.op("Forward"), "stack has no children")
	}
	xs := s.Inputs
	for _, child := range s.Sub {
		c := child.Core()
		c.Inputs = xs
		if err := child.Forward(); err != nil {
			return err
		}
		xs = c.Outputs
	}
	s.Outputs = xs
	return nil
}

// Backward runs the children in reverse order.
func (s *Stacked) Backward() error {
	if len(s.Sub) == 0 {
		return nnerr.Unimplementedf(s.op("Backward"), "stack has no children")
	}
	d := s.DOutputs
	for i := len(s.Sub) - 1; i >= 0; i-- {
		c := s.Sub[i].Core()
		c.DOutputs = d
		if err := s.Sub[i].Backward(); err != nil {
			return err
		}
		d = c.DInputs
	}
	s.DInputs = d
	return nil
}

// Reversed runs its single child on the time-reversed input sequence and
// reverses the child's outputs back into the original order.
type Reversed struct {
	Base
}

// NewReversed returns a reversal wrapper without a child.
func NewReversed() *Reversed {
	return &Reversed{Base: newBase(KindReversed)}
}

// Add sets the wrapped child. Only one child is allowed.
func (r *Reversed) Add(child Network) error {
	if len(r.Sub) != 0 {
		return nnerr.Unimplementedf(r.op("Add"), "reversed takes exactly one child")
	}
	return r.Base.Add(child)
}

// NInput returns the child's input width.
func (r *Reversed) NInput() int {
	if len(r.Sub) == 0 {
		return Unknown
	}
	return r.Sub[0].NInput()
}

// NOutput returns the child's output width.
func (r *Reversed) NOutput() int {
	if len(r.Sub) == 0 {
		return Unknown
	}
	return r.Sub[0].NOutput()
}

// Forward runs the child over reversed time.
func (r *Reversed) Forward() error {
	if len(r.Sub) != 1 {
		return nnerr.Unimplementedf(r.op("Forward"), "reversed needs exactly one child, has %d", len(r.Sub))
	}
	c := r.Sub[0].Core()
	c.Inputs = r.Inputs.Reversed()
	if err := r.Sub[0].Forward(); err != nil {
		return err
	}
	r.Outputs = c.Outputs.Reversed()
	return nil
}

// Backward runs the child's backward pass over reversed time.
func (r *Reversed) Backward() error {
	if len(r.Sub) != 1 {
		return nnerr.Unimplementedf(r.op("Backward"), "reversed needs exactly one child, has %d", len(r.Sub))
	}
	c := r.Sub[0].Core()
	c.DOutputs = r.DOutputs.Reversed()
	if err := r.Sub[0].Backward(); err != nil {
		return err
	}
	r.DInputs = c.DInputs.Reversed()
	return nil
}

// Parallel feeds the same inputs to every child and concatenates the
// children's outputs feature-wise, in child order. Backward splits
// DOutputs accordingly and sums the children's DInputs.
type Parallel struct {
	Base
}

// NewParallel returns an empty parallel node.
func NewParallel() *Parallel {
	return &Parallel{Base: newBase(KindParallel)}
}

// NInput returns the first child's input width.
func (p *Parallel) NInput() int {
	if len(p.Sub) == 0 {
		return Unknown
	}
	return p.Sub[0].NInput()
}

// NOutput returns the sum of the children's output widths.
func (p *Parallel) NOutput() int {
	if len(p.Sub) == 0 {
		return Unknown
	}
	total := 0
	for _, child := range p.Sub {
		n := child.NOutput()
		if n == Unknown {
			return Unknown
		}
		total += n
	}
	return total
}

// Forward runs every child on Inputs.
func (p *Parallel) Forward() error {
	if len(p.Sub) == 0 {
		return nnerr.Unimplementedf(p.op("Forward"), "parallel has no children")
	}
	width := 0
	for _, child := range p.Sub {
		c := child.Core()
		c.Inputs = p.Inputs
		if err := child.Forward(); err != nil {
			return err
		}
		if len(c.Outputs) != len(p.Inputs) {
			return nnerr.Dimensionf(p.op("Forward"), "child %s produced %d timesteps for %d inputs",
				c.Name, len(c.Outputs), len(p.Inputs))
		}
		width += c.Outputs.Dim()
	}
	p.Outputs = seq.New(len(p.Inputs), width)
	for t, y := range p.Outputs {
		raw := y.RawVector().Data
		offset := 0
		for _, child := range p.Sub {
			offset += copy(raw[offset:], child.Core().Outputs[t].RawVector().Data)
		}
	}
	return nil
}

// Backward splits DOutputs among the children and sums their DInputs.
func (p *Parallel) Backward() error {
	if len(p.Sub) == 0 {
		return nnerr.Unimplementedf(p.op("Backward"), "parallel has no children")
	}
	if err := p.checkBackward(p.Outputs.Dim()); err != nil {
		return err
	}
	p.DInputs = seq.New(len(p.Inputs), p.Inputs.Dim())
	offset := 0
	for _, child := range p.Sub {
		c := child.Core()
		width := c.Outputs.Dim()
		c.DOutputs = seq.New(len(p.DOutputs), width)
		for t, d := range p.DOutputs {
			copy(c.DOutputs[t].RawVector().Data, d.RawVector().Data[offset:offset+width])
		}
		offset += width
		if err := child.Backward(); err != nil {
			return err
		}
		for t, d := range p.DInputs {
			d.AddVec(d, c.DInputs[t])
		}
	}
	return nil
}
