package nn

import (
	"gonum.org/v1/gonum/mat"
)

// Param is a trainable tensor paired with its accumulated gradient.
//
// Exactly one of the Mat/DMat and Vec/DVec pairs is set. The gradient has
// the same shape as the value.
//
// Example:
//
//	for name, p := range nn.Weights(net, "") {
//	    fmt.Println(name, p.Shape())
//	}
type Param struct {
	Mat, DMat *mat.Dense
	Vec, DVec *mat.VecDense
}

// Shape returns [rows, cols] for matrices and [len] for vectors.
func (p *Param) Shape() []int {
	if p.Mat != nil {
		r, c := p.Mat.Dims()
		return []int{r, c}
	}
	return []int{p.Vec.Len()}
}

// Values returns the backing slice of the value, row-major.
func (p *Param) Values() []float64 {
	if p.Mat != nil {
		return p.Mat.RawMatrix().Data
	}
	return p.Vec.RawVector().Data
}

// Grads returns the backing slice of the gradient, row-major.
func (p *Param) Grads() []float64 {
	if p.DMat != nil {
		return p.DMat.RawMatrix().Data
	}
	return p.DVec.RawVector().Data
}

// ZeroGrad clears the gradient.
func (p *Param) ZeroGrad() {
	if p.DMat != nil {
		p.DMat.Zero()
		return
	}
	p.DVec.Zero()
}
