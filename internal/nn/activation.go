package nn

import "math"

// activation is an elementwise nonlinearity. deriv is expressed in terms of
// the activation's output y, which is what Backward has at hand.
type activation struct {
	apply func(x float64) float64
	deriv func(y float64) float64
}

var (
	identity = activation{
		apply: func(x float64) float64 { return x },
		deriv: func(float64) float64 { return 1 },
	}
	sigmoid = activation{
		apply: sigmoidf,
		deriv: func(y float64) float64 { return y * (1 - y) },
	}
	tanh = activation{
		apply: math.Tanh,
		deriv: func(y float64) float64 { return 1 - y*y },
	}
	relu = activation{
		apply: func(x float64) float64 { return math.Max(0, x) },
		deriv: func(y float64) float64 {
			if y > 0 {
				return 1
			}
			return 0
		},
	}
)

func sigmoidf(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
