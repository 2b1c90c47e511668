// Package optim applies accumulated gradients to the parameters of a
// network tree.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: per-node learning rate and momentum taken from each node
//
// Gradients follow the network convention: Backward consumes
// targets - outputs, so accumulated gradients already point downhill and
// updates add them.
//
// Example usage:
//
//	opt := optim.NewSGD(optim.SGDConfig{ClipGrad: 10})
//	for _, sample := range samples {
//	    if err := nn.CTrain(net, sample.Inputs, sample.Classes); err != nil {
//	        return err
//	    }
//	    opt.Step(net)
//	}
package optim

import (
	"github.com/born-ml/seqnet/internal/nn"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies the accumulated gradients of every parameter in net.
	Step(net nn.Network)

	// ZeroGrad clears all parameter gradients of net.
	ZeroGrad(net nn.Network)
}

// clip bounds every element of grads to [-limit, limit]. A non-positive
// limit disables clipping.
func clip(grads []float64, limit float64) {
	if limit <= 0 {
		return
	}
	for i, g := range grads {
		switch {
		case g > limit:
			grads[i] = limit
		case g < -limit:
			grads[i] = -limit
		}
	}
}
