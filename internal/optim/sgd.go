package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/seqnet/internal/nn"
)

// SGD implements gradient descent with momentum kept in the gradient
// buffers themselves. For every parameter owned by a node with learning
// rate lr and momentum mu:
//
//	param += lr * grad
//	grad  *= mu
//
// so the next Backward accumulates on top of the decayed gradient. With
// mu = 0 this is plain SGD.
//
// Example:
//
//	net.SetLearningRate(1e-4, 0.9)
//	opt := optim.NewSGD(optim.SGDConfig{})
type SGD struct {
	clipGrad float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	ClipGrad float64 // Element-wise gradient bound before the update (0: off)
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	return &SGD{clipGrad: config.ClipGrad}
}

// Step updates every parameter with the learning rate and momentum of the
// node that owns it.
func (s *SGD) Step(net nn.Network) {
	for path, n := range nn.Networks(net, "") {
		b := n.Core()
		for _, p := range n.MyWeights(path) {
			grads := p.Grads()
			clip(grads, s.clipGrad)
			floats.AddScaled(p.Values(), b.LR, grads)
			floats.Scale(b.Momentum, grads)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD) ZeroGrad(net nn.Network) {
	nn.ClearGradients(net)
}
