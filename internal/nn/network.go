// Package nn implements sequence-processing network nodes.
//
// This package provides:
//   - Network: capability interface shared by every node variant
//   - Base: ports, learning rate, attributes and owned children of a node
//   - Full layers: Linear, Logreg, Tanh, Relu, Softmax
//   - Composition: Stacked, Reversed, Parallel, MLP
//   - Recurrent: LSTM and the LSTM1, RevLSTM1 and BidiLSTM stacks
//   - Iteration: Weights, States and Networks over a node tree
//   - Training: Train, CTrain, CTCTrain, CPred and friends
//   - Checkpoints: Save and Load of parameter values
//
// A node is constructed un-initialized, sized once with Init, then driven
// through any number of Forward/Backward cycles:
//
//	net := nn.NewBidiLSTM()
//	if err := net.Init(noutput, nhidden, ninput); err != nil {
//	    return err
//	}
//	nn.SetInputs(net, xs)
//	if err := net.Forward(); err != nil {
//	    return err
//	}
//
// Nodes are not safe for concurrent use.
package nn

import (
	"iter"

	"github.com/born-ml/seqnet/internal/codec"
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// Unknown is reported by NInput and NOutput when a node's width is not
// fixed, for example before Init.
const Unknown = -999999

// Defaults for Base.LR and Base.Momentum.
const (
	DefaultLR       = 1e-4
	DefaultMomentum = 0.9
)

// Network is the capability interface of a node.
//
// Every variant embeds Base, which supplies the defaults: Init fails with
// nnerr.ErrUnimplemented for every arity, widths are Unknown, Add appends
// a child, and a node owns no weights or states.
type Network interface {
	// Kind identifies the variant.
	Kind() Kind

	// Core returns the shared node record (ports, learning rate,
	// attributes, children).
	Core() *Base

	// Init allocates parameters. The meaning and number of sizes depends on
	// the variant: (no, ni), (no, nh, ni) or (no, nh2, nh, ni).
	Init(sizes ...int) error

	// Forward computes Outputs from Inputs.
	Forward() error

	// Backward computes DInputs from DOutputs and accumulates parameter
	// gradients. It must follow a Forward on the same inputs.
	Backward() error

	// NInput and NOutput report the expected feature widths.
	NInput() int
	NOutput() int

	// Add appends a child node.
	Add(child Network) error

	// MyWeights yields the trainable parameters owned directly by this
	// node, named prefix + "." + parameter name.
	MyWeights(prefix string) iter.Seq2[string, *Param]

	// MyStates yields the recurrent state sequences owned directly by
	// this node.
	MyStates(prefix string) iter.Seq2[string, *seq.Sequence]

	// PreSave runs before parameter values are serialized.
	PreSave()

	// PostLoad runs after parameter values have been restored.
	PostLoad()
}

// Base is the record shared by every node.
type Base struct {
	// Name is used as the node's component in hierarchical names.
	Name string

	// Ports. Inputs and DOutputs are supplied by the caller (or the
	// parent node); Outputs and DInputs are produced by Forward and
	// Backward.
	Inputs, DInputs   seq.Sequence
	Outputs, DOutputs seq.Sequence

	// LR and Momentum are consumed by the optimizer step.
	LR       float64
	Momentum float64

	// Codec interprets output classes. Usually only set on the root.
	Codec *codec.Codec

	// Attributes is free-form metadata persisted with the network.
	Attributes map[string]string

	// Sub holds the children. A node exclusively owns its children.
	Sub []Network

	kind Kind
}

func newBase(kind Kind) Base {
	return Base{
		Name:       kind.String(),
		LR:         DefaultLR,
		Momentum:   DefaultMomentum,
		Attributes: make(map[string]string),
		kind:       kind,
	}
}

// Kind returns the node variant.
func (b *Base) Kind() Kind { return b.kind }

// Core returns b.
func (b *Base) Core() *Base { return b }

// Init fails: the variant accepts no initializer with len(sizes) sizes.
func (b *Base) Init(sizes ...int) error {
	return nnerr.Unimplementedf(b.Name+".Init", "no initializer taking %d sizes", len(sizes))
}

// NInput returns Unknown.
func (b *Base) NInput() int { return Unknown }

// NOutput returns Unknown.
func (b *Base) NOutput() int { return Unknown }

// Add appends child to Sub. A child whose subtree already contains b is
// rejected, so the tree stays acyclic.
func (b *Base) Add(child Network) error {
	if child == nil {
		return nnerr.Unimplementedf(b.op("Add"), "cannot add a nil child")
	}
	for _, n := range Networks(child, "") {
		if n.Core() == b {
			return nnerr.Unimplementedf(b.op("Add"), "cannot add %s: it contains %s", child.Kind(), b.kind)
		}
	}
	b.Sub = append(b.Sub, child)
	return nil
}

// MyWeights yields nothing.
func (b *Base) MyWeights(string) iter.Seq2[string, *Param] {
	return func(func(string, *Param) bool) {}
}

// MyStates yields nothing.
func (b *Base) MyStates(string) iter.Seq2[string, *seq.Sequence] {
	return func(func(string, *seq.Sequence) bool) {}
}

// PreSave does nothing.
func (b *Base) PreSave() {}

// PostLoad does nothing.
func (b *Base) PostLoad() {}

// SetLearningRate sets lr and momentum on b and every descendant.
func (b *Base) SetLearningRate(lr, momentum float64) {
	b.LR = lr
	b.Momentum = momentum
	for _, child := range b.Sub {
		child.Core().SetLearningRate(lr, momentum)
	}
}

func (b *Base) op(name string) string {
	return b.Name + "." + name
}

// checkBackward verifies that DOutputs matches the Outputs of the last
// Forward.
func (b *Base) checkBackward(width int) error {
	op := b.op("Backward")
	if len(b.Outputs) == 0 && len(b.Inputs) != 0 {
		return nnerr.Dimensionf(op, "no outputs; Forward must run first")
	}
	if len(b.DOutputs) != len(b.Outputs) {
		return nnerr.Dimensionf(op, "%d output gradients for %d outputs", len(b.DOutputs), len(b.Outputs))
	}
	return b.DOutputs.Check(op, width)
}

// rejectChild is Add for leaf variants.
func (b *Base) rejectChild() error {
	return nnerr.Unimplementedf(b.op("Add"), "%s nodes take no children", b.kind)
}
