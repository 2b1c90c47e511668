// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/born-ml/seqnet/internal/config"
	"github.com/born-ml/seqnet/internal/ctc"
	"github.com/born-ml/seqnet/internal/nn"
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/seq"
)

// Network is the capability interface shared by every node variant.
type Network = nn.Network

// Base holds the ports, learning parameters, attributes and children of a node.
type Base = nn.Base

// Param is a parameter value together with its accumulated gradient.
type Param = nn.Param

// Kind identifies a node variant.
type Kind = nn.Kind

// Node variants.
const (
	KindLinear   = nn.KindLinear
	KindLogreg   = nn.KindLogreg
	KindSoftmax  = nn.KindSoftmax
	KindTanh     = nn.KindTanh
	KindRelu     = nn.KindRelu
	KindStacked  = nn.KindStacked
	KindReversed = nn.KindReversed
	KindParallel = nn.KindParallel
	KindMLP      = nn.KindMLP
	KindLSTM     = nn.KindLSTM
	KindLSTM1    = nn.KindLSTM1
	KindRevLSTM1 = nn.KindRevLSTM1
	KindBidiLSTM = nn.KindBidiLSTM
)

// Unknown is reported by NInput and NOutput before a node is sized.
const Unknown = nn.Unknown

// Default learning parameters of a new node.
const (
	DefaultLR       = nn.DefaultLR
	DefaultMomentum = nn.DefaultMomentum
)

// Error sentinels.
var (
	ErrUnimplemented     = nnerr.ErrUnimplemented
	ErrUnsupportedShape  = nnerr.ErrUnsupportedShape
	ErrDimensionMismatch = nnerr.ErrDimensionMismatch
)

// ParseKind returns the variant with the given name, such as "bidilstm".
func ParseKind(name string) (Kind, error) { return nn.ParseKind(name) }

// New returns an un-initialized node of the given variant.
func New(kind Kind) (Network, error) { return nn.New(kind) }

// Layers

// Full is a fully connected layer y = f(Wx + w).
type Full = nn.Full

// NewLinear creates an identity-activated layer. Init(no, ni).
func NewLinear() *Full { return nn.NewLinear() }

// NewLogreg creates a sigmoid layer. Init(no, ni).
func NewLogreg() *Full { return nn.NewLogreg() }

// NewTanh creates a tanh layer. Init(no, ni).
func NewTanh() *Full { return nn.NewTanh() }

// NewRelu creates a rectifier layer. Init(no, ni).
func NewRelu() *Full { return nn.NewRelu() }

// Softmax is a fully connected layer with a floored softmax output.
type Softmax = nn.Softmax

// SoftmaxConfig configures a Softmax layer.
type SoftmaxConfig = nn.SoftmaxConfig

// DefaultSoftmaxFloor is the smallest probability a Softmax emits.
const DefaultSoftmaxFloor = nn.DefaultSoftmaxFloor

// NewSoftmax creates a softmax layer. Init(no, ni).
//
// Example:
//
//	out := nn.NewSoftmax()
//	out.Config.Accelerated = true
//	err := out.Init(nclasses, nhidden)
func NewSoftmax() *Softmax { return nn.NewSoftmax() }

// Composition

// Stacked runs its children in order.
type Stacked = nn.Stacked

// NewStacked creates an empty stack. Children are added with Add.
func NewStacked() *Stacked { return nn.NewStacked() }

// Reversed runs its single child over the time-reversed sequence.
type Reversed = nn.Reversed

// NewReversed creates a reversing wrapper.
func NewReversed() *Reversed { return nn.NewReversed() }

// Parallel runs its children on the same input and concatenates their outputs.
type Parallel = nn.Parallel

// NewParallel creates an empty parallel node.
func NewParallel() *Parallel { return nn.NewParallel() }

// MLP is a stack of tanh layers under a logistic output layer.
type MLP = nn.MLP

// NewMLP creates a perceptron. Init(no, nh, ni) or Init(no, nh2, nh, ni).
func NewMLP() *MLP { return nn.NewMLP() }

// Recurrent

// LSTM is a single LSTM layer.
type LSTM = nn.LSTM

// LSTMConfig configures an LSTM layer.
type LSTMConfig = nn.LSTMConfig

// NewLSTM creates an LSTM layer. Init(no, ni).
func NewLSTM() *LSTM { return nn.NewLSTM() }

// LSTMStack is an LSTM network with a softmax output.
type LSTMStack = nn.LSTMStack

// NewLSTM1 creates LSTM + Softmax. Init(no, nh, ni).
func NewLSTM1() *LSTMStack { return nn.NewLSTM1() }

// NewRevLSTM1 creates Reversed(LSTM) + Softmax. Init(no, nh, ni).
func NewRevLSTM1() *LSTMStack { return nn.NewRevLSTM1() }

// NewBidiLSTM creates Parallel(LSTM, Reversed(LSTM)) + Softmax. Init(no, nh, ni).
func NewBidiLSTM() *LSTMStack { return nn.NewBidiLSTM() }

// Iteration

// Weights yields every parameter of the tree under its hierarchical name.
func Weights(net Network, prefix string) iter.Seq2[string, *Param] {
	return nn.Weights(net, prefix)
}

// States yields every internal state sequence of the tree.
func States(net Network, prefix string) iter.Seq2[string, *seq.Sequence] {
	return nn.States(net, prefix)
}

// Networks yields every node of the tree, the root first.
func Networks(net Network, prefix string) iter.Seq2[string, Network] {
	return nn.Networks(net, prefix)
}

// GetState returns the state sequence with the given hierarchical name.
func GetState(net Network, name string) (*seq.Sequence, bool) { return nn.GetState(net, name) }

// ClearGradients zeros every accumulated gradient of the tree.
func ClearGradients(net Network) { nn.ClearGradients(net) }

// Info logs the node tree and parameter norms.
func Info(net Network, logger *logrus.Logger) { nn.Info(net, logger) }

// Training

// SetInputs sets the inputs of net.
func SetInputs(net Network, xs seq.Sequence) { nn.SetInputs(net, xs) }

// SetTargets sets d_outputs to targets - outputs.
func SetTargets(net Network, targets seq.Sequence) error { return nn.SetTargets(net, targets) }

// SetTargetsAccelerated is SetTargets with each step's delta divided by the
// output probability of its target class, floored at floor.
func SetTargetsAccelerated(net Network, targets seq.Sequence, floor float64) error {
	return nn.SetTargetsAccelerated(net, targets, floor)
}

// SetClasses sets d_outputs from one class per step.
func SetClasses(net Network, classes seq.Classes) error { return nn.SetClasses(net, classes) }

// Train runs one forward/backward cycle against dense targets.
func Train(net Network, xs, targets seq.Sequence) error { return nn.Train(net, xs, targets) }

// CTrain runs one forward/backward cycle against one class per step.
func CTrain(net Network, xs seq.Sequence, classes seq.Classes) error {
	return nn.CTrain(net, xs, classes)
}

// CTrainAccelerated is CTrain with accelerated deltas.
func CTrainAccelerated(net Network, xs seq.Sequence, classes seq.Classes, floor float64) error {
	return nn.CTrainAccelerated(net, xs, classes, floor)
}

// CPred runs net forward and returns the most likely class per step.
func CPred(net Network, xs seq.Sequence) (seq.Classes, error) { return nn.CPred(net, xs) }

// CTCTrain aligns the outputs of net with transcript and trains on the
// aligned targets. A nil aligner uses the defaults.
func CTCTrain(net Network, xs seq.Sequence, transcript seq.Classes, aligner *ctc.Aligner) (seq.Sequence, error) {
	return nn.CTCTrain(net, xs, transcript, aligner)
}

// Loss returns half the squared norm of the current d_outputs.
func Loss(net Network) float64 { return nn.Loss(net) }

// Persistence

// Checkpoint is a network snapshot together with training progress.
type Checkpoint = nn.Checkpoint

// Save writes the parameters, attributes and codec of net to path.
func Save(net Network, path string) error { return nn.Save(net, path) }

// Load restores net, which must already have the saved topology.
func Load(net Network, path string) error { return nn.Load(net, path) }

// LoadCheckpoint restores net and returns the saved training progress.
func LoadCheckpoint(path string, net Network) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, net)
}

// ExportSafeTensors writes the parameters of net as a SafeTensors file.
func ExportSafeTensors(net Network, path string) error { return nn.ExportSafeTensors(net, path) }

// LoadConfig builds and initializes the network described by a YAML file.
func LoadConfig(path string) (Network, error) { return config.LoadFile(path) }
