package nn

import (
	"fmt"

	"github.com/born-ml/seqnet/internal/nnerr"
)

// Kind enumerates the node variants.
type Kind int

// Node variants.
const (
	KindLinear Kind = iota + 1
	KindLogreg
	KindSoftmax
	KindTanh
	KindRelu
	KindStacked
	KindReversed
	KindParallel
	KindMLP
	KindLSTM
	KindLSTM1
	KindRevLSTM1
	KindBidiLSTM
)

var kindNames = map[Kind]string{
	KindLinear:   "linear",
	KindLogreg:   "logreg",
	KindSoftmax:  "softmax",
	KindTanh:     "tanh",
	KindRelu:     "relu",
	KindStacked:  "stacked",
	KindReversed: "reversed",
	KindParallel: "parallel",
	KindMLP:      "mlp",
	KindLSTM:     "lstm",
	KindLSTM1:    "lstm1",
	KindRevLSTM1: "revlstm1",
	KindBidiLSTM: "bidilstm",
}

// String returns the lower-case variant name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, nnerr.Unimplementedf("nn.ParseKind", "unknown network kind %q", name)
}

// New returns a fresh, un-initialized node of the given kind.
func New(kind Kind) (Network, error) {
	switch kind {
	case KindLinear:
		return NewLinear(), nil
	case KindLogreg:
		return NewLogreg(), nil
	case KindSoftmax:
		return NewSoftmax(), nil
	case KindTanh:
		return NewTanh(), nil
	case KindRelu:
		return NewRelu(), nil
	case KindStacked:
		return NewStacked(), nil
	case KindReversed:
		return NewReversed(), nil
	case KindParallel:
		return NewParallel(), nil
	case KindMLP:
		return NewMLP(), nil
	case KindLSTM:
		return NewLSTM(), nil
	case KindLSTM1:
		return NewLSTM1(), nil
	case KindRevLSTM1:
		return NewRevLSTM1(), nil
	case KindBidiLSTM:
		return NewBidiLSTM(), nil
	default:
		return nil, nnerr.Unimplementedf("nn.New", "unknown network kind %v", kind)
	}
}
