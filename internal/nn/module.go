package nn

import (
	"iter"
	"strconv"

	"github.com/born-ml/seqnet/internal/seq"
)

// join builds hierarchical names: "" + "x" is "x", "a" + "x" is "a.x".
func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Weights yields every trainable parameter of net and its descendants in
// depth-first pre-order. Node i among its parent's children is named by its
// index followed by its own name, so a stack of two linear layers yields
// "stacked.0.linear.W", "stacked.0.linear.w", "stacked.1.linear.W", ...
func Weights(net Network, prefix string) iter.Seq2[string, *Param] {
	return func(yield func(string, *Param) bool) {
		walk(net, prefix, func(n Network, path string) bool {
			for name, p := range n.MyWeights(path) {
				if !yield(name, p) {
					return false
				}
			}
			return true
		})
	}
}

// States yields every recurrent state sequence of net and its descendants,
// named like Weights.
func States(net Network, prefix string) iter.Seq2[string, *seq.Sequence] {
	return func(yield func(string, *seq.Sequence) bool) {
		walk(net, prefix, func(n Network, path string) bool {
			for name, s := range n.MyStates(path) {
				if !yield(name, s) {
					return false
				}
			}
			return true
		})
	}
}

// Networks yields net and every descendant with its hierarchical path.
func Networks(net Network, prefix string) iter.Seq2[string, Network] {
	return func(yield func(string, Network) bool) {
		walk(net, prefix, func(n Network, path string) bool {
			return yield(path, n)
		})
	}
}

// GetState returns the state sequence with the given hierarchical name.
func GetState(net Network, name string) (*seq.Sequence, bool) {
	for n, s := range States(net, "") {
		if n == name {
			return s, true
		}
	}
	return nil, false
}

// ClearGradients zeros every parameter gradient in the tree.
func ClearGradients(net Network) {
	for _, p := range Weights(net, "") {
		p.ZeroGrad()
	}
}

// walk visits n and its descendants in pre-order until visit returns false.
func walk(n Network, prefix string, visit func(Network, string) bool) bool {
	path := join(prefix, n.Core().Name)
	if !visit(n, path) {
		return false
	}
	for i, child := range n.Core().Sub {
		if !walk(child, join(path, strconv.Itoa(i)), visit) {
			return false
		}
	}
	return true
}
