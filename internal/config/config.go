// Package config builds network trees from YAML descriptions.
//
// A description names a kind, optional sizes passed to Init, optional
// children passed to Add, and per-node learning parameters:
//
//	network:
//	  kind: stacked
//	  lr: 0.001
//	  children:
//	    - kind: lstm
//	      sizes: [20, 3]
//	      lstm: {forget_bias: 1}
//	    - kind: softmax
//	      sizes: [4, 20]
//	      softmax: {floor: 0.0001, accelerated: true}
//	codec:
//	  kind: runes
//	  alphabet: "abc"
//
// Composite kinds (stacked, reversed, parallel) take children; every other
// kind takes sizes. Learning rates apply to the node and its descendants,
// and a descendant's own setting wins.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/seqnet/internal/codec"
	"github.com/born-ml/seqnet/internal/nn"
	"github.com/born-ml/seqnet/internal/nnerr"
)

// File is the top level of a description file.
type File struct {
	Network Network `yaml:"network"`
	Codec   *Codec  `yaml:"codec,omitempty"`
}

// Network describes one node.
type Network struct {
	Kind       string            `yaml:"kind"`
	Name       string            `yaml:"name,omitempty"`
	Sizes      []int             `yaml:"sizes,omitempty"`
	LR         *float64          `yaml:"lr,omitempty"`
	Momentum   *float64          `yaml:"momentum,omitempty"`
	Softmax    *Softmax          `yaml:"softmax,omitempty"`
	LSTM       *LSTM             `yaml:"lstm,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Children   []Network         `yaml:"children,omitempty"`
}

// Softmax overrides nn.DefaultSoftmaxConfig fields that are set.
type Softmax struct {
	Floor       float64 `yaml:"floor,omitempty"`
	Accelerated bool    `yaml:"accelerated,omitempty"`
}

// LSTM configures LSTM cells.
type LSTM struct {
	ForgetBias float64 `yaml:"forget_bias"`
}

// Codec selects the label codec attached to the root.
type Codec struct {
	Kind     string   `yaml:"kind"`
	Alphabet string   `yaml:"alphabet,omitempty"`
	Encoding string   `yaml:"encoding,omitempty"`
	Corpus   []string `yaml:"corpus,omitempty"`
}

// Parse decodes a description. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "failed to decode network description")
	}
	if f.Network.Kind == "" {
		return nil, errors.New("network description has no kind")
	}
	return &f, nil
}

// LoadFile reads and builds the description at path.
func LoadFile(path string) (nn.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return f.Build()
}

// Build creates and initializes the described tree and attaches the codec.
// With a codec, the root output width must equal the codec size.
func (f *File) Build() (nn.Network, error) {
	net, err := Build(f.Network)
	if err != nil {
		return nil, err
	}
	if f.Codec == nil {
		return net, nil
	}

	cdc, err := f.Codec.Build()
	if err != nil {
		return nil, err
	}
	if no := net.NOutput(); no != nn.Unknown && no != cdc.Size() {
		return nil, nnerr.Dimensionf("config.Build", "network has %d outputs, codec has %d classes", no, cdc.Size())
	}
	net.Core().Codec = cdc
	return net, nil
}

// Build creates the codec.
func (c *Codec) Build() (*codec.Codec, error) {
	switch c.Kind {
	case codec.KindRunes:
		if c.Alphabet == "" {
			return nil, errors.New("rune codec needs an alphabet")
		}
		return codec.NewRuneCodec(c.Alphabet), nil
	case codec.KindTikToken:
		return codec.NewTikTokenCodec(c.Encoding, c.Corpus...)
	default:
		return nil, errors.Errorf("unknown codec kind %q", c.Kind)
	}
}

// Build creates and initializes the node described by desc.
func Build(desc Network) (nn.Network, error) {
	net, err := build(desc, "network")
	if err != nil {
		return nil, err
	}
	applyRates(desc, net)
	return net, nil
}

func build(desc Network, path string) (nn.Network, error) {
	kind, err := nn.ParseKind(desc.Kind)
	if err != nil {
		return nil, errors.Wrapf(err, "at %s", path)
	}
	if len(desc.Sizes) > 0 && len(desc.Children) > 0 {
		return nil, errors.Errorf("at %s: sizes and children are mutually exclusive", path)
	}
	net, err := nn.New(kind)
	if err != nil {
		return nil, errors.Wrapf(err, "at %s", path)
	}

	if err := configure(net, desc); err != nil {
		return nil, errors.Wrapf(err, "at %s", path)
	}

	for i, cd := range desc.Children {
		child, err := build(cd, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := net.Add(child); err != nil {
			return nil, errors.Wrapf(err, "at %s", path)
		}
	}
	if len(desc.Sizes) > 0 {
		if err := net.Init(desc.Sizes...); err != nil {
			return nil, errors.Wrapf(err, "at %s", path)
		}
	}

	b := net.Core()
	if desc.Name != "" {
		b.Name = desc.Name
	}
	for k, v := range desc.Attributes {
		if b.Attributes == nil {
			b.Attributes = make(map[string]string)
		}
		b.Attributes[k] = v
	}
	return net, nil
}

// configure copies variant settings onto net before Init.
func configure(net nn.Network, desc Network) error {
	softmax := nn.DefaultSoftmaxConfig()
	if s := desc.Softmax; s != nil {
		if s.Floor != 0 {
			softmax.Floor = s.Floor
		}
		softmax.Accelerated = s.Accelerated
	}

	switch n := net.(type) {
	case *nn.Softmax:
		n.Config = softmax
	case *nn.LSTM:
		if desc.LSTM != nil {
			n.Config.ForgetBias = desc.LSTM.ForgetBias
		}
	case *nn.LSTMStack:
		n.Softmax = softmax
		if desc.LSTM != nil {
			n.LSTM.ForgetBias = desc.LSTM.ForgetBias
		}
	default:
		if desc.Softmax != nil || desc.LSTM != nil {
			return errors.Errorf("%s takes no softmax or lstm settings", net.Kind())
		}
	}
	return nil
}

// applyRates sets learning parameters top-down so that children described
// with their own values override their parent's.
func applyRates(desc Network, net nn.Network) {
	b := net.Core()
	if desc.LR != nil || desc.Momentum != nil {
		lr, momentum := b.LR, b.Momentum
		if desc.LR != nil {
			lr = *desc.LR
		}
		if desc.Momentum != nil {
			momentum = *desc.Momentum
		}
		b.SetLearningRate(lr, momentum)
	}
	for i, cd := range desc.Children {
		applyRates(cd, b.Sub[i])
	}
}
