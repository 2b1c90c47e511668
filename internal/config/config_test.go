package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seqnet/internal/config"
	"github.com/born-ml/seqnet/internal/nn"
	"github.com/born-ml/seqnet/internal/nnerr"
)

const stackedLSTM = `
network:
  kind: stacked
  name: ocr
  lr: 0.001
  momentum: 0.5
  attributes:
    dataset: toy
  children:
    - kind: lstm
      sizes: [5, 2]
      lstm: {forget_bias: 1}
    - kind: softmax
      sizes: [4, 5]
      lr: 0.01
      softmax: {floor: 0.001, accelerated: true}
codec:
  kind: runes
  alphabet: cab
`

func TestBuildStackedLSTM(t *testing.T) {
	f, err := config.Parse([]byte(stackedLSTM))
	require.NoError(t, err)
	net, err := f.Build()
	require.NoError(t, err)

	assert.Equal(t, nn.KindStacked, net.Kind())
	assert.Equal(t, 2, net.NInput())
	assert.Equal(t, 4, net.NOutput())

	root := net.Core()
	assert.Equal(t, "ocr", root.Name)
	assert.Equal(t, "toy", root.Attributes["dataset"])
	require.NotNil(t, root.Codec)
	assert.Equal(t, 4, root.Codec.Size())

	lstm := root.Sub[0].(*nn.LSTM)
	assert.Equal(t, 1.0, lstm.Config.ForgetBias)
	assert.Equal(t, 1.0, lstm.W[nn.GateForget].At(0, 0))
	assert.Equal(t, 0.001, lstm.LR)
	assert.Equal(t, 0.5, lstm.Momentum)

	softmax := root.Sub[1].(*nn.Softmax)
	assert.Equal(t, 0.001, softmax.Config.Floor)
	assert.True(t, softmax.Config.Accelerated)
	assert.Equal(t, 0.01, softmax.LR)
	assert.Equal(t, 0.5, softmax.Momentum)

	var names []string
	for name := range nn.Weights(net, "") {
		names = append(names, name)
	}
	assert.True(t, slices.Contains(names, "ocr.0.lstm.WGI"), "names: %v", names)
	assert.True(t, slices.Contains(names, "ocr.1.softmax.W"), "names: %v", names)
}

func TestBuildPrefabricatedKinds(t *testing.T) {
	tests := []struct {
		kind    string
		sizes   []int
		ninput  int
		noutput int
	}{
		{"linear", []int{3, 2}, 2, 3},
		{"relu", []int{3, 2}, 2, 3},
		{"mlp", []int{2, 4, 3}, 3, 2},
		{"mlp", []int{2, 5, 4, 3}, 3, 2},
		{"lstm1", []int{4, 3, 2}, 2, 4},
		{"revlstm1", []int{4, 3, 2}, 2, 4},
		{"bidilstm", []int{4, 3, 2}, 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			net, err := config.Build(config.Network{Kind: tt.kind, Sizes: tt.sizes})
			require.NoError(t, err)
			assert.Equal(t, tt.ninput, net.NInput())
			assert.Equal(t, tt.noutput, net.NOutput())
		})
	}
}

func TestBuildLSTMStackConfig(t *testing.T) {
	net, err := config.Build(config.Network{
		Kind:    "bidilstm",
		Sizes:   []int{3, 2, 2},
		LSTM:    &config.LSTM{ForgetBias: 2},
		Softmax: &config.Softmax{Accelerated: true},
	})
	require.NoError(t, err)

	stack := net.(*nn.LSTMStack)
	assert.Equal(t, 2.0, stack.LSTM.ForgetBias)
	assert.True(t, stack.Softmax.Accelerated)
	assert.Equal(t, nn.DefaultSoftmaxFloor, stack.Softmax.Floor)
}

func TestBuildRejectsBadDescriptions(t *testing.T) {
	tests := []struct {
		name string
		desc config.Network
		is   error
	}{
		{"unknown kind", config.Network{Kind: "gru"}, nnerr.ErrUnimplemented},
		{"composite with sizes", config.Network{Kind: "stacked", Sizes: []int{2, 2}}, nnerr.ErrUnimplemented},
		{"wrong arity", config.Network{Kind: "lstm", Sizes: []int{2, 2, 2}}, nnerr.ErrUnimplemented},
		{"child of a layer", config.Network{Kind: "linear", Children: []config.Network{{Kind: "tanh", Sizes: []int{1, 1}}}}, nnerr.ErrUnimplemented},
		{"bad floor", config.Network{Kind: "softmax", Sizes: []int{2, 2}, Softmax: &config.Softmax{Floor: 2}}, nnerr.ErrUnsupportedShape},
		{"sizes and children", config.Network{Kind: "mlp", Sizes: []int{1, 1, 1}, Children: []config.Network{{Kind: "tanh"}}}, nil},
		{"settings on linear", config.Network{Kind: "linear", Sizes: []int{1, 1}, LSTM: &config.LSTM{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Build(tt.desc)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := config.Parse([]byte("network:\n  kind: tanh\n  sizez: [1, 1]\n"))
	assert.Error(t, err)

	_, err = config.Parse([]byte("codec:\n  kind: runes\n"))
	assert.Error(t, err)
}

func TestCodecWidthMustMatchOutputs(t *testing.T) {
	f := &config.File{
		Network: config.Network{Kind: "lstm1", Sizes: []int{3, 2, 2}},
		Codec:   &config.Codec{Kind: "runes", Alphabet: "abc"},
	}
	_, err := f.Build()
	assert.ErrorIs(t, err, nnerr.ErrDimensionMismatch)

	f.Codec = &config.Codec{Kind: "morse"}
	_, err = f.Build()
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte(stackedLSTM), 0o600))

	net, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ocr", net.Core().Name)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
