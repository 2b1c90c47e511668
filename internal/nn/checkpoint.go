package nn

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/seqnet/internal/codec"
	"github.com/born-ml/seqnet/internal/nnerr"
	"github.com/born-ml/seqnet/internal/serialization"
)

// Reserved attribute and array names written by Save.
const (
	AttrModelID       = "model_id"
	AttrKind          = "kind"
	AttrCodecKind     = "codec.kind"
	AttrCodecEncoding = "codec.encoding"
	CodecArray        = "codec"
)

// Checkpoint is a network snapshot together with training progress.
//
// Example:
//
//	ckpt := &nn.Checkpoint{Net: net, Step: 5000, Loss: 0.12}
//	if err := ckpt.Save("ocr-5000.born"); err != nil {
//	    return err
//	}
//
// To resume, rebuild the same topology and load into it:
//
//	net := nn.NewBidiLSTM()
//	_ = net.Init(no, nh, ni)
//	ckpt, err := nn.LoadCheckpoint("ocr-5000.born", net)
type Checkpoint struct {
	Net      Network
	Step     int64
	Loss     float64
	Metadata map[string]string
}

// Save writes every parameter of the tree, the root attributes and the root
// codec. PreSave runs on every node first. A root without a model id
// attribute is given a fresh one.
func (c *Checkpoint) Save(path string) error {
	for _, n := range Networks(c.Net, "") {
		n.PreSave()
	}

	root := c.Net.Core()
	if root.Attributes == nil {
		root.Attributes = make(map[string]string)
	}
	if root.Attributes[AttrModelID] == "" {
		root.Attributes[AttrModelID] = uuid.NewString()
	}

	arrays, metadata := collect(c.Net)

	header := serialization.Header{
		ModelType: c.Net.Kind().String(),
		Metadata:  metadata,
	}
	if c.Step != 0 || c.Loss != 0 || len(c.Metadata) != 0 {
		header.CheckpointMeta = &serialization.CheckpointMeta{
			Step:         c.Step,
			Loss:         c.Loss,
			TrainingMeta: c.Metadata,
		}
	}

	if err := serialization.WriteFile(path, arrays, header); err != nil {
		return errors.Wrapf(err, "failed to save network to %s", path)
	}
	return nil
}

// LoadCheckpoint restores parameter values, root attributes and codec from
// path into net. net must already have the saved topology: every saved
// array must name a parameter of net with the same shape and vice versa.
// PostLoad runs on every node afterwards.
func LoadCheckpoint(path string, net Network) (*Checkpoint, error) {
	reader, err := serialization.NewBornReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer reader.Close()

	arrays, err := reader.ReadArrays()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	header := reader.Header()

	params, err := matchWeights(net, arrays)
	if err != nil {
		return nil, err
	}

	attributes := make(map[string]string)
	for k, v := range header.Metadata {
		if k != AttrKind && !strings.HasPrefix(k, "codec.") {
			attributes[k] = v
		}
	}

	var cdc *codec.Codec
	if a, ok := arrays[CodecArray]; ok {
		symbols := make([]int, len(a.Data))
		for i, v := range a.Data {
			symbols[i] = int(v)
		}
		cdc, err = codec.FromSymbols(header.Metadata[AttrCodecKind], header.Metadata[AttrCodecEncoding], symbols)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to restore codec from %s", path)
		}
	}

	// Nothing below can fail.
	for name, p := range params {
		copy(p.Values(), arrays[name].Data)
	}
	root := net.Core()
	root.Attributes = attributes
	if cdc != nil {
		root.Codec = cdc
	}

	for _, n := range Networks(net, "") {
		n.PostLoad()
	}

	ckpt := &Checkpoint{Net: net}
	if meta := header.CheckpointMeta; meta != nil {
		ckpt.Step = meta.Step
		ckpt.Loss = meta.Loss
		ckpt.Metadata = meta.TrainingMeta
	}
	return ckpt, nil
}

// matchWeights checks that arrays and the parameters of net correspond one
// to one and returns the parameters by name.
func matchWeights(net Network, arrays map[string]serialization.Array) (map[string]*Param, error) {
	const op = "nn.Load"
	params := make(map[string]*Param)
	for name, p := range Weights(net, "") {
		a, ok := arrays[name]
		if !ok {
			return nil, nnerr.Shapef(op, "parameter %s is missing from the file", name)
		}
		if !slices.Equal(a.Shape, p.Shape()) {
			return nil, nnerr.Shapef(op, "parameter %s has shape %v, file has %v", name, p.Shape(), a.Shape)
		}
		params[name] = p
	}
	for name := range arrays {
		if _, ok := params[name]; !ok && name != CodecArray {
			return nil, nnerr.Shapef(op, "file array %s matches no parameter", name)
		}
	}
	return params, nil
}

// collect gathers the arrays and metadata written for net.
func collect(net Network) (map[string]serialization.Array, map[string]string) {
	arrays := make(map[string]serialization.Array)
	for name, p := range Weights(net, "") {
		arrays[name] = serialization.Array{
			Shape: p.Shape(),
			Data:  slices.Clone(p.Values()),
		}
	}

	root := net.Core()
	metadata := maps.Clone(root.Attributes)
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata[AttrKind] = net.Kind().String()
	if root.Codec != nil {
		symbols := root.Codec.Symbols()
		data := make([]float64, len(symbols))
		for i, s := range symbols {
			data[i] = float64(s)
		}
		arrays[CodecArray] = serialization.Array{Shape: []int{len(data)}, Data: data}
		metadata[AttrCodecKind] = root.Codec.Kind()
		metadata[AttrCodecEncoding] = root.Codec.Encoding()
	}
	return arrays, metadata
}

// ExportSafeTensors writes the parameters, codec and attributes of net as a
// SafeTensors file. The result cannot be loaded back with Load.
func ExportSafeTensors(net Network, path string) error {
	arrays, metadata := collect(net)
	if err := serialization.WriteSafeTensors(path, arrays, metadata); err != nil {
		return errors.Wrapf(err, "failed to export network to %s", path)
	}
	return nil
}

// Save writes net to path.
func Save(net Network, path string) error {
	return (&Checkpoint{Net: net}).Save(path)
}

// Load restores net from a file written by Save.
func Load(net Network, path string) error {
	_, err := LoadCheckpoint(path, net)
	return err
}

// String summarizes the checkpoint.
func (c *Checkpoint) String() string {
	return fmt.Sprintf("checkpoint{kind=%s step=%d loss=%g}", c.Net.Kind(), c.Step, c.Loss)
}
