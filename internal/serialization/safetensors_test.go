package serialization

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TestWriteSafeTensors verifies the header and data layout of the export.
func TestWriteSafeTensors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	arrays := map[string]Array{
		"b": {Shape: []int{2}, Data: []float64{3, 4}},
		"a": {Shape: []int{1, 2}, Data: []float64{1, 2}},
	}
	if err := WriteSafeTensors(path, arrays, map[string]string{"model_type": "linear"}); err != nil {
		t.Fatalf("WriteSafeTensors failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	headerSize := binary.LittleEndian.Uint64(data[:8])
	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerSize], &header); err != nil {
		t.Fatalf("Header is not JSON: %v", err)
	}
	if _, ok := header["__metadata__"]; !ok {
		t.Error("Expected __metadata__ entry")
	}

	var b SafeTensorHeader
	if err := json.Unmarshal(header["b"], &b); err != nil {
		t.Fatalf("Bad tensor header: %v", err)
	}
	if b.DType != "F64" || b.DataOffsets != [2]int64{16, 32} {
		t.Errorf("Unexpected header for b: %+v", b)
	}

	body := data[8+headerSize:]
	if len(body) != 32 {
		t.Fatalf("Expected 32 data bytes, got %d", len(body))
	}
	// "a" sorts first.
	for i, want := range []float64{1, 2, 3, 4} {
		got := math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
		if got != want {
			t.Errorf("element %d = %g, want %g", i, got, want)
		}
	}
}
