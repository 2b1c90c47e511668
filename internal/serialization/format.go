package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes        = "BORN"
	FormatVersion     = 2    // v2: SHA-256 checksum over the data section
	HeaderAlignment   = 64   // Align the start of the data section to 64 bytes; arrays are packed back to back
	FixedHeaderSizeV2 = 64   // v2 fixed header size (0x40 bytes)
	ChecksumSize      = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffsetV2  = 0x20 // Checksum offset in v2 fixed header
	elementSize       = 8    // bytes per float64
)

// DTypeFloat64 is the only element type written by this package.
const DTypeFloat64 = "float64"

// Flags for the .born format.
const (
	FlagHasMetadata   uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHasCheckpoint uint32 = 1 << 3 // bit 3: training state included
)

// Header represents the JSON header in a .born file.
type Header struct {
	FormatVersion  int               `json:"format_version"`       // Version of the .born format
	WriterVersion  string            `json:"writer_version"`       // Version of the library that wrote the file
	ModelType      string            `json:"model_type"`           // Root network kind (e.g., "bidilstm")
	CreatedAt      time.Time         `json:"created_at"`           // When the file was created
	Arrays         []ArrayMeta       `json:"arrays"`               // Array metadata
	Metadata       map[string]string `json:"metadata"`             // Network attributes
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"` // Checkpoint metadata (optional)
}

// CheckpointMeta contains training state information for checkpoints.
type CheckpointMeta struct {
	Step         int64             `json:"step"`          // Training step number
	Loss         float64           `json:"loss"`          // Loss value at checkpoint
	TrainingMeta map[string]string `json:"training_meta"` // Additional training metadata
}

// ArrayMeta describes an array in the .born file.
type ArrayMeta struct {
	Name   string `json:"name"`   // Hierarchical name (e.g., "lstm1.0.lstm.WGI")
	DType  string `json:"dtype"`  // Always "float64"
	Shape  []int  `json:"shape"`  // [rows, cols] or [len]
	Offset int64  `json:"offset"` // Offset in the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// Array is a named numeric array: a vector (one dimension) or a row-major
// matrix (two dimensions).
type Array struct {
	Shape []int
	Data  []float64
}

// NumElements returns the product of the shape.
func (a Array) NumElements() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}
