package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// BornReader reads arrays from .born format.
type BornReader struct {
	src        io.ReaderAt
	closer     io.Closer
	header     Header
	flags      uint32
	dataOffset int64    // Offset where array data starts
	dataSize   int64    // Size of the data section
	checksum   [32]byte // SHA-256 checksum of the data section
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures the behavior of BornReader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// NewBornReader creates a new .born file reader with strict validation.
func NewBornReader(path string) (*BornReader, error) {
	return NewBornReaderWithOptions(path, ReaderOptions{
		ValidationLevel: ValidationStrict,
	})
}

// NewBornReaderWithOptions creates a new .born file reader with custom options.
func NewBornReaderWithOptions(path string, opts ReaderOptions) (*BornReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r, err := newReader(file, info.Size(), opts)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// ReadFrom reads every array and the header from an io.Reader.
func ReadFrom(reader io.Reader, opts ReaderOptions) (map[string]Array, Header, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read input: %w", err)
	}
	r, err := newReader(bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return nil, Header{}, err
	}
	arrays, err := r.ReadArrays()
	if err != nil {
		return nil, Header{}, err
	}
	return arrays, r.header, nil
}

func newReader(src io.ReaderAt, size int64, opts ReaderOptions) (*BornReader, error) {
	r := &BornReader{src: src, opts: opts}
	if err := r.parseHeader(size); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !opts.SkipChecksumValidation {
		computed, err := ComputeChecksumReader(io.NewSectionReader(src, r.dataOffset, r.dataSize))
		if err != nil {
			return nil, fmt.Errorf("failed to read array data for checksum: %w", err)
		}
		if err := ValidateChecksum(computed, r.checksum); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// parseHeader reads the fixed header and the JSON header.
func (r *BornReader) parseHeader(fileSize int64) error {
	fixedHeader := make([]byte, FixedHeaderSizeV2)
	if _, err := r.src.ReadAt(fixedHeader, 0); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	// 0x00-0x03: magic
	if string(fixedHeader[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	// 0x04-0x07: version
	if version := binary.LittleEndian.Uint32(fixedHeader[4:8]); version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	// 0x08-0x0B: flags
	r.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])

	// 0x10-0x17: header size
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	// 0x18-0x1F: data size
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])

	// 0x20-0x3F: SHA-256 checksum
	copy(r.checksum[:], fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize])

	headerBytes := make([]byte, headerSize)
	if _, err := r.src.ReadAt(headerBytes, FixedHeaderSizeV2); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	currentPos := int64(FixedHeaderSizeV2) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	r.dataOffset = currentPos + padding

	//nolint:gosec // G115: compared against the real file size below
	r.dataSize = int64(dataSize)
	if r.dataSize < 0 || r.dataOffset+r.dataSize > fileSize {
		return fmt.Errorf("%w: data section of %d bytes at %d, file is %d bytes",
			ErrOutOfBounds, dataSize, r.dataOffset, fileSize)
	}

	return nil
}

// Header returns the file header.
func (r *BornReader) Header() Header {
	return r.header
}

// Metadata returns the metadata map from the header.
func (r *BornReader) Metadata() map[string]string {
	return r.header.Metadata
}

// ArrayNames returns the names of all arrays in file order.
func (r *BornReader) ArrayNames() []string {
	names := make([]string, len(r.header.Arrays))
	for i, meta := range r.header.Arrays {
		names[i] = meta.Name
	}
	return names
}

// ArrayInfo returns information about a specific array.
func (r *BornReader) ArrayInfo(name string) (*ArrayMeta, error) {
	for _, meta := range r.header.Arrays {
		if meta.Name == name {
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrArrayNotFound, name)
}

// ReadArray reads a single array.
func (r *BornReader) ReadArray(name string) (Array, error) {
	if r.closed {
		return Array{}, ErrClosed
	}

	meta, err := r.ArrayInfo(name)
	if err != nil {
		return Array{}, err
	}
	if meta.DType != DTypeFloat64 {
		return Array{}, fmt.Errorf("unsupported dtype %q for array %s", meta.DType, name)
	}

	raw := make([]byte, meta.Size)
	if _, err := r.src.ReadAt(raw, r.dataOffset+meta.Offset); err != nil {
		return Array{}, fmt.Errorf("failed to read array %s: %w", name, err)
	}

	data := make([]float64, meta.Size/elementSize)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*elementSize:]))
	}
	return Array{Shape: append([]int(nil), meta.Shape...), Data: data}, nil
}

// ReadArrays reads every array in the file.
func (r *BornReader) ReadArrays() (map[string]Array, error) {
	if r.closed {
		return nil, ErrClosed
	}

	arrays := make(map[string]Array, len(r.header.Arrays))
	for _, meta := range r.header.Arrays {
		a, err := r.ReadArray(meta.Name)
		if err != nil {
			return nil, err
		}
		arrays[meta.Name] = a
	}
	return arrays, nil
}

// Close closes the reader and the underlying file.
func (r *BornReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
