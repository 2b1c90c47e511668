package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"
)

const writerVersion = "0.1.0"

// BornWriter writes arrays in .born format.
type BornWriter struct {
	file   *os.File
	closed bool
}

// NewBornWriter creates a new .born file writer.
func NewBornWriter(path string) (*BornWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &BornWriter{file: file}, nil
}

// WriteArrays writes arrays with the given header. FormatVersion,
// WriterVersion, CreatedAt and Arrays are filled in by the writer.
func (w *BornWriter) WriteArrays(arrays map[string]Array, header Header) error {
	if w.closed {
		return ErrClosed
	}
	return WriteTo(w.file, arrays, header)
}

// Close closes the writer and the underlying file.
func (w *BornWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteFile creates path and writes arrays to it.
func WriteFile(path string, arrays map[string]Array, header Header) (err error) {
	w, err := NewBornWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return w.WriteArrays(arrays, header)
}

// WriteTo writes arrays in .born v2 format to an io.Writer.
func WriteTo(writer io.Writer, arrays map[string]Array, header Header) error {
	header.FormatVersion = FormatVersion
	header.WriterVersion = writerVersion
	header.CreatedAt = time.Now().UTC()
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)

	// Lay out the data section in name order.
	var currentOffset int64
	header.Arrays = make([]ArrayMeta, 0, len(arrays))
	for _, name := range names {
		a := arrays[name]
		if err := ValidateArrayName(name); err != nil {
			return err
		}
		if err := ValidateShape(name, a.Shape); err != nil {
			return err
		}
		if a.NumElements() != len(a.Data) {
			return &ValidationError{
				Type:    "bad_size",
				Array:   name,
				Details: fmt.Sprintf("shape %v holds %d elements, got %d", a.Shape, a.NumElements(), len(a.Data)),
			}
		}
		size := int64(len(a.Data)) * elementSize
		header.Arrays = append(header.Arrays, ArrayMeta{
			Name:   name,
			DType:  DTypeFloat64,
			Shape:  append([]int(nil), a.Shape...),
			Offset: currentOffset,
			Size:   size,
		})
		currentOffset += size
	}

	data := make([]byte, currentOffset)
	for i, name := range names {
		buf := data[header.Arrays[i].Offset:]
		for j, v := range arrays[name].Data {
			binary.LittleEndian.PutUint64(buf[j*elementSize:], math.Float64bits(v))
		}
	}
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	fixedHeader := make([]byte, FixedHeaderSizeV2)

	// 0x00-0x03: Magic bytes "BORN"
	copy(fixedHeader[0:4], MagicBytes)

	// 0x04-0x07: Version
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	// 0x08-0x0B: Flags
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil {
		flags |= FlagHasCheckpoint
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F: Reserved (0)

	// 0x10-0x17: Header size
	binary.LittleEndian.PutUint64(fixedHeader[16:24], uint64(len(headerJSON)))

	// 0x18-0x1F: Data size
	binary.LittleEndian.PutUint64(fixedHeader[24:32], uint64(len(data)))

	// 0x20-0x3F: SHA-256 checksum
	copy(fixedHeader[ChecksumOffsetV2:ChecksumOffsetV2+ChecksumSize], checksum[:])

	if _, err := writer.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	currentPos := int64(FixedHeaderSizeV2) + int64(len(headerJSON))
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := writer.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write array data: %w", err)
	}

	return nil
}
