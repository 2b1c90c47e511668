package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize   = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxArrayCount   = 100_000           // Maximum number of arrays in a file
	MaxArrayNameLen = 4096              // Maximum array name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks names and counts only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateArrayOffsets checks for overlapping array regions, regions outside
// the data section and sizes that disagree with the shape.
func ValidateArrayOffsets(arrays []ArrayMeta, dataSize int64) error {
	if len(arrays) > MaxArrayCount {
		return &ValidationError{
			Type:    "too_many_arrays",
			Details: fmt.Sprintf("got %d, max %d", len(arrays), MaxArrayCount),
		}
	}

	sorted := make([]ArrayMeta, len(arrays))
	copy(sorted, arrays)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, a := range sorted {
		if a.Offset < 0 || a.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Array:   a.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", a.Offset, a.Size),
			}
		}

		if want := int64(Array{Shape: a.Shape}.NumElements()) * elementSize; a.Size != want {
			return &ValidationError{
				Type:    "bad_size",
				Array:   a.Name,
				Details: fmt.Sprintf("shape %v needs %d bytes, header says %d", a.Shape, want, a.Size),
			}
		}

		if a.Offset+a.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Array:   a.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", a.Offset, a.Size, dataSize),
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if a.Offset+a.Size > next.Offset {
				return &ValidationError{
					Type:   "offset_overlap",
					Array:  a.Name,
					Array2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						a.Offset, a.Offset+a.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateArrayName rejects empty, oversized and path-like names.
func ValidateArrayName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty name"}
	}
	if len(name) > MaxArrayNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Array:   name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxArrayNameLen),
		}
	}
	if strings.Contains(name, "..") {
		return &ValidationError{
			Type:    "invalid_name",
			Array:   name,
			Details: "contains '..'",
		}
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Array:   name,
			Details: "contains a path separator or null byte",
		}
	}
	return nil
}

// ValidateShape accepts one- and two-dimensional shapes with non-negative
// dimensions.
func ValidateShape(name string, shape []int) error {
	if len(shape) != 1 && len(shape) != 2 {
		return &ValidationError{
			Type:    "bad_size",
			Array:   name,
			Details: fmt.Sprintf("rank %d, want 1 or 2", len(shape)),
		}
	}
	for _, d := range shape {
		if d < 0 {
			return &ValidationError{
				Type:    "bad_size",
				Array:   name,
				Details: fmt.Sprintf("negative dimension in %v", shape),
			}
		}
	}
	return nil
}

// ValidateHeader performs header validation at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Arrays) > MaxArrayCount {
		return &ValidationError{
			Type:    "too_many_arrays",
			Details: fmt.Sprintf("got %d, max %d", len(h.Arrays), MaxArrayCount),
		}
	}

	seen := make(map[string]bool, len(h.Arrays))
	for _, a := range h.Arrays {
		if err := ValidateArrayName(a.Name); err != nil {
			return err
		}
		if seen[a.Name] {
			return &ValidationError{Type: "invalid_name", Array: a.Name, Details: "duplicate name"}
		}
		seen[a.Name] = true
		if err := ValidateShape(a.Name, a.Shape); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		if err := ValidateArrayOffsets(h.Arrays, dataSize); err != nil {
			return err
		}
	}

	return nil
}
