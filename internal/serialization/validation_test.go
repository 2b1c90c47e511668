package serialization

import (
	"errors"
	"strings"
	"testing"
)

// TestValidateArrayOffsets_NoOverlap verifies that a valid layout passes.
func TestValidateArrayOffsets_NoOverlap(t *testing.T) {
	arrays := []ArrayMeta{
		{Name: "a", Shape: []int{2}, Offset: 0, Size: 16},
		{Name: "b", Shape: []int{2, 3}, Offset: 16, Size: 48},
		{Name: "c", Shape: []int{1}, Offset: 64, Size: 8},
	}

	if err := ValidateArrayOffsets(arrays, 72); err != nil {
		t.Errorf("Expected no error for valid arrays, got: %v", err)
	}
}

// TestValidateArrayOffsets_Errors detects overlaps, out-of-bounds regions and
// sizes that disagree with the shape.
func TestValidateArrayOffsets_Errors(t *testing.T) {
	tests := []struct {
		name     string
		arrays   []ArrayMeta
		dataSize int64
		wantType string
		wantIs   error
	}{
		{
			name: "overlap",
			arrays: []ArrayMeta{
				{Name: "a", Shape: []int{2}, Offset: 0, Size: 16},
				{Name: "b", Shape: []int{2}, Offset: 8, Size: 16},
			},
			dataSize: 32,
			wantType: "offset_overlap",
			wantIs:   ErrOffsetOverlap,
		},
		{
			name: "out of bounds",
			arrays: []ArrayMeta{
				{Name: "a", Shape: []int{4}, Offset: 0, Size: 32},
			},
			dataSize: 16,
			wantType: "out_of_bounds",
			wantIs:   ErrOutOfBounds,
		},
		{
			name: "negative offset",
			arrays: []ArrayMeta{
				{Name: "a", Shape: []int{1}, Offset: -8, Size: 8},
			},
			dataSize: 16,
			wantType: "negative_offset",
			wantIs:   ErrOutOfBounds,
		},
		{
			name: "size disagrees with shape",
			arrays: []ArrayMeta{
				{Name: "a", Shape: []int{3}, Offset: 0, Size: 16},
			},
			dataSize: 32,
			wantType: "bad_size",
			wantIs:   ErrOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArrayOffsets(tt.arrays, tt.dataSize)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %T (%v)", err, err)
			}
			if validationErr.Type != tt.wantType {
				t.Errorf("Expected %s error, got %s", tt.wantType, validationErr.Type)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Expected errors.Is(%v), got %v", tt.wantIs, err)
			}
		})
	}
}

// TestValidateArrayName rejects path-like and oversized names.
func TestValidateArrayName(t *testing.T) {
	valid := []string{"W", "lstm1.0.lstm.WGI", "bidilstm.0.parallel.1.reversed.0.lstm.WCI"}
	for _, name := range valid {
		if err := ValidateArrayName(name); err != nil {
			t.Errorf("ValidateArrayName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "../etc/passwd", "a/b", `a\b`, "a\x00b", strings.Repeat("x", MaxArrayNameLen+1)}
	for _, name := range invalid {
		err := ValidateArrayName(name)
		if !errors.Is(err, ErrInvalidArrayName) {
			t.Errorf("ValidateArrayName(%q) = %v, want ErrInvalidArrayName", name, err)
		}
	}
}

// TestValidateHeader_Duplicates rejects a header naming an array twice.
func TestValidateHeader_Duplicates(t *testing.T) {
	h := &Header{Arrays: []ArrayMeta{
		{Name: "a", Shape: []int{1}, Offset: 0, Size: 8},
		{Name: "a", Shape: []int{1}, Offset: 8, Size: 8},
	}}

	if err := ValidateHeader(h, 16, ValidationNormal); err == nil {
		t.Error("Expected duplicate names to be rejected")
	}
	if err := ValidateHeader(h, 16, ValidationNone); err != nil {
		t.Errorf("ValidationNone should skip checks, got: %v", err)
	}
}

// TestValidateShape accepts vectors and matrices only.
func TestValidateShape(t *testing.T) {
	if err := ValidateShape("v", []int{3}); err != nil {
		t.Errorf("vector shape rejected: %v", err)
	}
	if err := ValidateShape("m", []int{2, 3}); err != nil {
		t.Errorf("matrix shape rejected: %v", err)
	}
	if err := ValidateShape("t", []int{2, 3, 4}); err == nil {
		t.Error("rank-3 shape accepted")
	}
	if err := ValidateShape("n", []int{-1}); err == nil {
		t.Error("negative dimension accepted")
	}
}
