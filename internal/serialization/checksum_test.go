package serialization

import (
	"bytes"
	"errors"
	"testing"
)

// TestComputeChecksumReader verifies that streaming and direct checksums agree.
func TestComputeChecksumReader(t *testing.T) {
	data := []byte("test data for reader")

	checksum, err := ComputeChecksumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ComputeChecksumReader failed: %v", err)
	}
	if checksum != ComputeChecksum(data) {
		t.Error("Reader checksum should match direct checksum")
	}
	if checksum == ComputeChecksum([]byte("different data")) {
		t.Error("Checksums should differ for different data")
	}
}

// TestValidateChecksum verifies checksum comparison.
func TestValidateChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("weights"))

	if err := ValidateChecksum(sum, sum); err != nil {
		t.Errorf("Expected matching checksums to validate, got: %v", err)
	}

	other := ComputeChecksum([]byte("other weights"))
	if err := ValidateChecksum(sum, other); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got: %v", err)
	}
}
