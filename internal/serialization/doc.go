// Package serialization provides the native .born format for saving and
// loading named float64 arrays together with a string metadata map.
//
//	Format Structure (v2):
//	  [0x00: Magic "BORN"]
//	  [0x04: Version (uint32 LE)]
//	  [0x08: Flags (uint32 LE)]
//	  [0x10: Header Size (uint64 LE)]
//	  [0x18: Data Size (uint64 LE)]
//	  [0x20: SHA-256 checksum of the data section]
//	  [0x40: Header: JSON metadata]
//	  [Array data: little-endian float64, 64-byte aligned]
//
// Arrays are written in name order, so saving the same arrays twice yields
// the same data section and checksum.
//
// Example usage:
//
//	arrays := map[string]serialization.Array{
//	    "lstm.WGI": {Shape: []int{4, 9}, Data: values},
//	}
//	if err := serialization.WriteFile("model.born", arrays, serialization.Header{
//	    ModelType: "lstm1",
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	reader, err := serialization.NewBornReader("model.born")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Close()
//	loaded, err := reader.ReadArrays()
package serialization
