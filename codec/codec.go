// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package codec maps between transcripts and class indices.
//
// Class 0 is the blank label. A rune codec assigns one class per character;
// a tiktoken codec assigns one class per BPE token seen in a corpus.
//
// Example:
//
//	cdc := codec.NewRuneCodec("0123456789")
//	classes, err := cdc.Encode("42")
//	text, err := cdc.Decode(classes)
package codec

import "github.com/born-ml/seqnet/internal/codec"

// Codec kinds.
const (
	KindRunes    = codec.KindRunes
	KindTikToken = codec.KindTikToken
)

// Codec is a bidirectional class/symbol table.
type Codec = codec.Codec

// NewRuneCodec builds a codec over the distinct runes of alphabet.
func NewRuneCodec(alphabet string) *Codec { return codec.NewRuneCodec(alphabet) }

// NewTikTokenCodec builds a codec over the tokens of corpus in the named
// tiktoken encoding.
func NewTikTokenCodec(encoding string, corpus ...string) (*Codec, error) {
	return codec.NewTikTokenCodec(encoding, corpus...)
}

// FromSymbols restores a codec from its symbol table.
func FromSymbols(kind, encoding string, symbols []int) (*Codec, error) {
	return codec.FromSymbols(kind, encoding, symbols)
}
