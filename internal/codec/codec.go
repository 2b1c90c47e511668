// Package codec maps between the dense class indices a network predicts and
// the symbols they stand for.
//
// Class 0 is reserved for the blank label used by CTC alignment; real
// symbols occupy classes 1..Size()-1. Two codecs are provided:
//   - runes: each class is a Unicode code point
//   - tiktoken: each class is a BPE token id from a tiktoken encoding, for
//     transcripts that are better modeled at sub-word level
//
// A codec is stored alongside network weights as its symbol table, so it
// can be restored with FromSymbols without the original alphabet or corpus.
package codec

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"

	"github.com/born-ml/seqnet/internal/seq"
)

// Codec kinds.
const (
	KindRunes    = "runes"
	KindTikToken = "tiktoken"
)

// BlankSymbol is the symbol stored for class 0.
const BlankSymbol = -1

// Codec is a bidirectional class/symbol table.
type Codec struct {
	kind     string
	encoding string
	symbols  []int
	index    map[int]int
	tok      *tiktoken.Tiktoken
}

// NewRuneCodec builds a codec over the distinct runes of alphabet, in
// code point order.
func NewRuneCodec(alphabet string) *Codec {
	seen := make(map[int]bool)
	var symbols []int
	for _, r := range alphabet {
		if !seen[int(r)] {
			seen[int(r)] = true
			symbols = append(symbols, int(r))
		}
	}
	sort.Ints(symbols)
	return newCodec(KindRunes, "", symbols, nil)
}

// NewTikTokenCodec builds a codec over the tiktoken tokens that occur in
// corpus, using the named encoding (e.g. "cl100k_base").
//
// Loading an encoding may download its rank file on first use.
func NewTikTokenCodec(encoding string, corpus ...string) (*Codec, error) {
	tok, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken encoding %q", encoding)
	}
	seen := make(map[int]bool)
	var symbols []int
	for _, text := range corpus {
		for _, id := range tok.Encode(text, nil, nil) {
			if !seen[id] {
				seen[id] = true
				symbols = append(symbols, id)
			}
		}
	}
	sort.Ints(symbols)
	return newCodec(KindTikToken, encoding, symbols, tok), nil
}

// FromSymbols restores a codec from its kind, encoding name and symbol
// table as returned by Symbols.
func FromSymbols(kind, encoding string, symbols []int) (*Codec, error) {
	if len(symbols) == 0 || symbols[0] != BlankSymbol {
		return nil, errors.New("symbol table must start with the blank symbol")
	}
	switch kind {
	case KindRunes:
		return newCodec(kind, "", symbols[1:], nil), nil
	case KindTikToken:
		tok, err := tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load tiktoken encoding %q", encoding)
		}
		return newCodec(kind, encoding, symbols[1:], tok), nil
	default:
		return nil, errors.Errorf("unknown codec kind %q", kind)
	}
}

func newCodec(kind, encoding string, symbols []int, tok *tiktoken.Tiktoken) *Codec {
	c := &Codec{
		kind:     kind,
		encoding: encoding,
		symbols:  append([]int{BlankSymbol}, symbols...),
		index:    make(map[int]int, len(symbols)),
		tok:      tok,
	}
	for i, s := range c.symbols[1:] {
		c.index[s] = i + 1
	}
	return c
}

// Kind returns KindRunes or KindTikToken.
func (c *Codec) Kind() string { return c.kind }

// Encoding returns the tiktoken encoding name, or "" for rune codecs.
func (c *Codec) Encoding() string { return c.encoding }

// Size returns the number of classes, blank included.
func (c *Codec) Size() int { return len(c.symbols) }

// Symbols returns a copy of the symbol table indexed by class.
func (c *Codec) Symbols() []int {
	return append([]int(nil), c.symbols...)
}

// Encode converts text into a transcript of classes.
func (c *Codec) Encode(text string) (seq.Classes, error) {
	var ids []int
	if c.tok != nil {
		ids = c.tok.Encode(text, nil, nil)
	} else {
		for _, r := range text {
			ids = append(ids, int(r))
		}
	}
	out := make(seq.Classes, len(ids))
	for i, id := range ids {
		class, ok := c.index[id]
		if !ok {
			return nil, errors.Errorf("symbol %d at position %d is not in the codec", id, i)
		}
		out[i] = class
	}
	return out, nil
}

// Decode converts classes back into text. Blank classes are dropped.
func (c *Codec) Decode(classes seq.Classes) (string, error) {
	ids := make([]int, 0, len(classes))
	for i, class := range classes {
		if class < 0 || class >= len(c.symbols) {
			return "", errors.Errorf("class %d at position %d outside [0, %d)", class, i, len(c.symbols))
		}
		if class == 0 {
			continue
		}
		ids = append(ids, c.symbols[class])
	}
	if c.tok != nil {
		return c.tok.Decode(ids), nil
	}
	var b strings.Builder
	for _, id := range ids {
		b.WriteRune(rune(id))
	}
	return b.String(), nil
}
