/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package huffman implements canonical Huffman code construction: frequency
// counting, code-length computation via a priority-queue tree (with a
// length-limiting fallback ported from an in-place
// minimum-redundancy renormalization), canonical codeword assignment, and a
// fast 10-bit prefix-lookup decoder table with a slow-path fallback.
package huffman

import "fmt"

const (
	// AlphabetSize is the fixed symbol alphabet: one byte per symbol.
	AlphabetSize = 256
	// MaxCodeLength is the hard cap on a single symbol's code length.
	MaxCodeLength = 16
	// FastTableBits is the width of the primary lookup table used by Decoder.
	FastTableBits = 10
)

// Frequencies is a 256-entry symbol frequency vector.
type Frequencies [AlphabetSize]uint64

// Total returns the sum of all frequencies.
func (this *Frequencies) Total() uint64 {
	var sum uint64

	for _, f := range this {
		sum += f
	}

	return sum
}

// Code holds a single symbol's code length and codeword. Length == 0 means
// the symbol has no code (zero frequency / absent from the chunk).
type Code struct {
	Length   uint8
	Codeword uint16
}

// Table is a canonical Huffman code table: for each of the 256 symbols,
// either an absent code (Length == 0) or a present one.
type Table struct {
	Codes [AlphabetSize]Code
}

// Lengths extracts the code_lengths[256] vector that the container format
// stores (codewords are never serialised; they are re-derived from lengths).
func (this *Table) Lengths() [AlphabetSize]uint16 {
	var lens [AlphabetSize]uint16

	for i, c := range this.Codes {
		lens[i] = uint16(c.Length)
	}

	return lens
}

// IsBypass reports whether lengths represents the "stored literally"
// signal: every length is zero. A genuine canonical table for a non-empty
// chunk always has at least one non-zero length, so this is unambiguous.
func IsBypass(lengths [AlphabetSize]uint16) bool {
	for _, l := range lengths {
		if l != 0 {
			return false
		}
	}

	return true
}

// FromLengths rebuilds a canonical Table purely from code lengths, per the
// canonical rule: this is how a decoder reconstructs the
// table it never received codewords for.
func FromLengths(lengths [AlphabetSize]uint16) (*Table, error) {
	var symbols []int

	for s, l := range lengths {
		if l == 0 {
			continue
		}

		if l > MaxCodeLength {
			return nil, fmt.Errorf("huffman: code length %d for symbol %d exceeds max %d", l, s, MaxCodeLength)
		}

		symbols = append(symbols, s)
	}

	table := &Table{}

	if len(symbols) == 0 {
		return table, nil
	}

	var sizes [AlphabetSize]byte

	for _, s := range symbols {
		sizes[s] = byte(lengths[s])
	}

	codes, err := assignCanonicalCodes(sizes, symbols)

	if err != nil {
		return nil, err
	}

	for _, s := range symbols {
		table.Codes[s] = Code{Length: sizes[s], Codeword: codes[s]}
	}

	return table, nil
}

// assignCanonicalCodes implements the canonical assignment rule:
// symbols are grouped by ascending length, and within each length class
// codewords are consecutive integers assigned in ascending symbol order.
func assignCanonicalCodes(sizes [AlphabetSize]byte, symbols []int) ([AlphabetSize]uint16, error) {
	var codes [AlphabetSize]uint16

	// Order symbols by (length, symbol index) ascending.
	ordered := make([]int, len(symbols))
	copy(ordered, symbols)

	// Counting sort by length (length in [1, MaxCodeLength]) keeps this
	// O(n) and, more importantly, stable on symbol index within a length
	// class since symbols is already ascending by symbol index.
	var countByLen [MaxCodeLength + 1]int

	for _, s := range ordered {
		countByLen[sizes[s]]++
	}

	var startByLen [MaxCodeLength + 2]int

	for l := 1; l <= MaxCodeLength; l++ {
		startByLen[l+1] = startByLen[l] + countByLen[l]
	}

	cursor := startByLen
	sorted := make([]int, len(ordered))

	for _, s := range ordered {
		l := sizes[s]
		sorted[cursor[l]] = s
		cursor[l]++
	}

	code := uint32(0)
	curLen := sizes[sorted[0]]

	for _, s := range sorted {
		l := sizes[s]

		if l > curLen {
			code <<= (l - curLen)
			curLen = l
		}

		if code >= (uint32(1) << l) {
			return codes, fmt.Errorf("huffman: canonical code overflow at length %d (too many symbols at this length)", l)
		}

		codes[s] = uint16(code)
		code++
	}

	return codes, nil
}
