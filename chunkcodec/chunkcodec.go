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

// Package chunkcodec turns one chunk's raw bytes into a compressed blob
// and back, including the incompressibility bypass (store literally when
// the histogram is essentially flat).
package chunkcodec

import (
	"fmt"

	"github.com/corvidae/dczf/bitio"
	"github.com/corvidae/dczf/huffman"
	"github.com/corvidae/dczf/internal/histogram"
)

// incompressibilityThreshold is the N_8 cutoff: more than this
// many symbols needing an 8-bit code means the distribution is close
// enough to uniform that Huffman coding buys nothing.
const incompressibilityThreshold = 240

// EncodeResult carries everything the caller (the pipeline orchestrator)
// needs to populate one chunk descriptor.
type EncodeResult struct {
	Compressed []byte
	CodeLengths [huffman.AlphabetSize]uint16
	Bypass      bool
}

// defaultHistogram is the portable CPU frequency counter used by Encode.
var defaultHistogram huffman.Histogram = histogram.Backend{}

// Encode builds a per-chunk histogram and code table from data itself,
// then either emits the canonical Huffman-coded bitstream or, if the
// table is too flat to be worth coding, the raw bytes verbatim. It uses
// the default portable histogram backend; see EncodeWithHistogram to
// substitute another one.
func Encode(data []byte) (EncodeResult, error) {
	return EncodeWithHistogram(data, defaultHistogram)
}

// EncodeWithHistogram is Encode with an explicit frequency-counting
// backend, so callers (and tests) can swap it without chunkcodec or
// huffman depending on the concrete implementation.
func EncodeWithHistogram(data []byte, h huffman.Histogram) (EncodeResult, error) {
	var freqs huffman.Frequencies
	h.Count(data, &freqs)

	table, err := huffman.BuildTable(freqs)

	if err != nil {
		return EncodeResult{}, err
	}

	if isIncompressible(table) {
		raw := make([]byte, len(data))
		copy(raw, data)
		return EncodeResult{Compressed: raw, Bypass: true}, nil
	}

	w := bitio.NewWriter(len(data))

	for _, b := range data {
		c := table.Codes[b]
		w.WriteBits(uint32(c.Codeword), uint(c.Length))
	}

	return EncodeResult{
		Compressed:  w.Finish(),
		CodeLengths: table.Lengths(),
		Bypass:      false,
	}, nil
}

// isIncompressible applies the N_8 > 240 test to a freshly built
// table (before it has been reduced to the bypass signal).
func isIncompressible(table *huffman.Table) bool {
	n8 := 0

	for _, c := range table.Codes {
		if c.Length == 8 {
			n8++
		}
	}

	return n8 > incompressibilityThreshold
}

// Decode reverses Encode. codeLengths is the code_lengths vector exactly
// as stored in the chunk descriptor; huffman.IsBypass(codeLengths) being
// true means compressed holds originalSize raw bytes.
func Decode(compressed []byte, codeLengths [huffman.AlphabetSize]uint16, originalSize int) ([]byte, error) {
	if huffman.IsBypass(codeLengths) {
		if len(compressed) != originalSize {
			return nil, fmt.Errorf("chunkcodec: bypass chunk has %d bytes, expected %d", len(compressed), originalSize)
		}

		out := make([]byte, originalSize)
		copy(out, compressed)
		return out, nil
	}

	table, err := huffman.FromLengths(codeLengths)

	if err != nil {
		return nil, err
	}

	dec := huffman.NewDecoder(table)
	r := bitio.NewReader(compressed)
	out := make([]byte, originalSize)

	for i := range out {
		if r.BitsRemaining() <= 0 && i < originalSize {
			return nil, fmt.Errorf("chunkcodec: compressed blob ended after %d of %d symbols", i, originalSize)
		}

		sym, err := dec.Decode(r)

		if err != nil {
			return nil, fmt.Errorf("chunkcodec: decode failed at symbol %d of %d: %w", i, originalSize, err)
		}

		out[i] = sym
	}

	return out, nil
}
