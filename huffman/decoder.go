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

package huffman

import (
	"fmt"

	"github.com/corvidae/dczf/bitio"
)

// fastEntry packs a symbol and its code length into one table cell.
// length == 0 marks "no single code of length <= FastTableBits matches
// this 10-bit prefix", i.e. the fallback path must be used.
type fastEntry struct {
	symbol byte
	length uint8
}

// Decoder holds the precomputed lookup structures built from a Table,
// a 2^10-entry primary table for codes of length <= 10, and a
// length-indexed fallback map for the rare longer codes.
type Decoder struct {
	fast     [1 << FastTableBits]fastEntry
	fallback map[uint8]map[uint32]byte // length -> codeword -> symbol
}

// NewDecoder builds the fast lookup table and fallback map from table.
func NewDecoder(table *Table) *Decoder {
	d := &Decoder{fallback: make(map[uint8]map[uint32]byte)}

	for s, c := range table.Codes {
		if c.Length == 0 {
			continue
		}

		if c.Length <= FastTableBits {
			// Every 10-bit pattern whose top c.Length bits equal the
			// codeword maps to this symbol, regardless of the low
			// (FastTableBits - c.Length) bits.
			shift := FastTableBits - c.Length
			base := uint32(c.Codeword) << shift
			count := uint32(1) << shift

			for i := uint32(0); i < count; i++ {
				d.fast[base+i] = fastEntry{symbol: byte(s), length: c.Length}
			}

			continue
		}

		if d.fallback[c.Length] == nil {
			d.fallback[c.Length] = make(map[uint32]byte)
		}

		d.fallback[c.Length][uint32(c.Codeword)] = byte(s)
	}

	return d
}

// Decode reads exactly one symbol from r and returns it, or an error if
// the bitstream holds no matching canonical codeword up to MaxCodeLength
// bits.
func (this *Decoder) Decode(r *bitio.Reader) (byte, error) {
	peeked := r.Peek(FastTableBits)
	entry := this.fast[peeked]

	if entry.length != 0 {
		r.Advance(uint(entry.length))
		return entry.symbol, nil
	}

	// Slow path: grow the candidate code one bit at a time (starting
	// past what the fast table already covers) and look it up in the
	// length-indexed fallback map.
	code := uint32(r.Peek(FastTableBits))
	codeLen := uint8(FastTableBits)

	for codeLen < MaxCodeLength {
		codeLen++
		bit := uint32(0)

		if r.BitsRemaining() >= int(codeLen) {
			bit = r.Peek(uint(codeLen)) & 1
		}

		code = (code << 1) | bit

		if m, ok := this.fallback[codeLen]; ok {
			if sym, ok := m[code]; ok {
				r.Advance(uint(codeLen))
				return sym, nil
			}
		}
	}

	return 0, fmt.Errorf("huffman: no matching canonical code up to %d bits", MaxCodeLength)
}
