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
	"math/rand"
	"testing"

	"github.com/corvidae/dczf/bitio"
	"github.com/stretchr/testify/require"
)

func TestKraftInequality(t *testing.T) {
	freqs := Frequencies{}

	for i := 0; i < 200; i++ {
		freqs[i%256] += uint64((i * 37 % 101) + 1)
	}

	table, err := BuildTable(freqs)
	require.NoError(t, err)

	var sum float64

	for _, c := range table.Codes {
		if c.Length > 0 {
			sum += 1.0 / float64(uint32(1)<<c.Length)
		}
	}

	require.LessOrEqual(t, sum, 1.0+1e-9)
}

func TestCodesArePrefixFree(t *testing.T) {
	freqs := Frequencies{}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 256; i++ {
		freqs[i] = uint64(rng.Intn(5000) + 1)
	}

	table, err := BuildTable(freqs)
	require.NoError(t, err)

	type entry struct {
		length   uint8
		codeword uint16
	}

	var codes []entry

	for _, c := range table.Codes {
		if c.Length > 0 {
			codes = append(codes, entry{c.Length, c.Codeword})
		}
	}

	for i := range codes {
		for j := range codes {
			if i == j {
				continue
			}

			a, b := codes[i], codes[j]

			if a.length > b.length {
				continue
			}

			prefix := b.codeword >> (b.length - a.length)
			require.NotEqualf(t, a.codeword, prefix, "code %d is a prefix of code %d", i, j)
		}
	}
}

func TestCanonicalCodewordsAreConsecutiveWithinLength(t *testing.T) {
	freqs := Frequencies{}

	for i := 0; i < 256; i++ {
		freqs[i] = uint64((i%13)+1) * 3
	}

	table, err := BuildTable(freqs)
	require.NoError(t, err)

	byLen := map[uint8][]int{}

	for s, c := range table.Codes {
		if c.Length > 0 {
			byLen[c.Length] = append(byLen[c.Length], s)
		}
	}

	for _, symbols := range byLen {
		prevCode := -1
		prevSym := -1

		for _, s := range symbols {
			c := table.Codes[s]

			if prevCode >= 0 {
				require.Equal(t, prevCode+1, int(c.Codeword))
				require.Less(t, prevSym, s)
			}

			prevCode = int(c.Codeword)
			prevSym = s
		}
	}
}

func TestHigherFrequencyNeverGetsLongerCode(t *testing.T) {
	freqs := Frequencies{}
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 64; i++ {
		freqs[i] = uint64(rng.Intn(10000) + 1)
	}

	table, err := BuildTable(freqs)
	require.NoError(t, err)

	for i := 0; i < 64; i++ {
		for j := 0; j < 64; j++ {
			if freqs[i] > freqs[j] {
				require.LessOrEqual(t, table.Codes[i].Length, table.Codes[j].Length)
			}
		}
	}
}

func TestEmptyAlphabetYieldsEmptyTable(t *testing.T) {
	table, err := BuildTable(Frequencies{})
	require.NoError(t, err)

	for _, c := range table.Codes {
		require.Zero(t, c.Length)
	}
}

func TestSingleSymbolAlphabetGetsOneBitCode(t *testing.T) {
	freqs := Frequencies{}
	freqs[42] = 1000

	table, err := BuildTable(freqs)
	require.NoError(t, err)
	require.EqualValues(t, 1, table.Codes[42].Length)
	require.EqualValues(t, 0, table.Codes[42].Codeword)

	for i, c := range table.Codes {
		if i != 42 {
			require.Zero(t, c.Length)
		}
	}
}

func TestFibonacciWeightedFrequenciesTriggerLengthLimiting(t *testing.T) {
	freqs := Frequencies{}
	a, b := uint64(1), uint64(1)

	for i := 0; i < 256; i++ {
		freqs[i] = a
		a, b = b, a+b
	}

	table, err := BuildTable(freqs)
	require.NoError(t, err)

	for _, c := range table.Codes {
		if c.Length > 0 {
			require.LessOrEqual(t, int(c.Length), MaxCodeLength)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	freqs := Frequencies{}
	rng := rand.New(rand.NewSource(1234))
	data := make([]byte, 5000)

	for i := range data {
		data[i] = byte(rng.Intn(40))
	}

	for _, b := range data {
		freqs[b]++
	}

	table, err := BuildTable(freqs)
	require.NoError(t, err)

	w := bitio.NewWriter(len(data))

	for _, b := range data {
		c := table.Codes[b]
		w.WriteBits(uint32(c.Codeword), uint(c.Length))
	}

	buf := w.Finish()

	rebuilt, err := FromLengths(table.Lengths())
	require.NoError(t, err)

	dec := NewDecoder(rebuilt)
	r := bitio.NewReader(buf)
	got := make([]byte, len(data))

	for i := range got {
		sym, err := dec.Decode(r)
		require.NoError(t, err)
		got[i] = sym
	}

	require.Equal(t, data, got)
}

func TestFromLengthsRejectsOverlongLength(t *testing.T) {
	var lengths [AlphabetSize]uint16
	lengths[0] = MaxCodeLength + 1

	_, err := FromLengths(lengths)
	require.Error(t, err)
}

func TestIsBypassSignal(t *testing.T) {
	var zero [AlphabetSize]uint16
	require.True(t, IsBypass(zero))

	zero[5] = 3
	require.False(t, IsBypass(zero))
}
