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

package bitio

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadAligned(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0xAB, 8)
	w.WriteBits(0xCD, 8)
	buf := w.Finish()
	require.Equal(t, []byte{0xAB, 0xCD}, buf)

	r := NewReader(buf)
	require.EqualValues(t, 0xAB, r.Read(8))
	require.EqualValues(t, 0xCD, r.Read(8))
}

func TestWriteReadUnaligned(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0x5, 3)  // 101
	w.WriteBits(0x2A, 6) // 101010
	w.WriteBits(0x1, 1)  // 1
	buf := w.Finish()

	r := NewReader(buf)
	require.EqualValues(t, 0x5, r.Read(3))
	require.EqualValues(t, 0x2A, r.Read(6))
	require.EqualValues(t, 0x1, r.Read(1))
}

func TestPeekDoesNotAdvance(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0xF0, 8)
	buf := w.Finish()

	r := NewReader(buf)
	require.EqualValues(t, 0xF0, r.Peek(8))
	require.EqualValues(t, 0xF0, r.Peek(8))
	r.Advance(8)
	require.Equal(t, 0, r.BitsRemaining())
}

func TestPeekPastEndPadsWithZero(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0x1, 1)
	buf := w.Finish()

	r := NewReader(buf)
	v := r.Peek(16)
	require.EqualValues(t, uint32(1)<<15, v)
}

func TestRoundTripRandomBitLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := NewWriter(0)
	type entry struct {
		value uint32
		n     uint
	}

	var entries []entry

	for i := 0; i < 2000; i++ {
		n := uint(rng.Intn(24)) + 1
		value := rng.Uint32() & ((uint32(1) << n) - 1)
		entries = append(entries, entry{value, n})
		w.WriteBits(value, n)
	}

	buf := w.Finish()
	r := NewReader(buf)

	for _, e := range entries {
		got := r.Read(e.n)
		require.Equalf(t, e.value, got, "n=%d", e.n)
	}
}

func TestZeroLengthWriteIsNoop(t *testing.T) {
	w := NewWriter(0)
	w.WriteBits(0xFF, 0)
	w.WriteBits(0x3, 2)
	buf := w.Finish()
	require.Len(t, buf, 1)
	r := NewReader(buf)
	require.EqualValues(t, 0x3, r.Peek(2))
}
