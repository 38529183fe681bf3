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

// Package histogram is the default, portable CPU backend for per-chunk
// symbol frequency counting. It exists as its own package, separate
// from huffman, so an alternative backend (SIMD, GPU, whatever) can be
// swapped in later behind the same huffman.Histogram interface without
// huffman knowing the difference.
package histogram

import "github.com/corvidae/dczf/huffman"

// Backend is the default, portable CPU implementation of huffman.Histogram.
type Backend struct{}

var _ huffman.Histogram = Backend{}

// Count satisfies huffman.Histogram by delegating to the package-level
// Count function.
func (Backend) Count(block []byte, freqs *huffman.Frequencies) {
	Count(block, freqs)
}

// Count tallies byte frequencies in block into freqs, which must already
// be zeroed by the caller (repeated calls accumulate). The loop is
// unrolled 16-wide, the same unroll factor a ComputeHistogram-style routine
// uses for its order-0 case, since a data-dependent increment of 16
// independent counters pipelines far better than a naive byte-at-a-time
// loop.
func Count(block []byte, freqs *huffman.Frequencies) {
	end16 := len(block) &^ 15

	for i := 0; i < end16; i += 16 {
		d := block[i : i+16 : i+16]
		freqs[d[0]]++
		freqs[d[1]]++
		freqs[d[2]]++
		freqs[d[3]]++
		freqs[d[4]]++
		freqs[d[5]]++
		freqs[d[6]]++
		freqs[d[7]]++
		freqs[d[8]]++
		freqs[d[9]]++
		freqs[d[10]]++
		freqs[d[11]]++
		freqs[d[12]]++
		freqs[d[13]]++
		freqs[d[14]]++
		freqs[d[15]]++
	}

	for i := end16; i < len(block); i++ {
		freqs[block[i]]++
	}
}
