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

// Histogram computes a symbol frequency vector over one block of bytes,
// accumulating into freqs. Callers zero freqs before the first call; a
// Histogram implementation must not assume freqs starts zeroed itself.
// The default, portable implementation lives in internal/histogram; this
// seam exists so an alternative backend can be substituted without
// chunkcodec or huffman knowing the concrete type.
type Histogram interface {
	Count(block []byte, freqs *Frequencies)
}
