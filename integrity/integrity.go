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

// Package integrity computes the SHA-256 digests used to detect a
// corrupted chunk or a corrupted container: one digest per chunk, over
// its uncompressed bytes, and one global digest over the concatenation
// of all chunk digests in ascending index order.
package integrity

import "crypto/sha256"

// Digest is a 32-byte SHA-256 digest.
type Digest [sha256.Size]byte

// Compute returns the SHA-256 digest of data.
func Compute(data []byte) Digest {
	return sha256.Sum256(data)
}

// Global folds an ascending-index-ordered slice of chunk digests into the
// single digest recorded in the container header/footer: SHA-256 over the
// concatenation of the chunk digests. The caller is responsible
// for ordering chunkDigests by ascending chunk index before calling this;
// Global does not sort or otherwise reorder its input.
func Global(chunkDigests []Digest) Digest {
	h := sha256.New()

	for _, d := range chunkDigests {
		h.Write(d[:])
	}

	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
