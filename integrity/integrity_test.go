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

package integrity

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeMatchesStdlib(t *testing.T) {
	data := []byte("Hello World! Hello World! Hello World! ")
	want := sha256.Sum256(data)
	require.Equal(t, Digest(want), Compute(data))
}

func TestComputeOfEmptyInput(t *testing.T) {
	want := sha256.Sum256(nil)
	require.Equal(t, Digest(want), Compute(nil))
}

func TestGlobalIsOrderSensitive(t *testing.T) {
	a := Compute([]byte("a"))
	b := Compute([]byte("b"))

	ab := Global([]Digest{a, b})
	ba := Global([]Digest{b, a})

	require.NotEqual(t, ab, ba)
}

func TestGlobalOfNoChunksIsHashOfEmptyString(t *testing.T) {
	want := sha256.Sum256(nil)
	require.Equal(t, Digest(want), Global(nil))
}

func TestGlobalMatchesManualConcatenation(t *testing.T) {
	a := Compute([]byte("chunk-0"))
	b := Compute([]byte("chunk-1"))
	c := Compute([]byte("chunk-2"))

	var concat []byte
	concat = append(concat, a[:]...)
	concat = append(concat, b[:]...)
	concat = append(concat, c[:]...)

	want := sha256.Sum256(concat)
	require.Equal(t, Digest(want), Global([]Digest{a, b, c}))
}
