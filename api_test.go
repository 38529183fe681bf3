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

package dczf

import (
	"bytes"
	"context"
	"testing"

	"github.com/corvidae/dczf/container"
	"github.com/corvidae/dczf/metrics"
	"github.com/stretchr/testify/require"
)

// repeatToSize builds an exact-length byte slice by repeating pattern,
// so multi-megabyte test inputs don't depend on bytes.Repeat's count
// landing on a convenient boundary.
func repeatToSize(pattern string, size int) []byte {
	out := make([]byte, size)

	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}

	return out
}

func TestCompressDecompressRoundTripFooterLast(t *testing.T) {
	data := bytes.Repeat([]byte("dczf end-to-end payload "), 2000)

	rec := metrics.NewRecorder()

	var out bytes.Buffer
	report, err := Compress(context.Background(), "payload.bin", bytes.NewReader(data), int64(len(data)), &out, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 3,
		Layout:         container.FooterLast,
		Metrics:        rec,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(len(data)), report.OriginalSize)
	require.NotEmpty(t, report.Metrics)

	src := bytes.NewReader(out.Bytes())
	var decoded bytes.Buffer
	decReport, err := Decompress(context.Background(), src, int64(out.Len()), &decoded, Options{ParallelChunks: 3, Metrics: rec})
	require.NoError(t, err)
	require.Equal(t, data, decoded.Bytes())
	require.Equal(t, report.GlobalSHA256, decReport.GlobalSHA256)
	require.NotEmpty(t, decReport.Metrics)
}

func TestCompressDecompressRoundTripHeaderFirst(t *testing.T) {
	data := bytes.Repeat([]byte("header-first payload "), 1500)

	var out bytes.Buffer
	_, err := Compress(context.Background(), "other.bin", bytes.NewReader(data), int64(len(data)), &out, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 2,
		Layout:         container.HeaderFirst,
	})
	require.NoError(t, err)

	src := bytes.NewReader(out.Bytes())
	var decoded bytes.Buffer
	_, err = Decompress(context.Background(), src, int64(out.Len()), &decoded, Options{ParallelChunks: 2})
	require.NoError(t, err)
	require.Equal(t, data, decoded.Bytes())
}

// TestCompressDeterministicAcrossParallelChunks is the determinism-across-
// worker-counts property: the same input compressed with ParallelChunks=1
// and ParallelChunks=4 must produce byte-identical containers, since
// chunk ordering in the output never depends on completion order.
func TestCompressDeterministicAcrossParallelChunks(t *testing.T) {
	data := repeatToSize("determinism across worker counts ", 3*MinChunkSizeBytes)

	var out1, out4 bytes.Buffer

	_, err := Compress(context.Background(), "det.bin", bytes.NewReader(data), int64(len(data)), &out1, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 1,
	})
	require.NoError(t, err)

	_, err = Compress(context.Background(), "det.bin", bytes.NewReader(data), int64(len(data)), &out4, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 4,
	})
	require.NoError(t, err)

	require.True(t, bytes.Equal(out1.Bytes(), out4.Bytes()))
}

// TestVerifyDetectsTamperedContainer is the tampered-container-detection
// scenario: flipping a byte in the middle of a footer-last container,
// which lands in the compressed chunk data, must surface as an error from
// Verify, never a silent false-positive pass.
func TestVerifyDetectsTamperedContainer(t *testing.T) {
	data := bytes.Repeat([]byte("verify tamper detection payload "), 2000)

	var out bytes.Buffer
	_, err := Compress(context.Background(), "verify.bin", bytes.NewReader(data), int64(len(data)), &out, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 2,
		Layout:         container.FooterLast,
	})
	require.NoError(t, err)

	corrupted := make([]byte, out.Len())
	copy(corrupted, out.Bytes())
	corrupted[len(corrupted)/2] ^= 0xFF

	src := bytes.NewReader(corrupted)
	_, err = Verify(context.Background(), src, int64(len(corrupted)), Options{ParallelChunks: 2})
	require.Error(t, err)
}

func TestListReturnsHeaderWithoutDecoding(t *testing.T) {
	data := bytes.Repeat([]byte("list payload "), 500)

	var out bytes.Buffer
	_, err := Compress(context.Background(), "list.bin", bytes.NewReader(data), int64(len(data)), &out, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 2,
	})
	require.NoError(t, err)

	src := bytes.NewReader(out.Bytes())
	header, err := List(src, int64(out.Len()))
	require.NoError(t, err)
	require.Equal(t, "list.bin", header.FileName)
	require.Equal(t, uint64(len(data)), header.OriginalSize)
	require.NotEmpty(t, header.Descriptors)
}

// TestCompressProgressReachesOne guards against the jump-to-100%-on-first-
// chunk regression: progress must be reported as a true fraction over
// several calls, not a single report already at 1.0.
func TestCompressProgressReachesOne(t *testing.T) {
	data := repeatToSize("progress wiring payload ", 3*MinChunkSizeBytes)

	var fractions []float64
	var out bytes.Buffer

	_, err := Compress(context.Background(), "progress.bin", bytes.NewReader(data), int64(len(data)), &out, Options{
		ChunkSizeBytes: MinChunkSizeBytes,
		ParallelChunks: 4,
		Progress: func(f float64) {
			fractions = append(fractions, f)
		},
	})
	require.NoError(t, err)
	require.Greater(t, len(fractions), 1)
	require.Less(t, fractions[0], 1.0)
	require.InDelta(t, 1.0, fractions[len(fractions)-1], 1e-9)
}
