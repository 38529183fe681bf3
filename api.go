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
	"encoding/binary"
	"errors"
	"io"
	"os"
	"time"

	"github.com/corvidae/dczf/container"
	"github.com/corvidae/dczf/huffman"
	"github.com/corvidae/dczf/integrity"
	"github.com/corvidae/dczf/metrics"
	"github.com/corvidae/dczf/pipeline"
)

const (
	// DefaultChunkSizeBytes is used when Options.ChunkSizeBytes is zero.
	DefaultChunkSizeBytes = 32 << 20
	// MinChunkSizeBytes and MaxChunkSizeBytes bound the valid chunk-size
	// range.
	MinChunkSizeBytes = 1 << 20
	MaxChunkSizeBytes = 1024 << 20
	// DefaultParallelChunks is used when Options.ParallelChunks is zero.
	DefaultParallelChunks = 4
)

// Options configures one compress/decompress/verify call.
type Options struct {
	// ChunkSizeBytes is the per-chunk split size. Zero selects
	// DefaultChunkSizeBytes; must otherwise be within
	// [MinChunkSizeBytes, MaxChunkSizeBytes].
	ChunkSizeBytes int
	// ParallelChunks bounds the worker pool size. Zero selects
	// DefaultParallelChunks.
	ParallelChunks int
	// Layout picks header-first or footer-last for Compress. Ignored by
	// Decompress/Verify/List, which accept either.
	Layout container.Layout
	// Listeners receive EvtStart/EvtChunkDone/EvtEnd notifications.
	Listeners []Listener
	// Progress, if non-nil, is passed to the pipeline as its progress
	// callback (fraction of chunks written, in ascending order).
	Progress ProgressFunc
	// Metrics, if non-nil, receives per-stage timing/throughput data.
	Metrics *metrics.Recorder
}

func (o *Options) resolve() (chunkSize, parallel int, err error) {
	chunkSize = o.ChunkSizeBytes

	if chunkSize == 0 {
		chunkSize = DefaultChunkSizeBytes
	}

	if chunkSize < MinChunkSizeBytes || chunkSize > MaxChunkSizeBytes {
		return 0, 0, NewError(InvalidArgument, "chunk size %d out of range [%d, %d]", chunkSize, MinChunkSizeBytes, MaxChunkSizeBytes)
	}

	parallel = o.ParallelChunks

	if parallel == 0 {
		parallel = DefaultParallelChunks
	}

	if parallel < 1 {
		return 0, 0, NewError(InvalidArgument, "parallel chunks must be >= 1, got %d", parallel)
	}

	return chunkSize, parallel, nil
}

func (o *Options) listeners() []Listener {
	return o.Listeners
}

// Report summarises one completed operation for a caller that wants more
// than a pass/fail result (e.g. the CLI's verbose mode).
type Report struct {
	FileName       string
	OriginalSize   uint64
	CompressedSize uint64
	ChunkCount     int
	GlobalSHA256   integrity.Digest
	Metrics        map[string]metrics.Counter
}

// Compress reads all of input (inputSize bytes, known ahead of time) and
// writes a container to output using the given layout.
func Compress(ctx context.Context, fileName string, input io.Reader, inputSize int64, output io.Writer, opts Options) (*Report, error) {
	chunkSize, parallel, err := opts.resolve()

	if err != nil {
		return nil, err
	}

	listeners := opts.listeners()
	notifyListeners(listeners, NewEvent(EvtStart, -1, inputSize, time.Time{}))

	pipelineOpts := pipeline.Options{
		ChunkSize:      chunkSize,
		ParallelChunks: parallel,
		Metrics:        opts.Metrics,
		OnChunkDone: func(index int, size int) {
			notifyListeners(listeners, NewEvent(EvtChunkDone, index, int64(size), time.Time{}))
		},
		OnProgress: opts.Progress,
	}

	// The header-first layout needs the descriptor table before a single
	// byte of chunk data can be written, but descriptors only exist once
	// every chunk has been compressed — so header-first always buffers
	// the compressed data in memory before the final assembly pass.
	// Footer-last streams chunk data straight to output as it becomes
	// available, which is why the footer-last layout is preferred.
	var chunkBuf bytes.Buffer
	chunkWriter := io.Writer(output)

	if opts.Layout == container.HeaderFirst {
		chunkWriter = &chunkBuf
	}

	descriptors, globalDigest, err := pipeline.CompressStream(ctx, input, inputSize, chunkWriter, pipelineOpts)

	if err != nil {
		return nil, classifyPipelineError(err)
	}

	// The header records the source's own modification time when input
	// can report one (an *os.File does); otherwise it is zero, so the
	// container depends only on the input bytes and the options.
	var timestampMs uint64

	if st, ok := input.(interface{ Stat() (os.FileInfo, error) }); ok {
		if fi, err := st.Stat(); err == nil {
			timestampMs = uint64(fi.ModTime().UnixMilli())
		}
	}

	header := &container.Header{
		FileName:     fileName,
		OriginalSize: uint64(inputSize),
		TimestampMs:  timestampMs,
		ChunkSize:    uint32(chunkSize),
		GlobalSHA256: globalDigest,
		Descriptors:  descriptors,
	}

	var compressedSize uint64

	err = opts.Metrics.Observe(metrics.StageHeaderWrite, 0, func() error {
		switch opts.Layout {
		case container.HeaderFirst:
			n, err := container.EncodeHeaderFirst(output, header)

			if err != nil {
				return err
			}

			m, err := output.Write(chunkBuf.Bytes())
			compressedSize = uint64(n) + uint64(m)
			return err

		default: // container.FooterLast
			headerOffset := sumCompressedSizes(descriptors)
			err := container.EncodeFooterLast(output, header, int64(headerOffset))
			compressedSize = headerOffset
			return err
		}
	})

	if err != nil {
		return nil, WrapError(Io, err, "writing container")
	}

	notifyListeners(listeners, NewEvent(EvtEnd, -1, inputSize, time.Time{}))

	return &Report{
		FileName:       fileName,
		OriginalSize:   uint64(inputSize),
		CompressedSize: compressedSize,
		ChunkCount:     len(descriptors),
		GlobalSHA256:   globalDigest,
		Metrics:        opts.Metrics.Snapshot(),
	}, nil
}

func sumCompressedSizes(descriptors []container.Descriptor) uint64 {
	var total uint64

	for _, d := range descriptors {
		total += uint64(d.CompressedSize)
	}

	return total
}

// chunkDataSource is the minimal random-access surface Decompress and
// Verify need over the container's compressed-data region. *os.File and
// *bytes.Reader both satisfy it directly.
type chunkDataSource interface {
	ReadAt(p []byte, off int64) (n int, err error)
}

// ParseHeader applies the reader decision procedure: try
// header-first at byte 0, else treat the file as footer-last.
func ParseHeader(src chunkDataSource, fileSize int64) (*container.Header, int64, error) {
	magicBytes := make([]byte, 4)
	haveMagic := false

	if fileSize >= 4 {
		if _, err := src.ReadAt(magicBytes, 0); err != nil {
			return nil, 0, WrapError(Io, err, "reading container magic")
		}

		haveMagic = binary.BigEndian.Uint32(magicBytes) == container.Magic
	}

	if haveMagic {
		full, err := container.DecodeHeaderFirst(io.NewSectionReader(src, 0, fileSize))

		if err != nil {
			return nil, 0, WrapError(BadFormat, err, "decoding header-first container")
		}

		return full, 8 + headerFirstPrefixLen(full), nil
	}

	if fileSize < container.FooterPointerSize {
		return nil, 0, NewError(BadFormat, "file too small to hold a footer pointer")
	}

	footer := make([]byte, container.FooterPointerSize)

	if _, err := src.ReadAt(footer, fileSize-container.FooterPointerSize); err != nil {
		return nil, 0, WrapError(Io, err, "reading footer pointer")
	}

	headerOffset, err := container.ReadFooterPointer(footer)

	if err != nil {
		return nil, 0, WrapError(BadFormat, err, "parsing footer pointer")
	}

	if headerOffset < 0 || headerOffset >= fileSize {
		return nil, 0, NewError(BadFormat, "footer pointer %d out of range [0, %d)", headerOffset, fileSize)
	}

	h, err := container.ReadHeader(io.NewSectionReader(src, headerOffset, fileSize-headerOffset))

	if err != nil {
		return nil, 0, WrapError(BadFormat, err, "decoding footer-last header")
	}

	return h, 0, nil
}

// headerFirstPrefixLen is a measurement helper: re-encode h to learn how
// many bytes the header itself occupies (magic+version excluded, those
// 8 bytes are already accounted for by the caller), so the
// compressed-data region's base offset can be computed without the
// writer having stored it explicitly.
func headerFirstPrefixLen(h *container.Header) int64 {
	var buf bytes.Buffer
	_ = container.WriteHeader(&buf, h)
	return int64(buf.Len())
}

// Decompress parses header/footer from src (fileSize bytes total) and
// writes the reconstructed original bytes to output.
func Decompress(ctx context.Context, src chunkDataSource, fileSize int64, output io.Writer, opts Options) (*Report, error) {
	_, parallel, err := opts.resolve()

	if err != nil {
		return nil, err
	}

	header, dataBase, err := ParseHeader(src, fileSize)

	if err != nil {
		return nil, err
	}

	listeners := opts.listeners()
	notifyListeners(listeners, NewEvent(EvtStart, -1, int64(header.OriginalSize), time.Time{}))

	pipelineOpts := pipeline.Options{
		ChunkSize:      int(header.ChunkSize),
		ParallelChunks: parallel,
		Metrics:        opts.Metrics,
		OnChunkDone: func(index int, size int) {
			notifyListeners(listeners, NewEvent(EvtChunkDone, index, int64(size), time.Time{}))
		},
		OnProgress: opts.Progress,
	}

	readAt := func(offset int64, size int) ([]byte, error) {
		buf := make([]byte, size)
		_, err := src.ReadAt(buf, dataBase+offset)
		return buf, err
	}

	if err := pipeline.DecompressStream(ctx, readAt, header.Descriptors, output, pipelineOpts); err != nil {
		return nil, classifyPipelineError(err)
	}

	computedGlobal := integrity.Global(digestsOf(header.Descriptors))

	if computedGlobal != header.GlobalSHA256 {
		return nil, NewError(CorruptChunk, "global digest mismatch")
	}

	notifyListeners(listeners, NewEvent(EvtEnd, -1, int64(header.OriginalSize), time.Time{}))

	return &Report{
		FileName:       header.FileName,
		OriginalSize:   header.OriginalSize,
		ChunkCount:     len(header.Descriptors),
		GlobalSHA256:   header.GlobalSHA256,
		Metrics:        opts.Metrics.Snapshot(),
	}, nil
}

func digestsOf(descriptors []container.Descriptor) []integrity.Digest {
	out := make([]integrity.Digest, len(descriptors))

	for i, d := range descriptors {
		out[i] = d.SHA256
	}

	return out
}

// Verify decompresses the container without retaining the output
// (discarding it to io.Discard), returning an error if any chunk or the
// global digest fails its checksum. It is a dedicated integrity check
// that never materialises decompressed bytes beyond what the checksum
// requires.
func Verify(ctx context.Context, src chunkDataSource, fileSize int64, opts Options) (*Report, error) {
	return Decompress(ctx, src, fileSize, io.Discard, opts)
}

// List parses the header and returns per-chunk descriptor info without
// decoding any chunk or verifying checksums.
func List(src chunkDataSource, fileSize int64) (*container.Header, error) {
	header, _, err := ParseHeader(src, fileSize)
	return header, err
}

// classifyPipelineError maps a pipeline-layer error into the public
// error taxonomy via the sentinel errors pipeline/huffman expose,
// falling back to a generic Io kind for anything unrecognised.
func classifyPipelineError(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrChecksumMismatch):
		return WrapError(CorruptChunk, err, "chunk checksum verification failed")
	case errors.Is(err, pipeline.ErrDecodeFailure):
		return WrapError(DecodeFailure, err, "chunk decode failed")
	case errors.Is(err, huffman.ErrLengthLimitExceeded):
		return WrapError(LengthLimitExceeded, err, "huffman code length limit exceeded")
	case errors.Is(err, context.Canceled):
		return WrapError(Cancelled, err, "operation cancelled")
	default:
		var derr *Error

		if errors.As(err, &derr) {
			return derr
		}

		return WrapError(Io, err, "pipeline operation failed")
	}
}
