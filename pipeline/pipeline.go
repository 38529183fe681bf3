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

// Package pipeline is the compression/decompression orchestrator: it
// reads chunks sequentially, dispatches up to N of them to a bounded
// worker pool, and writes results (or, on decompression, decoded bytes)
// in strict ascending chunk-index order regardless of completion order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/corvidae/dczf/chunkcodec"
	"github.com/corvidae/dczf/container"
	"github.com/corvidae/dczf/integrity"
	"github.com/corvidae/dczf/metrics"
)

// State is the lifecycle of one compress/decompress operation.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
	Cancelled
)

// Sentinel errors a caller can match with errors.Is to classify a
// pipeline failure into the root package's error taxonomy without this
// package needing to depend on it.
var (
	ErrChecksumMismatch = errors.New("pipeline: checksum mismatch")
	ErrDecodeFailure    = errors.New("pipeline: decode failure")
)

// Options configures one run of the pipeline. It intentionally has no
// dependency on the root package's Listener/Event types so this package
// stays usable on its own; the root package adapts its own callbacks to
// these function values.
type Options struct {
	ChunkSize      int
	ParallelChunks int
	// OnChunkDone fires once per chunk, in COMPLETION order (which may
	// not be ascending), carrying enough to drive a listener.
	OnChunkDone func(index int, originalSize int)
	// OnProgress fires with a monotone non-decreasing fraction in
	// [0,1], driven off chunks actually WRITTEN (ascending order).
	OnProgress func(fraction float64)
	// Metrics, if non-nil, receives per-stage timing/throughput
	// observations. A nil Metrics is valid and simply disables them.
	Metrics *metrics.Recorder
}

func (o Options) validate(hasInput bool) error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("pipeline: chunk size must be positive, got %d", o.ChunkSize)
	}

	if o.ParallelChunks <= 0 {
		return fmt.Errorf("pipeline: parallel chunks must be positive, got %d", o.ParallelChunks)
	}

	return nil
}

type compressedChunk struct {
	index      int
	descriptor container.Descriptor
	blob       []byte
}

// CompressStream splits r (totalSize bytes, known up front) into chunks,
// encodes them with up to opts.ParallelChunks concurrent workers, and
// writes the compressed chunk data to w in ascending index order. It
// returns the populated descriptors and the global digest; callers
// (the root package) are responsible for emitting the container header
// or footer around this data.
func CompressStream(ctx context.Context, r io.Reader, totalSize int64, w io.Writer, opts Options) ([]container.Descriptor, integrity.Digest, error) {
	if err := opts.validate(true); err != nil {
		return nil, integrity.Digest{}, err
	}

	numChunks := 0

	if totalSize > 0 {
		numChunks = int((totalSize + int64(opts.ChunkSize) - 1) / int64(opts.ChunkSize))
	}

	if numChunks == 0 {
		return nil, integrity.Global(nil), nil
	}

	descriptors := make([]container.Descriptor, numChunks)
	digests := make([]integrity.Digest, numChunks)

	resultsCh := make(chan compressedChunk, opts.ParallelChunks)
	sem := semaphore.NewWeighted(int64(opts.ParallelChunks))
	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(cancelCtx)

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	var writeErr error
	var compressedOffset uint64

	go func() {
		defer writerWG.Done()

		pending := make(map[int]compressedChunk)
		next := 0
		written := 0

		for next < numChunks {
			cc, ok := <-resultsCh

			if !ok {
				break
			}

			pending[cc.index] = cc

			for {
				ready, ok := pending[next]

				if !ok {
					break
				}

				delete(pending, next)
				ready.descriptor.CompressedOffset = compressedOffset

				if _, err := w.Write(ready.blob); err != nil {
					writeErr = fmt.Errorf("pipeline: writing chunk %d: %w", next, err)
					cancel()
					return
				}

				compressedOffset += uint64(len(ready.blob))
				descriptors[next] = ready.descriptor
				digests[next] = ready.descriptor.SHA256
				written++
				next++

				if opts.OnProgress != nil {
					opts.OnProgress(float64(written) / float64(numChunks))
				}
			}
		}
	}()

	for i := 0; i < numChunks; i++ {
		i := i
		offset := int64(i) * int64(opts.ChunkSize)
		size := opts.ChunkSize

		if remaining := totalSize - offset; int64(size) > remaining {
			size = int(remaining)
		}

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		buf := make([]byte, size)

		// The input is read sequentially by this single dispatch
		// goroutine, in ascending chunk order, before any worker touches
		// it — this is the "acquire mutex, read, release" step
		// degenerated to its simplest correct form, since nothing else
		// ever calls Read on r.
		if _, err := io.ReadFull(r, buf); err != nil {
			sem.Release(1)
			cancel()
			g.Wait()
			close(resultsCh)
			writerWG.Wait()
			return nil, integrity.Digest{}, fmt.Errorf("pipeline: reading chunk %d: %w", i, err)
		}

		g.Go(func() error {
			defer sem.Release(1)

			var result chunkcodec.EncodeResult
			encErr := opts.Metrics.Observe(metrics.StageEncoding, int64(len(buf)), func() error {
				var err error
				result, err = chunkcodec.Encode(buf)
				return err
			})

			if encErr != nil {
				return fmt.Errorf("pipeline: encoding chunk %d: %w", i, encErr)
			}

			var digest integrity.Digest
			_ = opts.Metrics.Observe(metrics.StageChecksum, int64(len(buf)), func() error {
				digest = integrity.Compute(buf)
				return nil
			})

			if opts.OnChunkDone != nil {
				opts.OnChunkDone(i, len(buf))
			}

			select {
			case resultsCh <- compressedChunk{
				index: i,
				descriptor: container.Descriptor{
					Index:          uint32(i),
					OriginalOffset: uint64(offset),
					OriginalSize:   uint32(len(buf)),
					CompressedSize: uint32(len(result.Compressed)),
					SHA256:         digest,
					CodeLengths:    result.CodeLengths,
				},
				blob: result.Compressed,
			}:
			case <-gctx.Done():
				return gctx.Err()
			}

			return nil
		})
	}

	err := g.Wait()
	close(resultsCh)
	writerWG.Wait()

	if err != nil {
		return nil, integrity.Digest{}, err
	}

	if writeErr != nil {
		return nil, integrity.Digest{}, writeErr
	}

	return descriptors, integrity.Global(digests), nil
}

type decodedChunk struct {
	index int
	data  []byte
}

// DecompressStream reads each chunk's compressed blob through readAt
// (random access), decodes it, verifies its checksum, and writes the
// decoded bytes to w in ascending index order.
func DecompressStream(ctx context.Context, readAt func(offset int64, size int) ([]byte, error), descriptors []container.Descriptor, w io.Writer, opts Options) error {
	if err := opts.validate(false); err != nil {
		return err
	}

	numChunks := len(descriptors)

	if numChunks == 0 {
		return nil
	}

	resultsCh := make(chan decodedChunk, opts.ParallelChunks)
	sem := semaphore.NewWeighted(int64(opts.ParallelChunks))
	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(cancelCtx)

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	var writeErr error

	go func() {
		defer writerWG.Done()

		pending := make(map[int][]byte)
		next := 0
		written := 0

		for next < numChunks {
			dc, ok := <-resultsCh

			if !ok {
				break
			}

			pending[dc.index] = dc.data

			for {
				data, ok := pending[next]

				if !ok {
					break
				}

				delete(pending, next)

				if _, err := w.Write(data); err != nil {
					writeErr = fmt.Errorf("pipeline: writing decoded chunk %d: %w", next, err)
					cancel()
					return
				}

				written++
				next++

				if opts.OnProgress != nil {
					opts.OnProgress(float64(written) / float64(numChunks))
				}
			}
		}
	}()

	for i := 0; i < numChunks; i++ {
		i := i
		d := descriptors[i]

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}

		blob, err := readAt(int64(d.CompressedOffset), int(d.CompressedSize))

		if err != nil {
			sem.Release(1)
			cancel()
			g.Wait()
			close(resultsCh)
			writerWG.Wait()
			return fmt.Errorf("pipeline: reading compressed chunk %d: %w", i, err)
		}

		g.Go(func() error {
			defer sem.Release(1)

			var decoded []byte
			decErr := opts.Metrics.Observe(metrics.StageDecoding, int64(d.OriginalSize), func() error {
				var err error
				decoded, err = chunkcodec.Decode(blob, d.CodeLengths, int(d.OriginalSize))
				return err
			})

			if decErr != nil {
				return fmt.Errorf("pipeline: decoding chunk %d: %w: %v", i, ErrDecodeFailure, decErr)
			}

			var checksumOK bool
			_ = opts.Metrics.Observe(metrics.StageChecksumVerify, int64(len(decoded)), func() error {
				checksumOK = integrity.Compute(decoded) == d.SHA256
				return nil
			})

			if !checksumOK {
				return fmt.Errorf("pipeline: chunk %d: %w", i, ErrChecksumMismatch)
			}

			if opts.OnChunkDone != nil {
				opts.OnChunkDone(i, len(decoded))
			}

			select {
			case resultsCh <- decodedChunk{index: i, data: decoded}:
			case <-gctx.Done():
				return gctx.Err()
			}

			return nil
		})
	}

	err := g.Wait()
	close(resultsCh)
	writerWG.Wait()

	if err != nil {
		return err
	}

	return writeErr
}
