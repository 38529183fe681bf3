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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/corvidae/dczf"
	"github.com/corvidae/dczf/container"
	"github.com/corvidae/dczf/metrics"
)

func newCompressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compress <input> <output> [chunk-size-MB]",
		Aliases: []string{"c"},
		Short:   "Compress a file into a dczf container",
		Args:    cobra.RangeArgs(2, 3),
		RunE:    runCompress,
	}

	cmd.Flags().IntVar(&flagChunkSizeMB, "chunk-size-mb", 32, "chunk size in megabytes (1-1024)")
	return cmd
}

func runCompress(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]
	chunkMB := flagChunkSizeMB

	if len(args) == 3 {
		var err error
		chunkMB, err = parsePositiveInt(args[2])

		if err != nil {
			return fmt.Errorf("invalid chunk-size-MB argument: %w", err)
		}
	}

	in, err := os.Open(inPath)

	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}

	defer in.Close()

	stat, err := in.Stat()

	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	out, err := os.Create(outPath)

	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	defer out.Close()

	var bar *progressbar.ProgressBar

	if flagVerbose {
		bar = progressbar.DefaultBytes(stat.Size(), "compressing")
	}

	rec := metrics.NewRecorder()

	opts := dczf.Options{
		ChunkSizeBytes: chunkMB << 20,
		ParallelChunks: jobsOrDefault(),
		Layout:         container.FooterLast,
		Metrics:        rec,
		Progress: func(fraction float64) {
			if bar != nil {
				_ = bar.Set(int(fraction * float64(stat.Size())))
			}
		},
	}

	report, err := dczf.Compress(context.Background(), filepath.Base(inPath), in, stat.Size(), out, opts)

	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	log.Info().
		Str("file", inPath).
		Uint64("original_bytes", report.OriginalSize).
		Uint64("compressed_bytes", report.CompressedSize).
		Int("chunks", report.ChunkCount).
		Msg("compression complete")

	if flagVerbose {
		fmt.Fprint(cmd.OutOrStdout(), rec.Report())
	}

	return nil
}

func jobsOrDefault() int {
	if flagJobs > 0 {
		return flagJobs
	}

	return dczf.DefaultParallelChunks
}

func parsePositiveInt(s string) (int, error) {
	var n int

	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}

	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}

	return n, nil
}
