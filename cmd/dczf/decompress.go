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

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/corvidae/dczf"
	"github.com/corvidae/dczf/metrics"
)

func newDecompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "decompress <input> <output>",
		Aliases: []string{"d"},
		Short:   "Decompress a dczf container",
		Args:    cobra.ExactArgs(2),
		RunE:    runDecompress,
	}
}

func runDecompress(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]

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
		bar = progressbar.Default(100, "decompressing")
	}

	rec := metrics.NewRecorder()

	opts := dczf.Options{
		ParallelChunks: jobsOrDefault(),
		Metrics:        rec,
		Progress: func(fraction float64) {
			if bar != nil {
				_ = bar.Set(int(fraction * 100))
			}
		},
	}

	report, err := dczf.Decompress(context.Background(), in, stat.Size(), out, opts)

	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}

	log.Info().
		Str("file", inPath).
		Uint64("original_bytes", report.OriginalSize).
		Int("chunks", report.ChunkCount).
		Msg("decompression complete")

	if flagVerbose {
		fmt.Fprint(cmd.OutOrStdout(), rec.Report())
	}

	return nil
}
