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

	"github.com/spf13/cobra"

	"github.com/corvidae/dczf"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <container>",
		Short: "Verify every chunk checksum and the global digest without writing output",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])

	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}

	defer in.Close()

	stat, err := in.Stat()

	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	report, err := dczf.Verify(context.Background(), in, stat.Size(), dczf.Options{ParallelChunks: jobsOrDefault()})

	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	log.Info().
		Str("file", args[0]).
		Int("chunks", report.ChunkCount).
		Msg("verification succeeded")

	return nil
}
