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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corvidae/dczf"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <container>",
		Short: "List a container's chunk descriptors",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])

	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}

	defer in.Close()

	stat, err := in.Stat()

	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	header, err := dczf.List(in, stat.Size())

	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file: %s\n", header.FileName)
	fmt.Fprintf(out, "original size: %d bytes\n", header.OriginalSize)
	fmt.Fprintf(out, "chunk size: %d bytes\n", header.ChunkSize)
	fmt.Fprintf(out, "chunks: %d\n", len(header.Descriptors))
	fmt.Fprintf(out, "global sha256: %x\n", header.GlobalSHA256)

	if !flagVerbose {
		return nil
	}

	for _, d := range header.Descriptors {
		fmt.Fprintf(out, "  [%4d] offset=%-10d size=%-8d compressed=%-8d sha256=%x\n",
			d.Index, d.OriginalOffset, d.OriginalSize, d.CompressedSize, d.SHA256)
	}

	return nil
}
