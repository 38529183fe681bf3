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
	"github.com/spf13/cobra"
)

var (
	flagChunkSizeMB int
	flagJobs        int
	flagVerbose     bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dczf",
		Short: "Chunked, parallel, canonical-Huffman compression container",
	}

	root.PersistentFlags().IntVar(&flagJobs, "jobs", 0, "number of concurrent chunk workers (0 = default)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print per-stage metrics and a progress bar")

	root.AddCommand(newCompressCmd())
	root.AddCommand(newDecompressCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newListCmd())

	return root
}
