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

package huffman

import (
	"container/heap"
	"errors"
	"fmt"
)

// ErrLengthLimitExceeded is wrapped into the error returned by BuildTable
// when length limiting could not bring every code under MaxCodeLength
// bits within the retry budget. Callers can match it with errors.Is.
var ErrLengthLimitExceeded = errors.New("huffman: code length limit exceeded")

// treeNode is a flat-array tree entry: leaves live at indices [0, 256)
// (one slot per symbol, used only if that symbol has a code), internal
// nodes are appended starting at index 256. The priority queue holds
// indices into this array, never node pointers, following a
// flat-array-of-indices discipline for tree/queue structures.
type treeNode struct {
	freq   uint64
	leaf   bool
	symbol int // valid only when leaf
	seq    int // internal-node creation order, used to break freq ties
	left   int32
	right  int32
}

// nodeQueue is a min-priority queue over indices into a shared nodes
// slice. Ties break by: leaves before internals (ascending symbol index
// among leaves), then creation order among internals. This makes the
// resulting tree shape, and therefore the set of code lengths, fully
// reproducible for a given frequency vector and tie-break rule; the
// canonical assignment step afterwards erases any remaining freedom.
type nodeQueue struct {
	nodes *[]treeNode
	items []int32
}

func (this *nodeQueue) Len() int { return len(this.items) }

func (this *nodeQueue) Less(i, j int) bool {
	a := (*this.nodes)[this.items[i]]
	b := (*this.nodes)[this.items[j]]

	if a.freq != b.freq {
		return a.freq < b.freq
	}

	if a.leaf != b.leaf {
		return a.leaf // leaves sort before internal nodes
	}

	if a.leaf {
		return a.symbol < b.symbol
	}

	return a.seq < b.seq
}

func (this *nodeQueue) Swap(i, j int) {
	this.items[i], this.items[j] = this.items[j], this.items[i]
}

func (this *nodeQueue) Push(x any) {
	this.items = append(this.items, x.(int32))
}

func (this *nodeQueue) Pop() any {
	n := len(this.items)
	x := this.items[n-1]
	this.items = this.items[:n-1]
	return x
}

// BuildTable runs the full construction pipeline: collect
// present symbols, build a Huffman tree via a min-priority queue, derive
// code lengths by walking the tree, length-limit if necessary, and
// assign canonical codewords. An all-zero frequency vector yields an
// empty table (no symbols to encode).
func BuildTable(freqs Frequencies) (*Table, error) {
	var symbols []int

	for s, f := range freqs {
		if f > 0 {
			symbols = append(symbols, s)
		}
	}

	if len(symbols) == 0 {
		return &Table{}, nil
	}

	if len(symbols) == 1 {
		t := &Table{}
		t.Codes[symbols[0]] = Code{Length: 1, Codeword: 0}
		return t, nil
	}

	lengths, err := computeLengths(freqs, symbols)

	if err != nil {
		return nil, err
	}

	codes, err := assignCanonicalCodes(lengths, symbols)

	if err != nil {
		return nil, err
	}

	t := &Table{}

	for _, s := range symbols {
		t.Codes[s] = Code{Length: lengths[s], Codeword: codes[s]}
	}

	return t, nil
}

// computeLengths builds the tree and walks it to a per-symbol length
// vector, applying length limiting (via frequency renormalization) when
// the tree would otherwise need more than MaxCodeLength bits for some
// symbol.
func computeLengths(freqs Frequencies, symbols []int) ([AlphabetSize]byte, error) {
	var lengths [AlphabetSize]byte

	work := freqs
	const maxRetries = 4

	for retry := 0; ; retry++ {
		maxLen := buildTreeLengths(&work, symbols, &lengths)

		if maxLen <= MaxCodeLength {
			return lengths, nil
		}

		if retry >= maxRetries {
			return lengths, fmt.Errorf("%w: max code length (%d bits) exceeded after %d renormalization attempts", ErrLengthLimitExceeded, MaxCodeLength, retry)
		}

		// Length limiting: squeeze the distribution into a smaller total
		// so the tree built from it cannot be as deep, then retry. This
		// is a standard frequency-renormalization strategy for the same
		// problem, generalized to this format's 16-bit code length cap.
		scale := 1 << (16 - retry*2)

		if scale < AlphabetSize {
			scale = AlphabetSize
		}

		if err := renormalize(&work, symbols, scale); err != nil {
			return lengths, err
		}
	}
}

// buildTreeLengths builds a Huffman tree over the given frequencies and
// returns the per-symbol length vector plus the maximum length observed.
func buildTreeLengths(freqs *Frequencies, symbols []int, lengths *[AlphabetSize]byte) int {
	nodes := make([]treeNode, AlphabetSize, AlphabetSize+len(symbols))

	q := &nodeQueue{nodes: &nodes}
	q.items = make([]int32, 0, len(symbols))

	for _, s := range symbols {
		nodes[s] = treeNode{freq: freqs[s], leaf: true, symbol: s, left: -1, right: -1}
		q.items = append(q.items, int32(s))
	}

	heap.Init(q)
	seq := 0

	for q.Len() > 1 {
		a := heap.Pop(q).(int32)
		b := heap.Pop(q).(int32)
		parent := treeNode{
			freq: nodes[a].freq + nodes[b].freq,
			leaf: false,
			seq:  seq,
			left: a,
			right: b,
		}
		seq++
		idx := int32(len(nodes))
		nodes = append(nodes, parent)
		// q.nodes points at this nodes variable, so Less/Swap already see
		// the appended slice; this assignment only restates that.
		*q.nodes = nodes
		heap.Push(q, idx)
	}

	root := q.items[0]
	maxLen := 0

	var walk func(idx int32, depth int)
	walk = func(idx int32, depth int) {
		n := nodes[idx]

		if n.leaf {
			// depth is always >= 1 here: BuildTable handles the
			// single-symbol case itself, so the root of a tree built in
			// this function always has two or more leaves below it.
			lengths[n.symbol] = byte(depth)

			if depth > maxLen {
				maxLen = depth
			}

			return
		}

		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}

	walk(root, 0)
	return maxLen
}

// renormalize scales freqs down so their sum is close to scale, preserving
// relative proportions as closely as integer rounding allows. The same
// renormalization idea keeps a range coder's frequency table within a
// fixed-point budget; here it does the same job but as a length-limiting
// lever for the Huffman tree.
func renormalize(freqs *Frequencies, symbols []int, scale int) error {
	var total uint64

	for _, s := range symbols {
		total += freqs[s]
	}

	if total == 0 {
		return fmt.Errorf("huffman: cannot renormalize an all-zero frequency vector")
	}

	for _, s := range symbols {
		f := freqs[s]
		sf := f * uint64(scale)
		var scaled uint64

		if sf <= total {
			scaled = 1
		} else {
			scaled = sf / total
			errCeil := (scaled+1)*total - sf
			errFloor := sf - scaled*total

			if errCeil < errFloor {
				scaled++
			}
		}

		freqs[s] = scaled
	}

	return nil
}
