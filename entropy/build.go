// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package entropy

import (
	"cmp"
	"slices"
)

// codeLengths builds Huffman code lengths for the symbol frequencies,
// none longer than limit. Frequencies are halved until the tree is
// shallow enough. A lone symbol gets length 1.
func codeLengths(freq []int, limit int) []uint8 {
	f := slices.Clone(freq)
	for {
		lengths, deepest := huffman(f)
		if deepest <= limit {
			return lengths
		}
		for i := range f {
			if f[i] > 0 {
				f[i] = (f[i] + 1) / 2
			}
		}
	}
}

// huffman merges the two lightest nodes until one remains, using a
// queue of sorted leaves and a queue of merged nodes, whose weights come
// out in order.
func huffman(freq []int) ([]uint8, int) {
	lengths := make([]uint8, len(freq))
	var leaves []int
	for sym, f := range freq {
		if f > 0 {
			leaves = append(leaves, sym)
		}
	}
	switch len(leaves) {
	case 0:
		return lengths, 0
	case 1:
		lengths[leaves[0]] = 1
		return lengths, 1
	}
	slices.SortStableFunc(leaves, func(a, b int) int {
		return cmp.Compare(freq[a], freq[b])
	})

	n := len(leaves)
	weight := make([]int, 2*n-1)
	parent := make([]int, 2*n-1)
	for i, sym := range leaves {
		weight[i] = freq[sym]
	}
	leaf, merged, next := 0, n, n
	lightest := func() int {
		if leaf < n && (merged == next || weight[leaf] <= weight[merged]) {
			leaf++
			return leaf - 1
		}
		merged++
		return merged - 1
	}
	for ; next < 2*n-1; next++ {
		a, b := lightest(), lightest()
		weight[next] = weight[a] + weight[b]
		parent[a], parent[b] = next, next
	}

	// parents always come after their children
	depth := make([]int, 2*n-1)
	deepest := 0
	for i := 2*n - 3; i >= 0; i-- {
		depth[i] = depth[parent[i]] + 1
		if i < n {
			lengths[leaves[i]] = uint8(depth[i])
			deepest = max(deepest, depth[i])
		}
	}
	return lengths, deepest
}
