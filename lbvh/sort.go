package lbvh

import (
	"slices"

	"github.com/achilleasa/lbvh/parallel"
)

// Inputs smaller than this are sorted on the calling goroutine.
const minParallelSortLen = 1 << 14

// Sort composite Morton keys in ascending order. Each worker sorts a
// contiguous block; sorted blocks are then merged pairwise, with the merges
// of each round running in parallel. Composite keys are unique so the output
// order is fully determined by the input.
func sortKeys(keys []uint64, workers int) {
	blocks := parallel.Blocks(len(keys), workers)
	if len(blocks) <= 1 || len(keys) < minParallelSortLen {
		slices.Sort(keys)
		return
	}

	parallel.For(len(blocks), len(blocks), func(start, end int) {
		for index := start; index < end; index++ {
			slices.Sort(keys[blocks[index].Start:blocks[index].End])
		}
	})

	src, dst := keys, make([]uint64, len(keys))
	for len(blocks) > 1 {
		pairs := (len(blocks) + 1) / 2
		parallel.For(pairs, pairs, func(start, end int) {
			for pair := start; pair < end; pair++ {
				left := blocks[2*pair]
				if 2*pair+1 == len(blocks) {
					copy(dst[left.Start:left.End], src[left.Start:left.End])
					continue
				}
				right := blocks[2*pair+1]
				mergeKeys(dst[left.Start:right.End], src[left.Start:left.End], src[right.Start:right.End])
			}
		})

		merged := make([]parallel.Block, pairs)
		for pair := range merged {
			merged[pair] = blocks[2*pair]
			if 2*pair+1 < len(blocks) {
				merged[pair].End = blocks[2*pair+1].End
			}
		}
		blocks = merged
		src, dst = dst, src
	}

	// After an odd number of rounds the sorted data lives in the scratch buffer.
	if &src[0] != &keys[0] {
		copy(keys, src)
	}
}

// Merge two sorted slices into dst which must have room for both.
func mergeKeys(dst, a, b []uint64) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if b[j] < a[i] {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
