package lbvh

import (
	"math/bits"

	"github.com/achilleasa/lbvh/parallel"
)

// NodeRange is the contiguous span of sorted leaf positions covered by an
// internal node.
type NodeRange struct {
	First int
	Last  int
}

// Length of the longest common prefix of the keys at positions i and j.
// Returns -1 when j falls outside the key list. Composite keys are unique so
// the prefix of two distinct positions is always shorter than 64 bits.
func delta(keys []uint64, i, j int) int {
	if j < 0 || j >= len(keys) {
		return -1
	}
	return bits.LeadingZeros64(keys[i] ^ keys[j])
}

// Determine the range of sorted leaves covered by internal node i.
//
// The range extends in the direction of the neighbor sharing the longer
// prefix with position i. Its far end is located with an exponential search
// for an upper bound followed by a binary search; all keys inside the range
// share more than deltaMin leading bits with key i.
func determineRange(keys []uint64, i int) NodeRange {
	dir := 1
	if delta(keys, i, i+1) < delta(keys, i, i-1) {
		dir = -1
	}

	deltaMin := delta(keys, i, i-dir)
	lMax := 2
	for delta(keys, i, i+lMax*dir) > deltaMin {
		lMax <<= 1
	}

	l := 0
	for t := lMax >> 1; t > 0; t >>= 1 {
		if delta(keys, i, i+(l+t)*dir) > deltaMin {
			l += t
		}
	}

	j := i + l*dir
	if dir < 0 {
		return NodeRange{First: j, Last: i}
	}
	return NodeRange{First: i, Last: j}
}

// Find the last position of the left child within r: the highest position
// whose key shares more than delta(First, Last) leading bits with the first key.
func findSplit(keys []uint64, r NodeRange) int {
	commonPrefix := delta(keys, r.First, r.Last)

	split := r.First
	step := r.Last - r.First
	for {
		step = (step + 1) >> 1
		newSplit := split + step
		if newSplit < r.Last && delta(keys, r.First, newSplit) > commonPrefix {
			split = newSplit
		}

		if step <= 1 {
			break
		}
	}

	return split
}

// Initialize the leaf nodes from the sorted keys. Leaves occupy the
// [n-1, 2n-2] region of the node list.
func initLeaves(nodes []Node, keys []uint64, workers int) {
	leafOffset := len(keys) - 1
	parallel.For(len(keys), workers, func(start, end int) {
		for pos := start; pos < end; pos++ {
			nodes[leafOffset+pos] = Node{
				Left:      -1,
				Right:     -1,
				Parent:    -1,
				Primitive: keyPrimitive(keys[pos]),
			}
		}
	})
}

// Link the n-1 internal nodes to their children. Every node depends only on
// the sorted keys and every child is claimed by exactly one parent, so all
// nodes are processed concurrently without synchronization.
func buildHierarchy(nodes []Node, keys []uint64, workers int) {
	leafOffset := len(keys) - 1
	childIndex := func(pos int, isLeaf bool) int32 {
		if isLeaf {
			return int32(leafOffset + pos)
		}
		return int32(pos)
	}

	nodes[0].Parent = -1
	parallel.For(len(keys)-1, workers, func(start, end int) {
		for index := start; index < end; index++ {
			r := determineRange(keys, index)
			split := findSplit(keys, r)

			node := &nodes[index]
			node.Left = childIndex(split, split == r.First)
			node.Right = childIndex(split+1, split+1 == r.Last)
			node.Primitive = -1
			node.Axis = splitAxis(delta(keys, r.First, r.Last))

			nodes[node.Left].Parent = int32(index)
			nodes[node.Right].Parent = int32(index)
		}
	})
}
