package lbvh

import (
	"testing"
)

// The 8 key example from "Maximizing Parallelism in the Construction of BVHs,
// Octrees, and k-d Trees" (Karras 2012).
func karrasKeys() []uint64 {
	codes := []uint32{0x01, 0x02, 0x04, 0x05, 0x13, 0x18, 0x19, 0x1E}
	keys := make([]uint64, len(codes))
	for index, code := range codes {
		keys[index] = mortonKey(code, index)
	}
	return keys
}

func TestDelta(t *testing.T) {
	keys := karrasKeys()

	if got := delta(keys, 0, -1); got != -1 {
		t.Fatalf("expected out of range delta to be -1; got %d", got)
	}
	if got := delta(keys, 0, len(keys)); got != -1 {
		t.Fatalf("expected out of range delta to be -1; got %d", got)
	}

	// 0x04 and 0x05 differ in the last code bit (bit 32 of the key).
	if got := delta(keys, 2, 3); got != 31 {
		t.Fatalf("expected delta(2, 3) to be 31; got %d", got)
	}
	// 0x05 and 0x13 differ at bit 4 of the code.
	if got := delta(keys, 3, 4); got != 27 {
		t.Fatalf("expected delta(3, 4) to be 27; got %d", got)
	}
}

func TestDetermineRangeAndSplit(t *testing.T) {
	keys := karrasKeys()

	type spec struct {
		node     int
		expRange NodeRange
		expSplit int
	}
	specs := []spec{
		{0, NodeRange{0, 7}, 3},
		{1, NodeRange{0, 1}, 0},
		{2, NodeRange{2, 3}, 2},
		{3, NodeRange{0, 3}, 1},
		{4, NodeRange{4, 7}, 4},
		{5, NodeRange{5, 7}, 6},
		{6, NodeRange{5, 6}, 5},
	}

	for index, s := range specs {
		r := determineRange(keys, s.node)
		if r != s.expRange {
			t.Fatalf("[spec %d] expected range of node %d to be %v; got %v", index, s.node, s.expRange, r)
		}
		if split := findSplit(keys, r); split != s.expSplit {
			t.Fatalf("[spec %d] expected split of node %d to be %d; got %d", index, s.node, s.expSplit, split)
		}
	}
}

func TestBuildHierarchy(t *testing.T) {
	keys := karrasKeys()
	nodes := make([]Node, 2*len(keys)-1)
	initLeaves(nodes, keys, 3)
	buildHierarchy(nodes, keys, 3)

	leaf := func(pos int) int32 { return int32(len(keys) - 1 + pos) }

	type spec struct {
		left  int32
		right int32
	}
	specs := []spec{
		{3, 4},
		{leaf(0), leaf(1)},
		{leaf(2), leaf(3)},
		{1, 2},
		{leaf(4), 5},
		{6, leaf(7)},
		{leaf(5), leaf(6)},
	}

	for index, s := range specs {
		node := nodes[index]
		if node.Left != s.left || node.Right != s.right {
			t.Fatalf("[node %d] expected children (%d, %d); got (%d, %d)", index, s.left, s.right, node.Left, node.Right)
		}
		if node.IsLeaf() {
			t.Fatalf("[node %d] expected internal node", index)
		}
		if nodes[node.Left].Parent != int32(index) || nodes[node.Right].Parent != int32(index) {
			t.Fatalf("[node %d] expected children to point back to their parent", index)
		}
	}

	if nodes[0].Parent != -1 {
		t.Fatalf("expected root parent to be -1; got %d", nodes[0].Parent)
	}
	for pos := range keys {
		if nodes[leaf(pos)].Primitive != int32(pos) {
			t.Fatalf("expected leaf %d to reference primitive %d; got %d", pos, pos, nodes[leaf(pos)].Primitive)
		}
	}
}

func TestDetermineRangeDuplicateCodes(t *testing.T) {
	keys := make([]uint64, 37)
	for index := range keys {
		keys[index] = mortonKey(0x15, index)
	}

	root := determineRange(keys, 0)
	if root != (NodeRange{0, len(keys) - 1}) {
		t.Fatalf("expected root to cover all keys; got %v", root)
	}

	for index := 0; index < len(keys)-1; index++ {
		r := determineRange(keys, index)
		split := findSplit(keys, r)
		if split < r.First || split >= r.Last {
			t.Fatalf("[node %d] split %d lies outside range %v", index, split, r)
		}
	}
}
