package lbvh

import (
	"sync/atomic"

	"github.com/achilleasa/lbvh/parallel"
)

// Compute node bounding boxes bottom-up.
//
// Each leaf copies the box of its primitive and then walks towards the root.
// Every internal node has a visit counter; the first child to arrive stops
// while the second one, which is guaranteed to observe both finalized child
// boxes, computes the union and keeps climbing. Each internal box is thus
// written exactly once and the walk ends after the root box is computed.
func propagateBounds(nodes []Node, primBoxes []AABB, workers int) {
	leafCount := len(primBoxes)
	leafOffset := leafCount - 1
	visits := make([]atomic.Uint32, leafOffset)

	parallel.For(leafCount, workers, func(start, end int) {
		for pos := start; pos < end; pos++ {
			leaf := &nodes[leafOffset+pos]
			leaf.Box = primBoxes[leaf.Primitive]

			for parent := leaf.Parent; parent != -1; {
				if visits[parent].Add(1) == 1 {
					break
				}

				node := &nodes[parent]
				node.Box = nodes[node.Left].Box.Union(nodes[node.Right].Box)
				parent = node.Parent
			}
		}
	})
}
