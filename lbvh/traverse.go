package lbvh

import (
	"github.com/achilleasa/lbvh/types"
)

// Capacity of the traversal stack.
const MaxStackDepth = 64

// Mode selects the traversal strategy.
type Mode uint8

const (
	// Find the nearest intersection along the ray.
	ClosestHit Mode = iota

	// Stop at the first intersection found (shadow rays).
	AnyHit
)

func (m Mode) String() string {
	switch m {
	case ClosestHit:
		return "closest-hit"
	case AnyHit:
		return "any-hit"
	}
	return "unknown"
}

// A ray-triangle intersection.
type Hit struct {
	// Distance along the ray in multiples of the ray direction length.
	Distance float32

	Point  types.Vec3
	Normal types.Vec3

	// Barycentric coordinates of the hit point.
	U, V float32

	// Index of the intersected triangle and its material.
	Primitive     int32
	MaterialIndex int32
}

// The outcome of a traversal query.
type QueryResult struct {
	Hit   Hit
	IsHit bool

	// Set when the traversal stack filled up and the query was cut short.
	// Hit then holds the best intersection found before aborting.
	StackOverflow bool
}

// NoHit is the result of a query that did not intersect any triangle.
var NoHit = QueryResult{}

// Intersect finds the nearest (ClosestHit) or any (AnyHit) intersection
// between the ray and the tree triangles. It only reads from the tree and is
// safe for concurrent use.
//
// Traversal is depth-first with an explicit stack. Nodes whose box does not
// overlap the [TMin, closest hit] interval are skipped. For internal nodes
// the child on the near side of the split plane, as seen from the ray
// direction, is visited first.
func (t *Tree) Intersect(r Ray, mode Mode) QueryResult {
	if len(t.nodes) == 0 {
		return NoHit
	}

	var (
		res          QueryResult
		stack        [MaxStackDepth]int32
		bestU, bestV float32
	)
	bestT, bestPrim := r.TMax, int32(-1)

	stack[0] = 0
	stackSize := 1
	for stackSize > 0 {
		stackSize--
		node := &t.nodes[stack[stackSize]]
		if _, overlaps := node.Box.IntersectRay(&r, r.TMin, bestT); !overlaps {
			continue
		}

		if node.IsLeaf() {
			if dist, u, v, ok := intersectTriangle(&r, &t.triangles[node.Primitive], bestT); ok {
				bestT, bestPrim, bestU, bestV = dist, node.Primitive, u, v
				if mode == AnyHit {
					break
				}
			}
			continue
		}

		if stackSize+2 > t.stackDepth {
			res.StackOverflow = true
			t.reportOverflow()
			break
		}

		near, far := node.Left, node.Right
		if r.Direction[node.Axis] < 0 {
			near, far = far, near
		}
		stack[stackSize] = far
		stack[stackSize+1] = near
		stackSize += 2
	}

	if bestPrim != -1 {
		res.IsHit = true
		res.Hit = t.makeHit(&r, bestPrim, bestT, bestU, bestV)
	}
	return res
}

// IntersectBruteForce tests the ray against every triangle. It serves as a
// reference for validating tree queries.
func (t *Tree) IntersectBruteForce(r Ray, mode Mode) QueryResult {
	var bestU, bestV float32
	bestT, bestPrim := r.TMax, int32(-1)

	for index := range t.triangles {
		if dist, u, v, ok := intersectTriangle(&r, &t.triangles[index], bestT); ok {
			bestT, bestPrim, bestU, bestV = dist, int32(index), u, v
			if mode == AnyHit {
				break
			}
		}
	}

	if bestPrim == -1 {
		return NoHit
	}
	return QueryResult{
		IsHit: true,
		Hit:   t.makeHit(&r, bestPrim, bestT, bestU, bestV),
	}
}

func (t *Tree) makeHit(r *Ray, prim int32, dist, u, v float32) Hit {
	tri := &t.triangles[prim]
	return Hit{
		Distance:      dist,
		Point:         r.At(dist),
		Normal:        shadingNormal(tri, u, v),
		U:             u,
		V:             v,
		Primitive:     prim,
		MaterialIndex: tri.MaterialIndex,
	}
}

// Record a traversal that ran out of stack space. Only the first overflow is logged.
func (t *Tree) reportOverflow() {
	if t.overflows.Add(1) == 1 {
		t.logger.Warningf("traversal stack exhausted (capacity %d); returning best hit found so far", t.stackDepth)
	}
}
