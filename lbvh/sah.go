package lbvh

import (
	"math"
	"slices"
	"time"

	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
)

const (
	// Number of centroid buckets evaluated per axis.
	sahBins = 32

	// Nodes with fewer items than this score their split axes inline instead
	// of fanning out one goroutine per axis.
	sahParallelThreshold = 4096

	// Axes whose centroid extent is below this threshold are not binned.
	sahMinExtent float32 = 1e-6
)

// A candidate split: items whose centroid falls into a bin <= bin go to the
// left child.
type splitScore struct {
	axis uint8
	bin  int

	leftCount int
	score     float32
}

// Centroid binning parameters for a node.
type binning struct {
	min   types.Vec3
	scale types.Vec3
}

// Get the bin index of a centroid along an axis.
func (bn *binning) bin(c types.Vec3, axis uint8) int {
	b := int((c[axis] - bn.min[axis]) * bn.scale[axis])
	return min(max(b, 0), sahBins-1)
}

type sahBuilder struct {
	nodes     []Node
	boxes     []AABB
	centroids []types.Vec3

	// Internal nodes are allocated from the front of the node list and
	// leaves from the [n-1, 2n-2] region.
	nextInternal int32
	nextLeaf     int32

	// A channel for receiving per-axis score results.
	scoreChan chan splitScore

	maxDepth      int
	fallbackSplit int
}

// BuildSAH builds a tree by recursive top-down partitioning using a binned
// surface area heuristic. It produces the same node layout as Build, one
// triangle per leaf, so both trees share the traversal code.
//
// Split candidates along each axis are scored as
// leftCount * left box area + rightCount * right box area
// and the lowest score wins. When no candidate separates the items (all
// centroids fall into one bin) the items are split at the median of the
// axis with the largest centroid extent.
func BuildSAH(triangles []scene.Triangle, opts Options) *Tree {
	t := newTree(triangles, opts, SAHBuilder)
	n := len(triangles)
	if n == 0 {
		t.logger.Debug("skipping tree construction for empty triangle list")
		return t
	}

	start := time.Now()
	boxes, centroids := primitiveBounds(triangles, t.stats.Workers)
	t.centroidBounds = mergeBounds(centroids, t.stats.Workers)
	t.stats.BoundsTime = time.Since(start)

	phaseStart := time.Now()
	b := &sahBuilder{
		nodes:     make([]Node, 2*n-1),
		boxes:     boxes,
		centroids: centroids,
		nextLeaf:  int32(n - 1),
		scoreChan: make(chan splitScore),
	}
	items := make([]int32, n)
	for index := range items {
		items[index] = int32(index)
	}
	b.partition(items, -1, 0)
	t.nodes = b.nodes
	t.stats.HierarchyTime = time.Since(phaseStart)
	t.stats.TotalTime = time.Since(start)

	t.logger.Debugf(
		"SAH build time: %d ms, maxDepth: %d, median splits: %d, triangles: %d",
		t.stats.TotalTime.Nanoseconds()/1e6,
		b.maxDepth, b.fallbackSplit, n,
	)
	return t
}

// Partition items and return the index of the node that covers them.
func (b *sahBuilder) partition(items []int32, parent int32, depth int) int32 {
	if depth > b.maxDepth {
		b.maxDepth = depth
	}

	if len(items) == 1 {
		index := b.nextLeaf
		b.nextLeaf++
		b.nodes[index] = Node{
			Box:       b.boxes[items[0]],
			Left:      -1,
			Right:     -1,
			Parent:    parent,
			Primitive: items[0],
		}
		return index
	}

	index := b.nextInternal
	b.nextInternal++

	axis, mid := b.split(items)
	left := b.partition(items[:mid], index, depth+1)
	right := b.partition(items[mid:], index, depth+1)

	b.nodes[index] = Node{
		Box:       b.nodes[left].Box.Union(b.nodes[right].Box),
		Left:      left,
		Right:     right,
		Parent:    parent,
		Primitive: -1,
		Axis:      axis,
	}
	return index
}

// Reorder items so that the left child items come first. Returns the split
// axis and the number of left items which is always in [1, len(items)-1].
func (b *sahBuilder) split(items []int32) (uint8, int) {
	bounds := emptyAABB()
	for _, item := range items {
		bounds = bounds.Union(AABB{Min: b.centroids[item], Max: b.centroids[item]})
	}
	extent := bounds.Extent()

	bn := binning{min: bounds.Min}
	for axis := 0; axis < 3; axis++ {
		if extent[axis] > sahMinExtent {
			bn.scale[axis] = sahBins / extent[axis]
		}
	}

	best := splitScore{score: math.MaxFloat32}
	consider := func(candidate splitScore) {
		// Ties are resolved by axis so the result does not depend on the
		// order in which scores arrive.
		if candidate.leftCount == 0 {
			return
		}
		if best.leftCount == 0 || candidate.score < best.score || (candidate.score == best.score && candidate.axis < best.axis) {
			best = candidate
		}
	}

	if len(items) < sahParallelThreshold {
		for axis := uint8(0); axis < 3; axis++ {
			if bn.scale[axis] > 0 {
				consider(b.scoreAxis(items, &bn, axis))
			}
		}
	} else {
		// Run axis split tests in parallel
		pendingScores := 0
		for axis := uint8(0); axis < 3; axis++ {
			if bn.scale[axis] == 0 {
				continue
			}
			pendingScores++
			go func(axis uint8) {
				b.scoreChan <- b.scoreAxis(items, &bn, axis)
			}(axis)
		}
		for ; pendingScores > 0; pendingScores-- {
			consider(<-b.scoreChan)
		}
	}

	if best.leftCount == 0 {
		b.fallbackSplit++
		axis := uint8(extent.MaxAxis())
		slices.SortFunc(items, func(i, j int32) int {
			ci, cj := b.centroids[i][axis], b.centroids[j][axis]
			switch {
			case ci < cj:
				return -1
			case ci > cj:
				return 1
			}
			return int(i - j)
		})
		return axis, len(items) / 2
	}

	// Split work list in place
	mid := 0
	for index, item := range items {
		if bn.bin(b.centroids[item], best.axis) <= best.bin {
			items[mid], items[index] = items[index], items[mid]
			mid++
		}
	}
	return best.axis, mid
}

// Bin items by centroid along axis and return the lowest scoring split
// between adjacent bins. The returned score has a zero leftCount if no split
// leaves items on both sides.
func (b *sahBuilder) scoreAxis(items []int32, bn *binning, axis uint8) splitScore {
	var (
		counts    [sahBins]int
		bins      [sahBins]AABB
		rightArea [sahBins]float32
	)
	for index := range bins {
		bins[index] = emptyAABB()
	}
	for _, item := range items {
		bin := bn.bin(b.centroids[item], axis)
		counts[bin]++
		bins[bin] = bins[bin].Union(b.boxes[item])
	}

	// Sweep from the right to collect the area of every suffix.
	rightBox := emptyAABB()
	for bin := sahBins - 1; bin > 0; bin-- {
		rightBox = rightBox.Union(bins[bin])
		rightArea[bin] = rightBox.SurfaceArea()
	}

	best := splitScore{axis: axis, score: math.MaxFloat32}
	leftBox := emptyAABB()
	leftCount := 0
	for bin := 0; bin < sahBins-1; bin++ {
		leftBox = leftBox.Union(bins[bin])
		leftCount += counts[bin]
		rightCount := len(items) - leftCount

		// Make sure that we don't generate empty partitions
		if leftCount == 0 || rightCount == 0 {
			continue
		}

		score := float32(leftCount)*leftBox.SurfaceArea() + float32(rightCount)*rightArea[bin+1]
		if score < best.score {
			best.bin = bin
			best.leftCount = leftCount
			best.score = score
		}
	}
	return best
}
