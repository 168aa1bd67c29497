package lbvh

import (
	"bytes"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/achilleasa/lbvh/log"
	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
	"github.com/olekukonko/tablewriter"
)

// A tree node. Internal nodes occupy the first n-1 slots of the node list
// and leaves the remaining n slots. Leaves store the index of their triangle
// in Primitive while internal nodes set it to -1.
type Node struct {
	Box AABB

	Left   int32
	Right  int32
	Parent int32

	Primitive int32

	// The axis encoded by the Morton bit that separates the two children;
	// the left child lies on the lower side of the split.
	Axis uint8
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Primitive >= 0
}

// Options for tuning tree construction and traversal.
type Options struct {
	// Number of workers for the parallel construction phases. Values <= 0
	// select runtime.GOMAXPROCS(0).
	Workers int

	// Traversal stack capacity. Values <= 0 or above MaxStackDepth select
	// MaxStackDepth.
	StackDepth int
}

// Builder selects the hierarchy construction algorithm.
type Builder uint8

const (
	// Bottom-up radix tree over sorted Morton codes.
	MortonBuilder Builder = iota

	// Top-down binned surface area heuristic partitioning.
	SAHBuilder
)

func (b Builder) String() string {
	switch b {
	case MortonBuilder:
		return "lbvh"
	case SAHBuilder:
		return "sah"
	}
	return "unknown"
}

// Parse a builder name as returned by Builder.String.
func ParseBuilder(name string) (Builder, error) {
	switch strings.ToLower(name) {
	case "lbvh":
		return MortonBuilder, nil
	case "sah":
		return SAHBuilder, nil
	}
	return 0, fmt.Errorf("lbvh: unknown builder %q", name)
}

// Timings for each construction phase. The SAH builder has no encode, sort
// or propagate phases; it reports its top-down partitioning as the hierarchy
// phase.
type BuildStats struct {
	Builder Builder
	Workers int

	BoundsTime    time.Duration
	EncodeTime    time.Duration
	SortTime      time.Duration
	HierarchyTime time.Duration
	PropagateTime time.Duration
	TotalTime     time.Duration
}

// Tree is a linear BVH over a list of triangles. The tree keeps a read-only
// reference to the triangle list which must not be modified while the tree
// is in use.
type Tree struct {
	logger log.Logger

	triangles []scene.Triangle

	// Nodes are stored as a contiguous list; node 0 is the root.
	nodes []Node

	// The box enclosing all triangle centroids.
	centroidBounds AABB

	stackDepth int
	overflows  atomic.Uint64
	stats      BuildStats
}

// Build a tree for the given triangles.
//
// Construction runs in four phases separated by barriers: Morton code
// generation for the triangle centroids, key sorting, parallel radix tree
// construction and bottom-up bounding box propagation. An empty triangle list
// produces an empty tree whose queries never report a hit.
func Build(triangles []scene.Triangle, opts Options) *Tree {
	t := newTree(triangles, opts, MortonBuilder)
	n := len(triangles)
	if n == 0 {
		t.logger.Debug("skipping tree construction for empty triangle list")
		return t
	}
	workers := t.stats.Workers

	start := time.Now()
	phaseStart := start
	primBoxes, centroids := primitiveBounds(triangles, workers)
	t.centroidBounds = mergeBounds(centroids, workers)
	t.stats.BoundsTime = time.Since(phaseStart)

	phaseStart = time.Now()
	keys := make([]uint64, n)
	encodeMortonKeys(centroids, t.centroidBounds, keys, workers)
	t.stats.EncodeTime = time.Since(phaseStart)

	phaseStart = time.Now()
	sortKeys(keys, workers)
	t.stats.SortTime = time.Since(phaseStart)

	phaseStart = time.Now()
	t.nodes = make([]Node, 2*n-1)
	initLeaves(t.nodes, keys, workers)
	buildHierarchy(t.nodes, keys, workers)
	t.stats.HierarchyTime = time.Since(phaseStart)

	phaseStart = time.Now()
	propagateBounds(t.nodes, primBoxes, workers)
	t.stats.PropagateTime = time.Since(phaseStart)
	t.stats.TotalTime = time.Since(start)

	t.logger.Debugf(
		"LBVH build time: %d ms (bounds: %d ms, encode: %d ms, sort: %d ms, hierarchy: %d ms, propagate: %d ms), triangles: %d, workers: %d",
		t.stats.TotalTime.Nanoseconds()/1e6,
		t.stats.BoundsTime.Nanoseconds()/1e6,
		t.stats.EncodeTime.Nanoseconds()/1e6,
		t.stats.SortTime.Nanoseconds()/1e6,
		t.stats.HierarchyTime.Nanoseconds()/1e6,
		t.stats.PropagateTime.Nanoseconds()/1e6,
		n, workers,
	)
	return t
}

// Build a tree using the given construction algorithm.
func BuildWith(builder Builder, triangles []scene.Triangle, opts Options) *Tree {
	if builder == SAHBuilder {
		return BuildSAH(triangles, opts)
	}
	return Build(triangles, opts)
}

func newTree(triangles []scene.Triangle, opts Options, builder Builder) *Tree {
	t := &Tree{
		logger:     log.New("lbvh"),
		triangles:  triangles,
		stackDepth: opts.StackDepth,
		stats: BuildStats{
			Builder: builder,
			Workers: parallel.Workers(opts.Workers),
		},
	}
	if t.stackDepth <= 0 || t.stackDepth > MaxStackDepth {
		t.stackDepth = MaxStackDepth
	}
	return t
}

// Calculate the box and vertex centroid of every triangle. The centroid is
// the vertex average, not the box center.
func primitiveBounds(triangles []scene.Triangle, workers int) ([]AABB, []types.Vec3) {
	boxes := make([]AABB, len(triangles))
	centroids := make([]types.Vec3, len(triangles))
	parallel.For(len(triangles), workers, func(start, end int) {
		for index := start; index < end; index++ {
			boxes[index] = NewAABB(triangles[index].BBox())
			centroids[index] = triangles[index].Center()
		}
	})
	return boxes, centroids
}

// Calculate the box enclosing a non-empty list of points.
func mergeBounds(points []types.Vec3, workers int) AABB {
	blocks := parallel.Blocks(len(points), workers)
	partial := make([]AABB, len(blocks))
	parallel.For(len(blocks), len(blocks), func(start, end int) {
		for index := start; index < end; index++ {
			partial[index] = AABBFromPoints(points[blocks[index].Start:blocks[index].End]...)
		}
	})

	bounds := emptyAABB()
	for _, box := range partial {
		bounds = bounds.Union(box)
	}
	return bounds
}

// Get the tree nodes. The returned slice must be treated as read-only.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Get the triangles indexed by the tree.
func (t *Tree) Triangles() []scene.Triangle {
	return t.triangles
}

// Get the number of leaves.
func (t *Tree) LeafCount() int {
	return len(t.triangles)
}

// Returns true if the tree contains no triangles.
func (t *Tree) IsEmpty() bool {
	return len(t.nodes) == 0
}

// Get the box enclosing all triangles. Returns a zero box for empty trees.
func (t *Tree) Bounds() AABB {
	if len(t.nodes) == 0 {
		return AABB{}
	}
	return t.nodes[0].Box
}

// Get the box enclosing all triangle centroids that was used for Morton
// code generation.
func (t *Tree) CentroidBounds() AABB {
	return t.centroidBounds
}

// Get construction phase timings.
func (t *Tree) BuildStats() BuildStats {
	return t.stats
}

// Get the number of queries that ran out of traversal stack space.
func (t *Tree) Overflows() uint64 {
	return t.overflows.Load()
}

// Get the length of the longest root to leaf path. A tree with a single leaf
// has depth 0 and an empty tree has depth -1.
func (t *Tree) Depth() int {
	if len(t.nodes) == 0 {
		return -1
	}

	type entry struct {
		node  int32
		depth int
	}

	maxDepth := 0
	pending := []entry{{0, 0}}
	for len(pending) > 0 {
		e := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		node := &t.nodes[e.node]
		if node.IsLeaf() {
			if e.depth > maxDepth {
				maxDepth = e.depth
			}
			continue
		}
		pending = append(pending, entry{node.Left, e.depth + 1}, entry{node.Right, e.depth + 1})
	}
	return maxDepth
}

// Build a tabular representation of tree statistics.
func (t *Tree) Stats() string {
	var buf bytes.Buffer
	leaves := len(t.triangles)
	internal := 0
	if leaves > 0 {
		internal = leaves - 1
	}
	bounds := t.Bounds()
	fmtMs := func(d time.Duration) string {
		return fmt.Sprintf("%.2f ms", float64(d.Nanoseconds())/1e6)
	}

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"Builder", t.stats.Builder.String()})
	table.Append([]string{"Leaves", fmt.Sprintf("%d", leaves)})
	table.Append([]string{"Internal nodes", fmt.Sprintf("%d", internal)})
	table.Append([]string{"Depth", fmt.Sprintf("%d", t.Depth())})
	table.Append([]string{"Node memory", scene.FmtSize(t.nodes)})
	table.Append([]string{"Bounds", fmt.Sprintf("%v - %v", bounds.Min, bounds.Max)})
	table.Append([]string{"Workers", fmt.Sprintf("%d", t.stats.Workers)})
	table.Append([]string{"Bounds phase", fmtMs(t.stats.BoundsTime)})
	table.Append([]string{"Encode phase", fmtMs(t.stats.EncodeTime)})
	table.Append([]string{"Sort phase", fmtMs(t.stats.SortTime)})
	table.Append([]string{"Hierarchy phase", fmtMs(t.stats.HierarchyTime)})
	table.Append([]string{"Propagate phase", fmtMs(t.stats.PropagateTime)})
	table.SetFooter([]string{"Build time", fmtMs(t.stats.TotalTime)})

	table.Render()
	return buf.String()
}
