// Package tracer drives batches of ray queries against an LBVH. It generates
// camera paths, traces them through the scene and uses the shading package
// to extend them bounce by bounce.
package tracer

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/achilleasa/lbvh/lbvh"
	"github.com/achilleasa/lbvh/log"
	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/shading"
	"github.com/achilleasa/lbvh/types"
)

type Tracer struct {
	logger log.Logger

	scene  *scene.Scene
	tree   *lbvh.Tree
	camera *Camera
	opts   Options

	// Path segments for the current frame and the indices of the
	// segments that are still active.
	paths  []shading.PathSegment
	active []int32

	// Averaged radiance per pixel.
	frame []types.Vec3

	stats FrameStats
}

// Create a tracer for a scene and the tree built over its triangles.
func New(sc *scene.Scene, tree *lbvh.Tree, opts Options) (*Tracer, error) {
	if sc == nil || tree == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, ErrInvalidFrameDims
	}
	opts.setDefaults()

	return &Tracer{
		logger: log.New("tracer"),
		scene:  sc,
		tree:   tree,
		opts:   opts,
		frame:  make([]types.Vec3, opts.FrameW*opts.FrameH),
	}, nil
}

// Set the camera used for generating primary rays. The camera projection is
// updated to match the frame aspect ratio.
func (tr *Tracer) SetCamera(camera *Camera) {
	if camera != nil {
		camera.SetupProjection(float32(tr.opts.FrameW) / float32(tr.opts.FrameH))
	}
	tr.camera = camera
}

// Get the averaged radiance for each pixel of the last rendered frame in
// row-major order.
func (tr *Tracer) Frame() []types.Vec3 {
	return tr.frame
}

// Get the statistics for the last rendered frame.
func (tr *Tracer) Stats() FrameStats {
	return tr.stats
}

// Trace a batch of rays and return the query result for each one.
func (tr *Tracer) Trace(rays []lbvh.Ray, mode lbvh.Mode) []lbvh.QueryResult {
	results := make([]lbvh.QueryResult, len(rays))
	parallel.For(len(rays), tr.opts.Workers, func(start, end int) {
		for index := start; index < end; index++ {
			results[index] = tr.tree.Intersect(rays[index], mode)
		}
	})
	return results
}

// Render a frame. Each pixel receives SamplesPerPixel jittered camera paths
// which are extended for up to NumBounces bounces. The context is checked
// between bounces.
func (tr *Tracer) Render(ctx context.Context) (FrameStats, error) {
	if tr.camera == nil {
		return FrameStats{}, ErrCameraNotDefined
	}

	start := time.Now()
	tr.stats = FrameStats{
		Bounces: make([]BounceStats, 0, tr.opts.NumBounces),
	}
	tr.generatePaths()

	for bounce := uint32(0); bounce < tr.opts.NumBounces && len(tr.active) > 0; bounce++ {
		if err := ctx.Err(); err != nil {
			tr.logger.Noticef("frame interrupted at bounce %d: %v", bounce, err)
			return tr.stats, ErrInterrupted
		}

		bounceStats := tr.bounce(bounce)
		tr.stats.Bounces = append(tr.stats.Bounces, bounceStats)
		tr.stats.Rays += bounceStats.Rays
		tr.stats.LitPaths += bounceStats.Emissive
		tr.compactPaths()
	}

	tr.accumulate()
	tr.stats.RenderTime = time.Since(start)
	tr.logger.Infof("rendered %dx%d frame (%d spp) in %d ms", tr.opts.FrameW, tr.opts.FrameH, tr.opts.SamplesPerPixel, tr.stats.RenderTime.Nanoseconds()/1e6)
	return tr.stats, nil
}

// Seed the random number generator for the block starting at blockStart.
func (tr *Tracer) blockRNG(bounce uint32, blockStart int) *rand.Rand {
	return rand.New(rand.NewPCG(tr.opts.Seed, uint64(bounce)<<40|uint64(blockStart)))
}

// Generate the primary path segments. Samples for the same pixel are
// stored next to each other.
func (tr *Tracer) generatePaths() {
	spp := int(tr.opts.SamplesPerPixel)
	frameW, frameH := int(tr.opts.FrameW), int(tr.opts.FrameH)
	numPaths := frameW * frameH * spp

	if cap(tr.paths) < numPaths {
		tr.paths = make([]shading.PathSegment, numPaths)
		tr.active = make([]int32, numPaths)
	}
	tr.paths = tr.paths[:numPaths]
	tr.active = tr.active[:numPaths]

	parallel.For(numPaths, tr.opts.Workers, func(start, end int) {
		rng := tr.blockRNG(0, start)
		for index := start; index < end; index++ {
			pixel := index / spp
			x, y := pixel%frameW, pixel/frameW
			u := (float32(x) + rng.Float32()) / float32(frameW)
			v := (float32(y) + rng.Float32()) / float32(frameH)

			tr.paths[index] = shading.PathSegment{
				Ray:              tr.camera.Ray(u, v),
				Throughput:       types.Vec3{1, 1, 1},
				PixelIndex:       pixel,
				RemainingBounces: int(tr.opts.NumBounces),
			}
			tr.active[index] = int32(index)
		}
	})
}

// Intersect all active segments with the scene and scatter the ones that hit
// a surface. Segments that escape the scene are terminated.
func (tr *Tracer) bounce(bounce uint32) BounceStats {
	var hits, emissive, overflows atomic.Uint64
	start := time.Now()

	parallel.For(len(tr.active), tr.opts.Workers, func(blockStart, blockEnd int) {
		rng := tr.blockRNG(bounce+1, blockStart)
		var blockHits, blockEmissive, blockOverflows uint64
		for _, pathIndex := range tr.active[blockStart:blockEnd] {
			seg := &tr.paths[pathIndex]
			res := tr.tree.Intersect(seg.Ray, tr.opts.Mode)
			if res.StackOverflow {
				blockOverflows++
			}
			if !res.IsHit {
				seg.Terminate()
				continue
			}

			blockHits++
			mat := tr.scene.Material(res.Hit.MaterialIndex)
			if mat.Bxdf == scene.BxdfEmissive {
				blockEmissive++
			}
			shading.Scatter(seg, &res.Hit, &mat, rng)
		}
		hits.Add(blockHits)
		emissive.Add(blockEmissive)
		overflows.Add(blockOverflows)
	})

	return BounceStats{
		Rays:      uint64(len(tr.active)),
		Hits:      hits.Load(),
		Emissive:  emissive.Load(),
		Overflows: overflows.Load(),
		Time:      time.Since(start),
	}
}

// Drop terminated segments from the active list.
func (tr *Tracer) compactPaths() {
	live := tr.active[:0]
	for _, pathIndex := range tr.active {
		if tr.paths[pathIndex].Active() {
			live = append(live, pathIndex)
		}
	}
	tr.active = live
}

// Average the radiance of each pixel's paths into the frame buffer.
func (tr *Tracer) accumulate() {
	spp := int(tr.opts.SamplesPerPixel)
	scale := 1.0 / float32(spp)
	parallel.For(len(tr.frame), tr.opts.Workers, func(start, end int) {
		for pixel := start; pixel < end; pixel++ {
			var sum types.Vec3
			for _, seg := range tr.paths[pixel*spp : (pixel+1)*spp] {
				sum = sum.Add(seg.Radiance)
			}
			tr.frame[pixel] = sum.Mul(scale)
		}
	})
}
