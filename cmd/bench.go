package cmd

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/achilleasa/lbvh/lbvh"
	"github.com/achilleasa/lbvh/parallel"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Relative tolerance when comparing tree and brute-force hit distances.
const benchDistanceTolerance = 1e-4

// Timing and correctness results for one query method.
type benchResult struct {
	method     string
	buildTime  time.Duration
	queryTime  time.Duration
	hits       int
	mismatches uint64
}

// Benchmark LBVH and SAH BVH queries against brute-force intersection on a
// random scene.
func Bench(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	numTriangles := ctx.Int("triangles")
	numRays := ctx.Int("rays")
	if numTriangles <= 0 || numRays <= 0 {
		return fmt.Errorf("triangle and ray counts must be positive; got %d and %d", numTriangles, numRays)
	}

	seed := uint64(ctx.Int64("seed"))
	rng := rand.New(rand.NewPCG(seed, seed^0x5DEECE66D))
	bounds := [2]types.Vec3{types.Splat3(-50), types.Splat3(50)}

	logger.Noticef("generating %d random triangles and %d random rays", numTriangles, numRays)
	triangles := scene.RandomTriangles(rng, numTriangles, bounds, float32(ctx.Float64("max-size")))
	rays := make([]lbvh.Ray, numRays)
	for index := range rays {
		origin := types.Vec3{
			bounds[0][0] + rng.Float32()*(bounds[1][0]-bounds[0][0]),
			bounds[0][1] + rng.Float32()*(bounds[1][1]-bounds[0][1]),
			bounds[0][2] + rng.Float32()*(bounds[1][2]-bounds[0][2]),
		}
		rays[index] = lbvh.NewRay(origin, scene.RandomDirection(rng))
	}

	opts := lbvh.Options{Workers: workers(ctx)}
	var (
		trees   []*lbvh.Tree
		results []benchResult
	)
	for _, builder := range []lbvh.Builder{lbvh.MortonBuilder, lbvh.SAHBuilder} {
		tree := lbvh.BuildWith(builder, triangles, opts)
		logger.Infof("%s tree information:\n%s", builder, tree.Stats())
		trees = append(trees, tree)
		results = append(results, benchResult{method: builder.String(), buildTime: tree.BuildStats().TotalTime})
	}

	// The brute-force pass is the reference for every tree.
	expected := make([]lbvh.QueryResult, numRays)
	start := time.Now()
	parallel.For(numRays, opts.Workers, func(from, to int) {
		for index := from; index < to; index++ {
			expected[index] = trees[0].IntersectBruteForce(rays[index], lbvh.ClosestHit)
		}
	})
	reference := benchResult{method: "brute force", queryTime: time.Since(start), hits: countHits(expected)}

	var totalMismatches uint64
	for treeIndex, tree := range trees {
		res := &results[treeIndex]
		got := make([]lbvh.QueryResult, numRays)
		start = time.Now()
		parallel.For(numRays, opts.Workers, func(from, to int) {
			for index := from; index < to; index++ {
				got[index] = tree.Intersect(rays[index], lbvh.ClosestHit)
			}
		})
		res.queryTime = time.Since(start)
		res.hits = countHits(got)

		var mismatches atomic.Uint64
		parallel.For(numRays, opts.Workers, func(from, to int) {
			for index := from; index < to; index++ {
				if !sameHit(expected[index], got[index]) {
					mismatches.Add(1)
					logger.Debugf("[%s] ray %d mismatch: expected %+v; got %+v", res.method, index, expected[index], got[index])
				}
			}
		})
		res.mismatches = mismatches.Load()
		totalMismatches += res.mismatches
	}
	results = append(results, reference)

	logger.Noticef("benchmark results\n%s", benchTable(results, numRays))

	if totalMismatches > 0 {
		return cli.NewExitError(fmt.Sprintf("%d tree queries did not match the brute-force reference", totalMismatches), 1)
	}
	return nil
}

// Render benchmark results as a table.
func benchTable(results []benchResult, numRays int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Method", "Build", "Rays", "Hits", "Query time", "Rays/sec", "Mismatches"})

	var totalMismatches uint64
	for _, res := range results {
		build := "-"
		if res.buildTime > 0 {
			build = res.buildTime.String()
		}
		table.Append([]string{
			res.method,
			build,
			fmt.Sprintf("%d", numRays),
			fmt.Sprintf("%d", res.hits),
			res.queryTime.String(),
			raysPerSec(numRays, res.queryTime),
			fmt.Sprintf("%d", res.mismatches),
		})
		totalMismatches += res.mismatches
	}
	table.SetFooter([]string{"", "", "", "", "", "TOTAL", fmt.Sprintf("%d", totalMismatches)})
	table.Render()
	return buf.String()
}

// Returns true if two closest-hit results report the same intersection.
func sameHit(exp, got lbvh.QueryResult) bool {
	if exp.IsHit != got.IsHit || got.StackOverflow {
		return false
	}
	if !exp.IsHit {
		return true
	}
	diff := math32.Abs(exp.Hit.Distance - got.Hit.Distance)
	return diff <= benchDistanceTolerance*max(1, exp.Hit.Distance)
}

func countHits(results []lbvh.QueryResult) int {
	hits := 0
	for _, res := range results {
		if res.IsHit {
			hits++
		}
	}
	return hits
}

func raysPerSec(rays int, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", float64(rays)/elapsed.Seconds())
}
