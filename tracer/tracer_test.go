package tracer

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/lbvh/lbvh"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCameraFrustum(t *testing.T) {
	spec := scene.DefaultCameraSpec()
	spec.FOV = 90
	camera := NewCamera(spec)
	camera.SetupProjection(1)

	tl, br := camera.Frustum[0], camera.Frustum[3]
	assert.Less(t, tl[0], float32(0))
	assert.Greater(t, tl[1], float32(0))
	assert.Greater(t, br[0], float32(0))
	assert.Less(t, br[1], float32(0))
	assert.Less(t, tl[2], float32(0))
	assert.Contains(t, camera.Frustum.String(), "TL :")

	// 90 deg FOV: the corner rays lie on the near plane at distance 1.
	assert.InDelta(t, -1.0, tl[0], 1e-4)
	assert.InDelta(t, 1.0, tl[1], 1e-4)
	assert.InDelta(t, -1.0, tl[2], 1e-4)

	center := camera.Ray(0.5, 0.5)
	assert.Equal(t, spec.Eye, center.Origin)
	assert.InDelta(t, 0.0, center.Direction[0], 1e-5)
	assert.InDelta(t, 0.0, center.Direction[1], 1e-5)
	assert.InDelta(t, -1.0, center.Direction[2], 1e-5)

	camera.InvertY = true
	camera.Update()
	assert.Less(t, camera.Frustum[0][1], float32(0))
}

// A scene with a single emissive quad covering the view of the default camera.
func lightScene() *scene.Scene {
	sc := scene.New()
	sc.Materials = append(sc.Materials, scene.Material{
		Name:     "light",
		Bxdf:     scene.BxdfEmissive,
		Emission: types.Vec3{2, 4, 8},
	})
	sc.Triangles = append(sc.Triangles,
		scene.NewTriangle(types.Vec3{-10, -10, -5}, types.Vec3{10, -10, -5}, types.Vec3{10, 10, -5}, 0),
		scene.NewTriangle(types.Vec3{-10, -10, -5}, types.Vec3{10, 10, -5}, types.Vec3{-10, 10, -5}, 0),
	)
	return sc
}

func TestNewTracerErrors(t *testing.T) {
	sc := lightScene()
	tree := lbvh.Build(sc.Triangles, lbvh.Options{})

	_, err := New(nil, tree, Options{FrameW: 4, FrameH: 4})
	assert.Equal(t, ErrSceneNotDefined, err)

	_, err = New(sc, tree, Options{FrameW: 0, FrameH: 4})
	assert.Equal(t, ErrInvalidFrameDims, err)

	tr, err := New(sc, tree, Options{FrameW: 4, FrameH: 4})
	require.NoError(t, err)
	_, err = tr.Render(context.Background())
	assert.Equal(t, ErrCameraNotDefined, err)
}

func TestRenderEmissiveScene(t *testing.T) {
	sc := lightScene()
	tree := lbvh.Build(sc.Triangles, lbvh.Options{})
	tr, err := New(sc, tree, Options{FrameW: 16, FrameH: 8, SamplesPerPixel: 4, NumBounces: 3, Workers: 3, Seed: 7})
	require.NoError(t, err)
	tr.SetCamera(NewCamera(sc.Camera))

	stats, err := tr.Render(context.Background())
	require.NoError(t, err)

	// Every primary ray hits the light and terminates.
	require.Len(t, stats.Bounces, 1)
	assert.Equal(t, uint64(16*8*4), stats.Rays)
	assert.Equal(t, stats.Rays, stats.Bounces[0].Hits)
	assert.Equal(t, stats.Rays, stats.LitPaths)
	assert.Zero(t, stats.Bounces[0].Overflows)

	for index, radiance := range tr.Frame() {
		require.InDelta(t, 2.0, radiance[0], 1e-5, "pixel %d", index)
		require.InDelta(t, 4.0, radiance[1], 1e-5, "pixel %d", index)
		require.InDelta(t, 8.0, radiance[2], 1e-5, "pixel %d", index)
	}

	table := stats.Table()
	assert.True(t, strings.Contains(table, "TOTAL"))
	assert.True(t, strings.Contains(table, "512"))
}

func TestRenderDiffuseBounces(t *testing.T) {
	// A diffuse floor below a large light; primary rays look straight down.
	sc := scene.New()
	sc.Materials = append(sc.Materials,
		scene.DefaultMaterial(),
		scene.Material{Name: "light", Bxdf: scene.BxdfEmissive, Emission: types.Vec3{1, 1, 1}},
	)
	sc.Triangles = append(sc.Triangles,
		scene.NewTriangle(types.Vec3{-1e4, 0, -1e4}, types.Vec3{-1e4, 0, 1e4}, types.Vec3{1e4, 0, 0}, 0),
		scene.NewTriangle(types.Vec3{-1e4, 10, -1e4}, types.Vec3{1e4, 10, 0}, types.Vec3{-1e4, 10, 1e4}, 1),
	)
	sc.Camera = scene.CameraSpec{Eye: types.Vec3{0, 5, 0}, Look: types.Vec3{0, 0, 0}, Up: types.Vec3{0, 0, -1}, FOV: 30}

	tree := lbvh.Build(sc.Triangles, lbvh.Options{})
	tr, err := New(sc, tree, Options{FrameW: 8, FrameH: 8, SamplesPerPixel: 2, NumBounces: 4, Seed: 3})
	require.NoError(t, err)
	tr.SetCamera(NewCamera(sc.Camera))

	stats, err := tr.Render(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(stats.Bounces), 2)

	// Primary rays hit the floor; the bounced rays hit the light.
	assert.Equal(t, uint64(128), stats.Bounces[0].Rays)
	assert.Equal(t, uint64(128), stats.Bounces[0].Hits)
	assert.Zero(t, stats.Bounces[0].Emissive)
	assert.Equal(t, uint64(128), stats.Bounces[1].Emissive)

	for _, radiance := range tr.Frame() {
		assert.InDelta(t, scene.DefaultReflectance[0], radiance[0], 1e-5)
	}
}

func TestRenderInterrupted(t *testing.T) {
	sc := lightScene()
	tree := lbvh.Build(sc.Triangles, lbvh.Options{})
	tr, err := New(sc, tree, Options{FrameW: 4, FrameH: 4})
	require.NoError(t, err)
	tr.SetCamera(NewCamera(sc.Camera))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Render(ctx)
	assert.Equal(t, ErrInterrupted, err)
}

func TestTraceBatch(t *testing.T) {
	sc := lightScene()
	tree := lbvh.Build(sc.Triangles, lbvh.Options{})
	tr, err := New(sc, tree, Options{FrameW: 1, FrameH: 1, Workers: 4})
	require.NoError(t, err)

	rays := make([]lbvh.Ray, 100)
	for index := range rays {
		dz := float32(-1)
		if index%2 == 1 {
			dz = 1
		}
		rays[index] = lbvh.NewRay(types.Vec3{float32(index%10) - 5, 0, 0}, types.Vec3{0, 0, dz})
	}

	for _, mode := range []lbvh.Mode{lbvh.ClosestHit, lbvh.AnyHit} {
		results := tr.Trace(rays, mode)
		require.Len(t, results, len(rays))
		for index, res := range results {
			assert.Equal(t, index%2 == 0, res.IsHit, "ray %d", index)
			assert.Equal(t, tree.Intersect(rays[index], mode), res)
		}
	}
}

func TestTonemapSimpleReinhard(t *testing.T) {
	frame := []types.Vec3{
		{0, 0, 0},
		{-1, 0.25, 1},
		{1, 4, 1000},
	}
	img := TonemapSimpleReinhard(frame, 3, 1, 1)
	require.Equal(t, 3, img.Bounds().Dx())
	require.Equal(t, 1, img.Bounds().Dy())

	black := img.RGBAAt(0, 0)
	assert.Equal(t, uint8(0), black.R)
	assert.Equal(t, uint8(255), black.A)

	// Negative radiance clamps to zero; brighter input never maps darker.
	mid := img.RGBAAt(1, 0)
	assert.Equal(t, uint8(0), mid.R)
	assert.True(t, mid.G < mid.B, "expected G < B; got %d, %d", mid.G, mid.B)

	bright := img.RGBAAt(2, 0)
	assert.True(t, bright.R < bright.G && bright.G <= bright.B)
	assert.True(t, bright.B >= 250, "expected near-white blue channel; got %d", bright.B)
}

func TestSaveFrame(t *testing.T) {
	sc := lightScene()
	tree := lbvh.Build(sc.Triangles, lbvh.Options{})
	tr, err := New(sc, tree, Options{FrameW: 8, FrameH: 4})
	require.NoError(t, err)
	tr.SetCamera(NewCamera(sc.Camera))
	_, err = tr.Render(context.Background())
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, tr.SaveFrame(filename, 1))

	f, err := os.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}
