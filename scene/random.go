package scene

import (
	"math/rand/v2"

	"github.com/achilleasa/lbvh/types"
)

// Generate count triangles whose centers are uniformly distributed inside
// bounds. Each vertex is displaced from the center by at most maxSize along
// every axis. All triangles reference material 0.
func RandomTriangles(rng *rand.Rand, count int, bounds [2]types.Vec3, maxSize float32) []Triangle {
	extent := bounds[1].Sub(bounds[0])
	randomPoint := func() types.Vec3 {
		return types.Vec3{
			bounds[0][0] + rng.Float32()*extent[0],
			bounds[0][1] + rng.Float32()*extent[1],
			bounds[0][2] + rng.Float32()*extent[2],
		}
	}
	displace := func(center types.Vec3) types.Vec3 {
		return types.Vec3{
			center[0] + (2*rng.Float32()-1)*maxSize,
			center[1] + (2*rng.Float32()-1)*maxSize,
			center[2] + (2*rng.Float32()-1)*maxSize,
		}
	}

	triangles := make([]Triangle, count)
	for index := range triangles {
		center := randomPoint()
		triangles[index] = NewTriangle(displace(center), displace(center), displace(center), 0)
	}
	return triangles
}

// Generate a uniformly distributed unit-length direction.
func RandomDirection(rng *rand.Rand) types.Vec3 {
	for {
		dir := types.Vec3{
			2*rng.Float32() - 1,
			2*rng.Float32() - 1,
			2*rng.Float32() - 1,
		}
		if lenSq := dir.Dot(dir); lenSq > 1e-4 && lenSq <= 1 {
			return dir.Normalize()
		}
	}
}
