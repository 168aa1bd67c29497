package lbvh

import (
	"github.com/achilleasa/lbvh/types"
	"github.com/chewxy/math32"
)

// The minimum hit distance for rays created by NewRay. It prevents secondary
// rays from re-intersecting the surface they originate from.
const DefaultTMin float32 = 1e-5

// A ray with a precomputed inverse direction for slab tests. Valid hits
// satisfy TMin < t < TMax.
type Ray struct {
	Origin       types.Vec3
	Direction    types.Vec3
	InvDirection types.Vec3

	TMin float32
	TMax float32
}

// Create an unbounded ray. The direction does not need to be normalized; hit
// distances are expressed in multiples of its length.
func NewRay(origin, dir types.Vec3) Ray {
	return Ray{
		Origin:       origin,
		Direction:    dir,
		InvDirection: dir.Inv(),
		TMin:         DefaultTMin,
		TMax:         math32.Inf(1),
	}
}

// Create a ray whose hits are limited to distances below tMax. Typically used
// for shadow rays towards a point at a known distance.
func NewSegment(origin, dir types.Vec3, tMax float32) Ray {
	r := NewRay(origin, dir)
	r.TMax = tMax
	return r
}

// Update the ray direction and its inverse.
func (r *Ray) SetDirection(dir types.Vec3) {
	r.Direction = dir
	r.InvDirection = dir.Inv()
}

// Get the point at distance t along the ray.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
