package lbvh

import (
	"math"

	"github.com/achilleasa/lbvh/types"
)

// AABB is an axis-aligned bounding box. Degenerate boxes are represented by
// Min == Max along one or more axes; Min is never greater than Max.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an AABB from a [min, max] pair.
func NewAABB(bbox [2]types.Vec3) AABB {
	return AABB{Min: bbox[0], Max: bbox[1]}
}

// Create an AABB enclosing all supplied points. Returns a zero box if no
// points are specified.
func AABBFromPoints(points ...types.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = types.MinVec3(box.Min, p)
		box.Max = types.MaxVec3(box.Max, p)
	}
	return box
}

// Get the union of two boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}

// Get the box size along each axis.
func (b AABB) Extent() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Get the box center.
func (b AABB) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Returns true if other lies completely inside this box.
func (b AABB) Contains(other AABB) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis] || other.Max[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Returns true if point p lies inside or on the surface of the box.
func (b AABB) ContainsPoint(p types.Vec3) bool {
	return b.Contains(AABB{Min: p, Max: p})
}

// Get the box surface area.
func (b AABB) SurfaceArea() float32 {
	side := b.Extent()
	return 2 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// IntersectRay clips the [tMin, tMax] interval against the box slabs and
// returns the entry distance if the clipped interval is not empty.
//
// The ray inverse direction contains infinities for zero direction components.
// If the ray origin lies exactly on a slab plane the product evaluates to NaN;
// NaN comparisons are always false so the slab leaves the interval untouched.
func (b AABB) IntersectRay(r *Ray, tMin, tMax float32) (float32, bool) {
	for axis := 0; axis < 3; axis++ {
		t0 := (b.Min[axis] - r.Origin[axis]) * r.InvDirection[axis]
		t1 := (b.Max[axis] - r.Origin[axis]) * r.InvDirection[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

// An empty box used as the identity element when accumulating unions.
func emptyAABB() AABB {
	return AABB{
		Min: types.Splat3(math.MaxFloat32),
		Max: types.Splat3(-math.MaxFloat32),
	}
}
