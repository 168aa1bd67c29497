package lbvh

import (
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
)

const (
	// Triangles whose squared normal length is below this fraction of the
	// squared edge length product (sin^2 of the corner angle) have no area.
	degenerateEpsilon float32 = 1e-10

	// Rays whose direction is this close to the triangle plane are treated as parallel.
	parallelEpsilon float32 = 1e-12
)

// Intersect a ray with a triangle using the Möller–Trumbore algorithm.
// Returns the hit distance and the barycentric coordinates of the hit
// point with respect to vertices 1 and 2. Only hits in the open interval
// (r.TMin, tMax) are reported and zero-area triangles never report a hit.
func intersectTriangle(r *Ray, tri *scene.Triangle, tMax float32) (t, u, v float32, ok bool) {
	e1 := tri.Vertices[1].Sub(tri.Vertices[0])
	e2 := tri.Vertices[2].Sub(tri.Vertices[0])

	n := e1.Cross(e2)
	if n.Dot(n) <= degenerateEpsilon*e1.Dot(e1)*e2.Dot(e2) {
		return 0, 0, 0, false
	}

	pVec := r.Direction.Cross(e2)
	det := e1.Dot(pVec)
	if det > -parallelEpsilon && det < parallelEpsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	sVec := r.Origin.Sub(tri.Vertices[0])
	u = sVec.Dot(pVec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qVec := sVec.Cross(e1)
	v = r.Direction.Dot(qVec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(qVec) * invDet
	if t <= r.TMin || t >= tMax {
		return 0, 0, 0, false
	}

	return t, u, v, true
}

// Interpolate the vertex normals at barycentric coordinates (u, v). Falls
// back to the geometric normal if the vertex normals cancel out.
func shadingNormal(tri *scene.Triangle, u, v float32) types.Vec3 {
	w := 1 - u - v
	n := tri.Normals[0].Mul(w).Add(tri.Normals[1].Mul(u)).Add(tri.Normals[2].Mul(v)).Normalize()
	if n == (types.Vec3{}) {
		return tri.FaceNormal()
	}
	return n
}
