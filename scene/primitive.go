package scene

import "github.com/achilleasa/lbvh/types"

// A triangle primitive. Triangles are immutable once loaded; acceleration
// structures only keep a read-only view of them.
type Triangle struct {
	Vertices [3]types.Vec3
	Normals  [3]types.Vec3
	UVs      [3]types.Vec2

	// Index into the scene material list.
	MaterialIndex int32
}

// Create a triangle from its vertices. All vertex normals are set to the
// face normal.
func NewTriangle(v0, v1, v2 types.Vec3, materialIndex int32) Triangle {
	tri := Triangle{
		Vertices:      [3]types.Vec3{v0, v1, v2},
		MaterialIndex: materialIndex,
	}

	n := tri.FaceNormal()
	tri.Normals = [3]types.Vec3{n, n, n}
	return tri
}

// Get the triangle AABB.
func (t *Triangle) BBox() [2]types.Vec3 {
	return [2]types.Vec3{
		types.MinVec3(t.Vertices[0], types.MinVec3(t.Vertices[1], t.Vertices[2])),
		types.MaxVec3(t.Vertices[0], types.MaxVec3(t.Vertices[1], t.Vertices[2])),
	}
}

// Get the triangle centroid.
func (t *Triangle) Center() types.Vec3 {
	return t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Mul(1.0 / 3.0)
}

// Get the normalized geometric normal using counter-clockwise winding. Returns
// a zero vector for degenerate triangles.
func (t *Triangle) FaceNormal() types.Vec3 {
	return t.Vertices[1].Sub(t.Vertices[0]).Cross(t.Vertices[2].Sub(t.Vertices[0])).Normalize()
}

// Get the triangle area.
func (t *Triangle) Area() float32 {
	// area = 0.5 * len(cross(v1-v0, v2-v0))
	return 0.5 * t.Vertices[1].Sub(t.Vertices[0]).Cross(t.Vertices[2].Sub(t.Vertices[0])).Len()
}
