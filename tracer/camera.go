package tracer

import (
	"fmt"

	"github.com/achilleasa/lbvh/lbvh"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	nearPlane float32 = 1
	farPlane  float32 = 1000
)

// Stores the ray directions at the four corners of the camera frustum. Per
// pixel rays are generated by interpolating the corner rays.
type Frustum [4]types.Vec4

func (fr Frustum) String() string {
	return fmt.Sprintf(
		"Frustum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// A pinhole camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	ViewMat mgl32.Mat4
	ProjMat mgl32.Mat4
	Frustum Frustum

	// Adjust the frustum so that Y is inverted.
	InvertY bool
}

// Create a camera from a scene camera definition.
func NewCamera(spec scene.CameraSpec) *Camera {
	return &Camera{
		Position: spec.Eye,
		LookAt:   spec.Look,
		Up:       spec.Up,
		FOV:      spec.FOV,
		ViewMat:  mgl32.Ident4(),
		ProjMat:  mgl32.Ident4(),
	}
}

// Setup camera projection matrix.
func (c *Camera) SetupProjection(aspect float32) {
	c.ProjMat = mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, nearPlane, farPlane)
	c.Update()
}

// Update the view matrix and the frustum corner rays.
func (c *Camera) Update() {
	c.ViewMat = mgl32.LookAtV(mgl32.Vec3(c.Position), mgl32.Vec3(c.LookAt), mgl32.Vec3(c.Up))
	c.updateFrustum()
}

func (c *Camera) InvViewProjMat() mgl32.Mat4 {
	return c.ProjMat.Mul4(c.ViewMat).Inv()
}

// Generate a ray vector for each corner of the camera frustum by
// multiplying clip space vectors for each corner with the inv proj/view
// matrix, applying perspective and subtracting the camera eye position.
func (c *Camera) updateFrustum() {
	invProjViewMat := c.InvViewProjMat()

	var yUp float32 = 1.0
	if c.InvertY {
		yUp = -1.0
	}

	corners := [4][2]float32{{-1, yUp}, {1, yUp}, {-1, -yUp}, {1, -yUp}}
	for index, corner := range corners {
		v := types.Vec4(invProjViewMat.Mul4x1(mgl32.Vec4{corner[0], corner[1], -1, 1}))
		c.Frustum[index] = v.Mul(1.0 / v[3]).Vec3().Sub(c.Position).Vec4(0)
	}
}

// Get the primary ray through the normalized frame coordinates (u, v).
// (0, 0) maps to the top-left and (1, 1) to the bottom-right frustum corner.
func (c *Camera) Ray(u, v float32) lbvh.Ray {
	tl, tr := c.Frustum[0].Vec3(), c.Frustum[1].Vec3()
	bl, br := c.Frustum[2].Vec3(), c.Frustum[3].Vec3()

	top := tl.Add(tr.Sub(tl).Mul(u))
	bottom := bl.Add(br.Sub(bl).Mul(u))
	dir := top.Add(bottom.Sub(top).Mul(v)).Normalize()

	return lbvh.NewRay(c.Position, dir)
}
