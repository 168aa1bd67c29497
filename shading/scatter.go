// Package shading implements the material sampling routines that turn a ray
// hit into the next path segment.
package shading

import (
	"math/rand/v2"

	"github.com/achilleasa/lbvh/lbvh"
	"github.com/achilleasa/lbvh/scene"
	"github.com/achilleasa/lbvh/types"
)

// Distance along the new direction used to move the origin of scattered rays
// off the surface.
const originOffset float32 = 0.01

// A path segment tracks the state of a single camera path.
type PathSegment struct {
	Ray lbvh.Ray

	// Product of the bxdf weights collected along the path.
	Throughput types.Vec3

	// Radiance gathered so far.
	Radiance types.Vec3

	// Index of the pixel that receives the path radiance.
	PixelIndex int

	RemainingBounces int
}

// Returns true if the path can still be extended.
func (p *PathSegment) Active() bool {
	return p.RemainingBounces > 0
}

// Terminate the path.
func (p *PathSegment) Terminate() {
	p.RemainingBounces = 0
}

// Scatter samples a new direction at the hit point according to the material
// bxdf and updates the segment in place. Emissive surfaces add their radiance
// and terminate the path. Materials that combine two lobes pick one with
// equal probability and scale its weight by 2 to keep the estimate unbiased.
func Scatter(seg *PathSegment, hit *lbvh.Hit, m *scene.Material, rng *rand.Rand) {
	if !seg.Active() {
		return
	}

	wo := seg.Ray.Direction
	var (
		wi types.Vec3
		f  types.Vec3
	)

	switch m.Bxdf {
	case scene.BxdfEmissive:
		seg.Radiance = seg.Radiance.Add(seg.Throughput.MulVec(m.Emission))
		seg.Terminate()
		return
	case scene.BxdfDielectric:
		wi, f = sampleGlass(hit.Normal, m, wo, rng)
	case scene.BxdfPlastic:
		wi, f = samplePlastic(hit.Normal, m, wo, rng)
	case scene.BxdfConductor:
		wi, f = sampleSpecularReflection(hit.Normal, m, wo)
	case scene.BxdfTransmissive:
		wi, f = sampleSpecularTransmission(hit.Normal, m, wo)
	default:
		wi, f = sampleDiffuse(hit.Normal, m, wo, rng)
	}

	seg.Throughput = seg.Throughput.MulVec(f)
	seg.Ray.SetDirection(wi)
	seg.Ray.Origin = hit.Point.Add(wi.Mul(originOffset))
	seg.RemainingBounces--
}

func sampleDiffuse(n types.Vec3, m *scene.Material, wo types.Vec3, rng *rand.Rand) (types.Vec3, types.Vec3) {
	return HemisphereDirection(faceForward(n, wo), rng), m.Color
}

func sampleSpecularReflection(n types.Vec3, m *scene.Material, wo types.Vec3) (types.Vec3, types.Vec3) {
	return Reflect(wo, faceForward(n, wo)), m.Specular
}

// Refract through the surface. Total internal reflection falls back to a
// mirror reflection.
func sampleSpecularTransmission(n types.Vec3, m *scene.Material, wo types.Vec3) (types.Vec3, types.Vec3) {
	eta := m.IOR
	if wo.Dot(n) < 0 {
		eta = 1 / m.IOR
	}

	n = faceForward(n, wo)
	wi, ok := Refract(wo, n, eta)
	if !ok {
		return Reflect(wo, n), m.Specular
	}
	return wi, m.Specular
}

func sampleGlass(n types.Vec3, m *scene.Material, wo types.Vec3, rng *rand.Rand) (types.Vec3, types.Vec3) {
	fr := Fresnel(m, -wo.Dot(n))
	if rng.Float32() < 0.5 {
		wi, f := sampleSpecularReflection(n, m, wo)
		return wi, f.Mul(2 * fr)
	}

	wi, f := sampleSpecularTransmission(n, m, wo)
	return wi, f.Mul(2 * (1 - fr))
}

func samplePlastic(n types.Vec3, m *scene.Material, wo types.Vec3, rng *rand.Rand) (types.Vec3, types.Vec3) {
	fr := Fresnel(m, -wo.Dot(n))
	if rng.Float32() < 0.5 {
		wi, f := sampleSpecularReflection(n, m, wo)
		return wi, f.Mul(2 * fr)
	}

	wi, f := sampleDiffuse(n, m, wo, rng)
	return wi, f.Mul(2 * (1 - fr))
}
