package shading

import (
	"github.com/achilleasa/lbvh/scene"
	"github.com/chewxy/math32"
)

// Fresnel returns the unpolarized reflectance of a dielectric interface.
//
// cosTheta is the cosine between the outward surface normal and the
// direction towards the viewer, i.e. -dot(wo, n) for a ray travelling along
// wo. It is positive when the ray arrives from outside. Negative values
// indicate that the ray travels inside the medium in which case the indices
// of refraction are swapped. Passing dot(wo, n) instead would swap the two
// media. The value is clamped to [-1, 1]. Total internal reflection yields 1.
func Fresnel(m *scene.Material, cosTheta float32) float32 {
	etaI, etaT := float32(1), m.IOR
	cosThetaI := min(max(cosTheta, -1), 1)

	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}

	// Snell's law
	sinThetaI := math32.Sqrt(max(0, 1-cosThetaI*cosThetaI))
	sinThetaT := etaI / etaT * sinThetaI
	if sinThetaT >= 1 {
		return 1
	}

	cosThetaT := math32.Sqrt(max(0, 1-sinThetaT*sinThetaT))
	rParallel := (etaT*cosThetaI - etaI*cosThetaT) / (etaT*cosThetaI + etaI*cosThetaT)
	rPerp := (etaI*cosThetaI - etaT*cosThetaT) / (etaI*cosThetaI + etaT*cosThetaT)

	return (rParallel*rParallel + rPerp*rPerp) * 0.5
}
