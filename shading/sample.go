package shading

import (
	"math/rand/v2"

	"github.com/achilleasa/lbvh/types"
	"github.com/chewxy/math32"
)

const sqrtOneThird = 0.57735026919

// Generate a cosine-weighted random direction in the hemisphere around
// the given unit normal.
func HemisphereDirection(normal types.Vec3, rng *rand.Rand) types.Vec3 {
	up := math32.Sqrt(rng.Float32())
	over := math32.Sqrt(1 - up*up)
	around := rng.Float32() * 2 * math32.Pi

	// Pick an axis that is guaranteed not to be parallel to the normal.
	var notNormal types.Vec3
	switch {
	case math32.Abs(normal[0]) < sqrtOneThird:
		notNormal = types.Vec3{1, 0, 0}
	case math32.Abs(normal[1]) < sqrtOneThird:
		notNormal = types.Vec3{0, 1, 0}
	default:
		notNormal = types.Vec3{0, 0, 1}
	}

	perp1 := normal.Cross(notNormal).Normalize()
	perp2 := normal.Cross(perp1).Normalize()

	return normal.Mul(up).
		Add(perp1.Mul(math32.Cos(around) * over)).
		Add(perp2.Mul(math32.Sin(around) * over))
}

// Reflect incident direction d about normal n.
func Reflect(d, n types.Vec3) types.Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n)))
}

// Refract incident unit direction d through a surface with unit normal n
// facing against d. eta is the ratio of the indices of refraction on the
// incident and transmitted side. The second return value is false on
// total internal reflection.
func Refract(d, n types.Vec3, eta float32) (types.Vec3, bool) {
	cosI := d.Dot(n)
	k := 1 - eta*eta*(1-cosI*cosI)
	if k < 0 {
		return types.Vec3{}, false
	}

	return d.Mul(eta).Sub(n.Mul(eta*cosI + math32.Sqrt(k))), true
}

// Orient n so that it faces against direction d.
func faceForward(n, d types.Vec3) types.Vec3 {
	if d.Dot(n) > 0 {
		return n.Neg()
	}
	return n
}
