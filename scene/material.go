package scene

import "github.com/achilleasa/lbvh/types"

// BxdfType represents the surface types supported by the shading code.
type BxdfType int

const (
	bxdfInvalid BxdfType = iota
	BxdfEmissive
	BxdfDiffuse
	BxdfConductor
	BxdfTransmissive
	BxdfDielectric
	BxdfPlastic
)

// Default material parameters.
var (
	DefaultReflectance = types.Vec3{0.7, 0.7, 0.7}
	DefaultSpecularity = types.Vec3{1, 1, 1}
)

const DefaultIOR float32 = 1.5

// Lookup bxdf type by its name.
func BxdfTypeFromName(name string) BxdfType {
	switch name {
	case "emissive":
		return BxdfEmissive
	case "diffuse":
		return BxdfDiffuse
	case "conductor":
		return BxdfConductor
	case "transmissive":
		return BxdfTransmissive
	case "dielectric":
		return BxdfDielectric
	case "plastic":
		return BxdfPlastic
	}

	return bxdfInvalid
}

// Returns true if this is a known bxdf type.
func (t BxdfType) IsValid() bool {
	return t > bxdfInvalid && t <= BxdfPlastic
}

func (t BxdfType) String() string {
	switch t {
	case BxdfEmissive:
		return "emissive"
	case BxdfDiffuse:
		return "diffuse"
	case BxdfConductor:
		return "conductor"
	case BxdfTransmissive:
		return "transmissive"
	case BxdfDielectric:
		return "dielectric"
	case BxdfPlastic:
		return "plastic"
	}

	return "invalid"
}

// A surface material.
type Material struct {
	Name string

	// The surface model used when scattering rays.
	Bxdf BxdfType

	// Diffuse reflectance.
	Color types.Vec3

	// Specular reflectance/transmittance filter.
	Specular types.Vec3

	// Emitted radiance; only used by emissive materials.
	Emission types.Vec3

	// Index of refraction for dielectric/transmissive materials.
	IOR float32
}

// Create the material used by surfaces that do not reference one.
func DefaultMaterial() Material {
	return Material{
		Name:     "default",
		Bxdf:     BxdfDiffuse,
		Color:    DefaultReflectance,
		Specular: DefaultSpecularity,
		IOR:      DefaultIOR,
	}
}
