package scene

import "github.com/achilleasa/lumen/types"

// The surface types supported by the renderer.
type MaterialType uint32

const (
	MaterialLight MaterialType = iota
	MaterialDiffuse
	MaterialDielectric
	MaterialGlossy
)

func (t MaterialType) String() string {
	switch t {
	case MaterialLight:
		return "light"
	case MaterialDiffuse:
		return "diffuse"
	case MaterialDielectric:
		return "dielectric"
	case MaterialGlossy:
		return "glossy"
	}
	return "invalid"
}

// Materials are represented as a tagged union. The fields that are valid
// depend on the material type:
//
// - light: Emission
// - diffuse: Color or TextureID
// - dielectric: IOR, Absorption
// - glossy: Color or TextureID, IOR, Roughness
type Material struct {
	Type MaterialType

	// Emitted radiance for light materials.
	Emission types.Vec3

	// Base albedo. Ignored when a texture is attached.
	Color types.Vec3

	// Index into the scene texture table or -1.
	TextureID int32

	// Index of refraction for dielectric and glossy materials.
	IOR float32

	// Beer-Lambert absorption coefficients for dielectric materials.
	Absorption types.Vec3

	// Microfacet roughness for glossy materials.
	Roughness float32
}

// Create a light-emitting material.
func NewLight(emission types.Vec3) Material {
	return Material{Type: MaterialLight, Emission: emission, TextureID: -1}
}

// Create a lambertian material with a constant albedo.
func NewDiffuse(color types.Vec3) Material {
	return Material{Type: MaterialDiffuse, Color: color, TextureID: -1}
}

// Create a lambertian material sampling its albedo from a texture.
func NewTexturedDiffuse(textureID int32) Material {
	return Material{Type: MaterialDiffuse, Color: types.Vec3{1, 1, 1}, TextureID: textureID}
}

// Create a dielectric material.
func NewDielectric(ior float32, absorption types.Vec3) Material {
	return Material{Type: MaterialDielectric, IOR: ior, Absorption: absorption, TextureID: -1}
}

// Create a glossy microfacet material.
func NewGlossy(color types.Vec3, ior, roughness float32) Material {
	return Material{Type: MaterialGlossy, Color: color, TextureID: -1, IOR: ior, Roughness: roughness}
}

// Check whether the material emits light.
func (m *Material) Emissive() bool {
	return m.Emission.LenSq() > 0
}
