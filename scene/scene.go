package scene

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// A triangle with per-vertex shading attributes. Triangles are the only
// geometric primitive the renderer understands; meshes are expected to be
// pre-triangulated by the loaders feeding the scene.
type Triangle struct {
	Positions [3]types.Vec3
	Normals   [3]types.Vec3
	UVs       [3]types.Vec2

	// Index into the scene material table.
	MaterialID int32
}

// Calculate the triangle centroid.
func (t *Triangle) Centroid() types.Vec3 {
	return t.Positions[0].Add(t.Positions[1]).Add(t.Positions[2]).Mul(1.0 / 3.0)
}

// Calculate the triangle surface area.
func (t *Triangle) Area() float32 {
	e1 := t.Positions[1].Sub(t.Positions[0])
	e2 := t.Positions[2].Sub(t.Positions[0])
	return 0.5 * e1.Cross(e2).Len()
}

// The scene aggregates everything the renderer consumes: geometry, materials,
// textures, the sky and the camera. Scenes are assembled incrementally and
// then compiled into the flat tables the tracer operates on.
type Scene struct {
	Camera *Camera
	Sky    *Sky

	Triangles []Triangle
	Materials []Material
	Textures  []*Texture
}

// Create an empty scene with a default camera and a black sky.
func NewScene() *Scene {
	return &Scene{
		Camera: NewCamera(math.Pi / 4),
		Sky:    NewUniformSky(types.Vec3{0, 0, 0}),
	}
}

// Append a material and get back its table index.
func (s *Scene) AddMaterial(mat Material) int32 {
	s.Materials = append(s.Materials, mat)
	return int32(len(s.Materials) - 1)
}

// Append a texture and get back its table index.
func (s *Scene) AddTexture(tex *Texture) int32 {
	s.Textures = append(s.Textures, tex)
	return int32(len(s.Textures) - 1)
}

// Append a triangle.
func (s *Scene) AddTriangle(tri Triangle) {
	s.Triangles = append(s.Triangles, tri)
}

// Append a batch of triangles transformed by the given matrix. Normals are
// rotated with the direction part of the transform, so the matrix must be
// rigid (rotation plus translation).
func (s *Scene) AddMesh(tris []Triangle, transform types.Mat4) {
	for _, tri := range tris {
		for i := 0; i < 3; i++ {
			tri.Positions[i] = transform.TransformPoint(tri.Positions[i])
			tri.Normals[i] = transform.TransformDirection(tri.Normals[i]).Normalize()
		}
		s.AddTriangle(tri)
	}
}

// Append a quad split into two triangles. The vertices must be given in
// winding order; vertex normals are taken from the face normal and the uv
// corners span the unit square.
func (s *Scene) AddQuad(v0, v1, v2, v3 types.Vec3, materialID int32) {
	normal := v1.Sub(v0).Cross(v3.Sub(v0)).Normalize()

	s.AddTriangle(Triangle{
		Positions:  [3]types.Vec3{v0, v1, v2},
		Normals:    [3]types.Vec3{normal, normal, normal},
		UVs:        [3]types.Vec2{{0, 0}, {1, 0}, {1, 1}},
		MaterialID: materialID,
	})
	s.AddTriangle(Triangle{
		Positions:  [3]types.Vec3{v0, v2, v3},
		Normals:    [3]types.Vec3{normal, normal, normal},
		UVs:        [3]types.Vec2{{0, 0}, {1, 1}, {0, 1}},
		MaterialID: materialID,
	})
}
