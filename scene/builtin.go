package scene

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// The classic Cornell box: white floor/ceiling/back wall, red and green side
// walls, a quad light on the ceiling and two boxes in the interior.
func CornellBox() *Scene {
	s := NewScene()

	white := s.AddMaterial(NewDiffuse(types.Vec3{0.73, 0.73, 0.73}))
	red := s.AddMaterial(NewDiffuse(types.Vec3{0.65, 0.05, 0.05}))
	green := s.AddMaterial(NewDiffuse(types.Vec3{0.12, 0.45, 0.15}))
	light := s.AddMaterial(NewLight(types.Vec3{15, 15, 15}))

	// Floor, ceiling, back wall.
	s.AddQuad(types.Vec3{-1, 0, -1}, types.Vec3{1, 0, -1}, types.Vec3{1, 0, 1}, types.Vec3{-1, 0, 1}, white)
	s.AddQuad(types.Vec3{-1, 2, 1}, types.Vec3{1, 2, 1}, types.Vec3{1, 2, -1}, types.Vec3{-1, 2, -1}, white)
	s.AddQuad(types.Vec3{-1, 0, -1}, types.Vec3{-1, 2, -1}, types.Vec3{1, 2, -1}, types.Vec3{1, 0, -1}, white)

	// Side walls.
	s.AddQuad(types.Vec3{-1, 0, 1}, types.Vec3{-1, 2, 1}, types.Vec3{-1, 2, -1}, types.Vec3{-1, 0, -1}, red)
	s.AddQuad(types.Vec3{1, 0, -1}, types.Vec3{1, 2, -1}, types.Vec3{1, 2, 1}, types.Vec3{1, 0, 1}, green)

	// Ceiling light.
	s.AddQuad(types.Vec3{-0.3, 1.99, 0.3}, types.Vec3{0.3, 1.99, 0.3}, types.Vec3{0.3, 1.99, -0.3}, types.Vec3{-0.3, 1.99, -0.3}, light)

	// Tall and short boxes, rotated into place like the classic scene.
	tall := boxTriangles(types.Vec3{-0.25, 0, -0.25}, types.Vec3{0.25, 1.1, 0.25}, white)
	s.AddMesh(tall, types.Translate4(types.Vec3{-0.3, 0, -0.15}).Mul4(types.RotateY4(0.3)))

	short := boxTriangles(types.Vec3{-0.25, 0, -0.25}, types.Vec3{0.25, 0.55, 0.25}, white)
	s.AddMesh(short, types.Translate4(types.Vec3{0.35, 0, 0.45}).Mul4(types.RotateY4(-0.35)))

	s.Camera.Position = types.Vec3{0, 1, 3.4}
	s.Camera.LookAt = types.Vec3{0, 1, 0}
	return s
}

// A dielectric sphere resting on a diffuse floor under a bright uniform sky.
func DielectricSphere() *Scene {
	s := NewScene()
	s.Sky = NewUniformSky(types.Vec3{0.9, 0.95, 1.0})

	floor := s.AddMaterial(NewDiffuse(types.Vec3{0.6, 0.6, 0.6}))
	glass := s.AddMaterial(NewDielectric(1.52, types.Vec3{0.02, 0.1, 0.02}))

	s.AddQuad(types.Vec3{-6, 0, -6}, types.Vec3{6, 0, -6}, types.Vec3{6, 0, 6}, types.Vec3{-6, 0, 6}, floor)
	addSphere(s, types.Vec3{0, 1, 0}, 1, 4, glass)

	s.Camera.Position = types.Vec3{0, 1.4, 4}
	s.Camera.LookAt = types.Vec3{0, 0.9, 0}
	return s
}

// A glossy sphere next to a diffuse sphere on a checker-free grey plane, lit
// by a single overhead quad light.
func GlossyPlane() *Scene {
	s := NewScene()

	floor := s.AddMaterial(NewDiffuse(types.Vec3{0.55, 0.55, 0.55}))
	glossy := s.AddMaterial(NewGlossy(types.Vec3{0.9, 0.7, 0.3}, 1.5, 0.25))
	diffuse := s.AddMaterial(NewDiffuse(types.Vec3{0.2, 0.3, 0.8}))
	light := s.AddMaterial(NewLight(types.Vec3{20, 20, 20}))

	s.AddQuad(types.Vec3{-6, 0, -6}, types.Vec3{6, 0, -6}, types.Vec3{6, 0, 6}, types.Vec3{-6, 0, 6}, floor)
	s.AddQuad(types.Vec3{-1, 4, 1}, types.Vec3{1, 4, 1}, types.Vec3{1, 4, -1}, types.Vec3{-1, 4, -1}, light)
	addSphere(s, types.Vec3{-1.1, 1, 0}, 1, 4, glossy)
	addSphere(s, types.Vec3{1.1, 1, 0}, 1, 4, diffuse)

	s.Camera.Position = types.Vec3{0, 1.8, 5}
	s.Camera.LookAt = types.Vec3{0, 0.9, 0}
	return s
}

// An empty scene showing only the sky panorama.
func EmptySky() *Scene {
	s := NewScene()
	s.Sky = NewUniformSky(types.Vec3{0.4, 0.6, 0.9})
	return s
}

// Triangulate an axis-aligned box with outward face normals. The result is
// meant to be placed with AddMesh.
func boxTriangles(min, max types.Vec3, materialID int32) []Triangle {
	v := [8]types.Vec3{
		{min[0], min[1], min[2]},
		{max[0], min[1], min[2]},
		{max[0], min[1], max[2]},
		{min[0], min[1], max[2]},
		{min[0], max[1], min[2]},
		{max[0], max[1], min[2]},
		{max[0], max[1], max[2]},
		{min[0], max[1], max[2]},
	}
	faces := [6][4]int{
		{3, 2, 1, 0}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{2, 3, 7, 6}, // back
		{3, 0, 4, 7}, // left
		{1, 2, 6, 5}, // right
	}

	tris := make([]Triangle, 0, 12)
	for _, f := range faces {
		v0, v1, v2, v3 := v[f[0]], v[f[1]], v[f[2]], v[f[3]]
		normal := v1.Sub(v0).Cross(v3.Sub(v0)).Normalize()
		tris = append(tris,
			Triangle{
				Positions:  [3]types.Vec3{v0, v1, v2},
				Normals:    [3]types.Vec3{normal, normal, normal},
				UVs:        [3]types.Vec2{{0, 0}, {1, 0}, {1, 1}},
				MaterialID: materialID,
			},
			Triangle{
				Positions:  [3]types.Vec3{v0, v2, v3},
				Normals:    [3]types.Vec3{normal, normal, normal},
				UVs:        [3]types.Vec2{{0, 0}, {1, 1}, {0, 1}},
				MaterialID: materialID,
			},
		)
	}
	return tris
}

// Tessellate a latitude/longitude sphere. The subdivision count picks the
// number of stacks; slices are doubled.
func addSphere(s *Scene, center types.Vec3, radius float32, subdiv int, materialID int32) {
	stacks := 1 << subdiv
	slices := 2 * stacks

	point := func(stack, slice int) (types.Vec3, types.Vec3, types.Vec2) {
		v := float32(stack) / float32(stacks)
		u := float32(slice) / float32(slices)
		theta := v * math.Pi
		phi := u * 2 * math.Pi

		normal := types.Vec3{
			sinf(theta) * cosf(phi),
			cosf(theta),
			sinf(theta) * sinf(phi),
		}
		return center.Add(normal.Mul(radius)), normal, types.Vec2{u, v}
	}

	for stack := 0; stack < stacks; stack++ {
		for slice := 0; slice < slices; slice++ {
			p00, n00, t00 := point(stack, slice)
			p01, n01, t01 := point(stack, slice+1)
			p10, n10, t10 := point(stack+1, slice)
			p11, n11, t11 := point(stack+1, slice+1)

			if stack != 0 {
				s.AddTriangle(Triangle{
					Positions:  [3]types.Vec3{p00, p01, p11},
					Normals:    [3]types.Vec3{n00, n01, n11},
					UVs:        [3]types.Vec2{t00, t01, t11},
					MaterialID: materialID,
				})
			}
			if stack != stacks-1 {
				s.AddTriangle(Triangle{
					Positions:  [3]types.Vec3{p00, p11, p10},
					Normals:    [3]types.Vec3{n00, n11, n10},
					UVs:        [3]types.Vec2{t00, t11, t10},
					MaterialID: materialID,
				})
			}
		}
	}
}

func sinf(v float32) float32 { return float32(math.Sin(float64(v))) }
func cosf(v float32) float32 { return float32(math.Cos(float64(v))) }
