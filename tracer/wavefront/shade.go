package wavefront

import (
	"math"

	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

const invPi = 1.0 / math.Pi

// A resolved surface interaction. Both normals are flipped to face the
// incoming segment so the shading kernels always work in the upper
// hemisphere.
type surface struct {
	point     types.Vec3
	normal    types.Vec3
	geoNormal types.Vec3

	// Normalized incident direction and the world-space distance covered
	// by the segment.
	in   types.Vec3
	dist float32

	// The segment arrived from behind the geometric normal.
	backface bool

	uv types.Vec2
}

// Resolve a shade point against the geometry tables. Segment directions may
// be unnormalized; hit distances are scaled back to world units here.
func (t *Tracer) surfaceAt(pt *shadePoint) surface {
	cs := t.cs
	slot := pt.slot

	dirLen := pt.dir.Len()
	in := pt.dir.Mul(1 / dirLen)

	geo := cs.PositionEdge1[slot].Cross(cs.PositionEdge2[slot]).Normalize()
	backface := in.Dot(geo) > 0
	if backface {
		geo = geo.Mul(-1)
	}

	normal := cs.Normal0[slot].
		Add(cs.NormalEdge1[slot].Mul(pt.u)).
		Add(cs.NormalEdge2[slot].Mul(pt.v)).
		Normalize()
	if normal.LenSq() == 0 {
		normal = geo
	} else if in.Dot(normal) > 0 {
		normal = normal.Mul(-1)
	}

	return surface{
		point:     pt.origin.Add(pt.dir.Mul(pt.t)),
		normal:    normal,
		geoNormal: geo,
		in:        in,
		dist:      pt.t * dirLen,
		backface:  backface,
		uv: cs.TexCoord0[slot].
			Add(cs.TexCoordEdge1[slot].Mul(pt.u)).
			Add(cs.TexCoordEdge2[slot].Mul(pt.v)),
	}
}

// Fetch the material albedo at a shade point. Textured fetches pick their mip
// level through ray differentials on the first path vertex and through the
// propagated ray cone on later ones.
func (t *Tracer) surfaceAlbedo(mat *scene.Material, pt *shadePoint, s *surface, bounce int) types.Vec3 {
	if mat.TextureID < 0 {
		return mat.Color
	}
	tex := t.cs.Textures[mat.TextureID]

	if bounce == 0 {
		if dudx, dvdx, dudy, dvdy, ok := t.primaryUVGradients(pt, s); ok {
			return tex.SampleGrad(s.uv[0], s.uv[1], dudx, dvdx, dudy, dvdy)
		}
		return tex.SampleLOD(s.uv[0], s.uv[1], 0)
	}

	cs := t.cs
	slot := pt.slot
	te1 := cs.TexCoordEdge1[slot]
	te2 := cs.TexCoordEdge2[slot]
	uvCross := te1[0]*te2[1] - te1[1]*te2[0]
	if uvCross < 0 {
		uvCross = -uvCross
	}
	worldCross := cs.PositionEdge1[slot].Cross(cs.PositionEdge2[slot]).Len()

	width := pt.coneWidth + s.dist*cs.Camera.PixelSpreadAngle
	return tex.SampleCone(s.uv[0], s.uv[1], width, uvCross, worldCross)
}

// Calculate the texture-space gradients of a primary hit by transferring the
// camera's per-pixel frustum offsets onto the triangle plane and projecting
// the resulting position deltas onto the triangle edges. Relies on primary
// directions being unnormalized so that the frustum axes and the hit distance
// share the same parametrization.
func (t *Tracer) primaryUVGradients(pt *shadePoint, s *surface) (dudx, dvdx, dudy, dvdy float32, ok bool) {
	cs := t.cs
	slot := pt.slot

	d := pt.dir
	n := s.geoNormal
	dDotN := d.Dot(n)
	if dDotN > -1e-8 && dDotN < 1e-8 {
		return 0, 0, 0, 0, false
	}

	dx := cs.Camera.XAxis
	dy := cs.Camera.YAxis
	dpdx := dx.Sub(d.Mul(dx.Dot(n) / dDotN)).Mul(pt.t)
	dpdy := dy.Sub(d.Mul(dy.Dot(n) / dDotN)).Mul(pt.t)

	e1 := cs.PositionEdge1[slot]
	e2 := cs.PositionEdge2[slot]
	a11 := e1.Dot(e1)
	a12 := e1.Dot(e2)
	a22 := e2.Dot(e2)
	det := a11*a22 - a12*a12
	if det > -1e-12 && det < 1e-12 {
		return 0, 0, 0, 0, false
	}
	inv := 1 / det

	// Barycentric derivatives via the normal equations of the edge basis.
	b1 := e1.Dot(dpdx)
	b2 := e2.Dot(dpdx)
	baryUx := (a22*b1 - a12*b2) * inv
	baryVx := (a11*b2 - a12*b1) * inv

	b1 = e1.Dot(dpdy)
	b2 = e2.Dot(dpdy)
	baryUy := (a22*b1 - a12*b2) * inv
	baryVy := (a11*b2 - a12*b1) * inv

	te1 := cs.TexCoordEdge1[slot]
	te2 := cs.TexCoordEdge2[slot]
	dudx = te1[0]*baryUx + te2[0]*baryVx
	dvdx = te1[1]*baryUx + te2[1]*baryVx
	dudy = te1[0]*baryUy + te2[0]*baryVy
	dvdy = te1[1]*baryUy + te2[1]*baryVy
	return dudx, dvdx, dudy, dvdy, true
}

// A point sampled on an emissive triangle.
type lightSample struct {
	dir      types.Vec3
	dist     float32
	emission types.Vec3

	// Solid-angle pdf of the sample, including light selection.
	pdf float32
}

// Pick a light and a uniform point on it for next event estimation.
func (t *Tracer) sampleLightPoint(from types.Vec3, r *rng) (lightSample, bool) {
	cs := t.cs
	if cs.LightCount() == 0 {
		return lightSample{}, false
	}

	var light int
	var selPdf float32
	if t.settings.LightSelection == tracer.LightSelectionUniform {
		light = int(r.float() * float32(cs.LightCount()))
		if light >= cs.LightCount() {
			light = cs.LightCount() - 1
		}
		selPdf = 1 / float32(cs.LightCount())
	} else {
		light, selPdf = cs.SampleLight(r.float())
	}
	slot := cs.LightSlots[light]

	e1 := cs.PositionEdge1[slot]
	e2 := cs.PositionEdge2[slot]
	su := sqrtf(r.float())
	xi := r.float()
	point := cs.Position0[slot].
		Add(e1.Mul(su * (1 - xi))).
		Add(e2.Mul(su * xi))

	to := point.Sub(from)
	distSq := to.LenSq()
	if distSq <= 1e-8 {
		return lightSample{}, false
	}
	dist := sqrtf(distSq)
	dir := to.Mul(1 / dist)

	cross := e1.Cross(e2)
	crossLen := cross.Len()
	if crossLen <= 0 {
		return lightSample{}, false
	}
	area := 0.5 * crossLen
	cosLight := dir.Dot(cross.Mul(1 / crossLen))
	if cosLight < 0 {
		cosLight = -cosLight
	}
	if cosLight <= 1e-6 {
		return lightSample{}, false
	}

	return lightSample{
		dir:      dir,
		dist:     dist,
		emission: cs.Materials[cs.MaterialID[slot]].Emission,
		pdf:      selPdf * distSq / (cosLight * area),
	}, true
}

// Build a right-handed orthonormal basis around a unit normal.
func orthonormalBasis(n types.Vec3) (types.Vec3, types.Vec3) {
	sign := float32(1)
	if n[2] < 0 {
		sign = -1
	}
	a := -1 / (sign + n[2])
	b := n[0] * n[1] * a

	tangent := types.Vec3{1 + sign*n[0]*n[0]*a, sign * b, -sign * n[0]}
	bitangent := types.Vec3{b, sign + n[1]*n[1]*a, -n[1]}
	return tangent, bitangent
}

// Draw a cosine-weighted direction on the hemisphere around the normal.
// Returns the direction and its solid-angle pdf.
func cosineSample(n types.Vec3, r *rng) (types.Vec3, float32) {
	tangent, bitangent := orthonormalBasis(n)

	xi0, xi1 := r.float(), r.float()
	rad := sqrtf(xi0)
	phi := 2 * math.Pi * float64(xi1)
	x := rad * float32(math.Cos(phi))
	y := rad * float32(math.Sin(phi))
	z := sqrtf(maxf32(0, 1-xi0))

	dir := tangent.Mul(x).Add(bitangent.Mul(y)).Add(n.Mul(z))
	return dir, z * invPi
}

// Stochastically terminate a path based on its remaining throughput. The
// survivor is rescaled so the estimate stays unbiased.
func russianRoulette(throughput types.Vec3, r *rng) (types.Vec3, bool) {
	p := throughput.MaxComponent()
	if p > 1 {
		p = 1
	}
	if p <= 0 || r.float() >= p {
		return throughput, false
	}
	return throughput.Mul(1 / p), true
}

func schlick(f0, cosTheta float32) float32 {
	m := 1 - cosTheta
	m2 := m * m
	return f0 + (1-f0)*m2*m2*m
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func maxf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
