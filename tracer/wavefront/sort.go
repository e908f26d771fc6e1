package wavefront

import (
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

// Split the traced segments into per-material shade queues. Misses and
// emissive hits terminate here: their radiance is deposited directly and no
// shade work is queued for them.
func (t *Tracer) sortHits(bounce int) {
	cs := t.cs
	q := t.rayIn
	demod := t.settings.DemodulateAlbedo

	t.parallelFor(int(q.count), func(_, start, end int) {
		diffuse := shadeWriter{q: &t.diffuse}
		dielectric := shadeWriter{q: &t.dielectric}
		glossy := shadeWriter{q: &t.glossy}

		for i := start; i < end; i++ {
			pixel := q.pixel[i]
			slot := q.hitSlot[i]

			if slot < 0 {
				dir := q.dir[i].Normalize()
				t.deposit(pixel, bounce, q.throughput[i].MulVec(cs.Sky.Sample(dir)))
				if bounce == 0 && demod {
					t.buffers.albedo[pixel] = types.Vec3{1, 1, 1}
				}
				continue
			}

			mat := &cs.Materials[cs.MaterialID[slot]]
			if mat.Type == scene.MaterialLight {
				weight := float32(1)
				if bounce > 0 && t.settings.EnableNextEventEstimation &&
					t.settings.EnableMultipleImportanceSampling &&
					!lastBounceSpecular(q.lastType[i], q.lastRoughness[i]) {
					weight = t.emissiveHitWeight(i, slot)
				}
				t.deposit(pixel, bounce, q.throughput[i].MulVec(mat.Emission).Mul(weight))
				if bounce == 0 && demod {
					t.buffers.albedo[pixel] = types.Vec3{1, 1, 1}
				}
				continue
			}

			pt := shadePoint{
				origin:     q.origin[i],
				dir:        q.dir[i],
				coneWidth:  q.coneWidth[i],
				pixel:      pixel,
				throughput: q.throughput[i],
				slot:       slot,
				t:          q.hitT[i],
				u:          q.hitU[i],
				v:          q.hitV[i],
			}
			switch mat.Type {
			case scene.MaterialDiffuse:
				diffuse.add(pt)
			case scene.MaterialDielectric:
				dielectric.add(pt)
			case scene.MaterialGlossy:
				glossy.add(pt)
			}
		}

		diffuse.flush()
		dielectric.flush()
		glossy.flush()
	})
}

// Deposit gathered radiance into the direct channel for the first two path
// vertices and into the indirect channel beyond that. Each pixel has at most
// one live path so no synchronization is needed.
func (t *Tracer) deposit(pixel int32, bounce int, radiance types.Vec3) {
	if bounce < 2 {
		t.buffers.direct[pixel] = t.buffers.direct[pixel].Add(radiance)
		return
	}
	t.buffers.indirect[pixel] = t.buffers.indirect[pixel].Add(radiance)
}

// Segments spawned by specular interactions cannot be duplicated by light
// sampling, so emissive hits along them keep their full weight.
func lastBounceSpecular(lastType uint8, lastRoughness float32) bool {
	if lastType == uint8(scene.MaterialDielectric) {
		return true
	}
	return lastType == uint8(scene.MaterialGlossy) && lastRoughness < tracer.RoughnessCutoff
}

// Calculate the multiple importance weight for a path that found a light by
// following its sampled direction. The weight balances the solid-angle pdf of
// the generating material sample against the pdf with which next event
// estimation would have picked the same point on the light.
func (t *Tracer) emissiveHitWeight(ray int, slot int32) float32 {
	cs := t.cs
	q := t.rayIn

	brdfPdf := q.lastPdf[ray]
	if brdfPdf <= 0 {
		return 1
	}

	dirLen := q.dir[ray].Len()
	wi := q.dir[ray].Mul(1 / dirLen)
	dist := q.hitT[ray] * dirLen

	cross := cs.PositionEdge1[slot].Cross(cs.PositionEdge2[slot])
	crossLen := cross.Len()
	if crossLen <= 0 {
		return 1
	}
	area := 0.5 * crossLen
	cosLight := wi.Dot(cross.Mul(1 / crossLen))
	if cosLight < 0 {
		cosLight = -cosLight
	}
	if cosLight <= 1e-6 {
		return 1
	}

	lightPdf := t.lightSelectionPdf(area) * dist * dist / (cosLight * area)
	return brdfPdf / (brdfPdf + lightPdf)
}

// Get the probability of next event estimation selecting a light with the
// given surface area.
func (t *Tracer) lightSelectionPdf(area float32) float32 {
	if t.settings.LightSelection == tracer.LightSelectionUniform {
		return 1 / float32(t.cs.LightCount())
	}
	return area / t.cs.TotalLightArea
}
