package wavefront

import (
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/types"
)

// Shade the queued dielectric interactions. Each path picks reflection or
// refraction stochastically by its fresnel weight; segments that crossed the
// interior of the medium are attenuated by Beer-Lambert absorption.
func (t *Tracer) shadeDielectric(bounce int) {
	q := &t.dielectric
	cs := t.cs
	frame := uint32(t.frames)
	demod := t.settings.DemodulateAlbedo
	lastBounce := bounce+1 >= t.settings.NumBounces

	t.parallelFor(int(q.count), func(_, start, end int) {
		rays := rayWriter{q: t.rayOut}

		for i := start; i < end; i++ {
			pt := shadePoint{
				origin:     q.origin[i],
				dir:        q.dir[i],
				coneWidth:  q.coneWidth[i],
				pixel:      q.pixel[i],
				throughput: q.throughput[i],
				slot:       q.slot[i],
				t:          q.t[i],
				u:          q.u[i],
				v:          q.v[i],
			}
			s := t.surfaceAt(&pt)
			r := newRNG(uint32(pt.pixel), frame, uint32(bounce*stageCount+stageDielectric))

			mat := &cs.Materials[cs.MaterialID[pt.slot]]
			throughput := pt.throughput
			if s.backface {
				// The segment just travelled through the medium.
				throughput = throughput.MulVec(types.ExpVec3(mat.Absorption.Mul(-s.dist)))
			}
			if bounce == 0 && demod {
				t.buffers.albedo[pt.pixel] = types.Vec3{1, 1, 1}
			}

			entering := !s.backface
			eta := 1 / mat.IOR
			if !entering {
				eta = mat.IOR
			}

			var dir types.Vec3
			refracted, ok := types.Refract(s.in, s.normal, eta)
			if !ok {
				dir = types.Reflect(s.in, s.normal)
			} else {
				// Schlick evaluated with the angle on the thin side of
				// the interface.
				cosX := -s.in.Dot(s.normal)
				if !entering {
					cosX = -refracted.Dot(s.normal)
				}
				f0 := (mat.IOR - 1) / (mat.IOR + 1)
				f0 *= f0
				if r.float() < schlick(f0, cosX) {
					dir = types.Reflect(s.in, s.normal)
				} else {
					dir = refracted
				}
			}

			throughput, alive := russianRoulette(throughput, &r)
			if !alive || lastBounce {
				continue
			}

			rays.add(raySegment{
				origin:        s.point,
				dir:           dir,
				coneWidth:     pt.coneWidth + s.dist*cs.Camera.PixelSpreadAngle,
				pixel:         pt.pixel,
				throughput:    throughput,
				lastType:      uint8(scene.MaterialDielectric),
				lastPdf:       1,
				lastRoughness: 0,
			})
		}

		rays.flush()
	})
}
