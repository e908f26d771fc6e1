package wavefront

import "github.com/achilleasa/lumen/scene"

// Shade the queued lambertian interactions: sample direct light, then extend
// each surviving path with a cosine-weighted continuation.
func (t *Tracer) shadeDiffuse(bounce int) {
	q := &t.diffuse
	cs := t.cs
	frame := uint32(t.frames)
	demod := t.settings.DemodulateAlbedo
	lastBounce := bounce+1 >= t.settings.NumBounces

	t.parallelFor(int(q.count), func(_, start, end int) {
		rays := rayWriter{q: t.rayOut}
		shadows := shadowWriter{q: &t.shadow}

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
			r := newRNG(uint32(pt.pixel), frame, uint32(bounce*stageCount+stageDiffuse))

			mat := &cs.Materials[cs.MaterialID[pt.slot]]
			albedo := t.surfaceAlbedo(mat, &pt, &s, bounce)
			if bounce == 0 && demod {
				t.buffers.albedo[pt.pixel] = albedo
			}
			throughput := pt.throughput.MulVec(albedo)

			if t.settings.EnableNextEventEstimation {
				if ls, ok := t.sampleLightPoint(s.point, &r); ok {
					cosIn := ls.dir.Dot(s.normal)
					if cosIn > 0 && ls.dir.Dot(s.geoNormal) > 0 {
						mis := float32(1)
						if t.settings.EnableMultipleImportanceSampling {
							brdfPdf := cosIn * invPi
							mis = ls.pdf / (ls.pdf + brdfPdf)
						}
						scale := cosIn * invPi / ls.pdf * mis
						shadows.add(shadowProbe{
							origin:   s.point,
							dir:      ls.dir,
							maxDist:  ls.dist * 0.999,
							pixel:    pt.pixel,
							radiance: throughput.MulVec(ls.emission).Mul(scale),
						})
					}
				}
			}

			throughput, alive := russianRoulette(throughput, &r)
			if !alive || lastBounce {
				continue
			}

			dir, pdf := cosineSample(s.normal, &r)
			if pdf <= 0 || dir.Dot(s.geoNormal) <= 0 {
				continue
			}

			// The cosine term and the lambertian brdf cancel against the
			// sampling pdf, leaving the albedo already in the throughput.
			rays.add(raySegment{
				origin:        s.point,
				dir:           dir,
				coneWidth:     pt.coneWidth + s.dist*cs.Camera.PixelSpreadAngle,
				pixel:         pt.pixel,
				throughput:    throughput,
				lastType:      uint8(scene.MaterialDiffuse),
				lastPdf:       pdf,
				lastRoughness: 1,
			})
		}

		rays.flush()
		shadows.flush()
	})
}
