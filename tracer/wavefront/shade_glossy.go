package wavefront

import (
	"math"

	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

// Shade the queued glossy interactions with a beckmann microfacet model.
// Rough surfaces also sample direct light; surfaces below the roughness
// cutoff are handled as specular and rely on their sampled continuation to
// find lights.
func (t *Tracer) shadeGlossy(bounce int) {
	q := &t.glossy
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
			r := newRNG(uint32(pt.pixel), frame, uint32(bounce*stageCount+stageGlossy))

			mat := &cs.Materials[cs.MaterialID[pt.slot]]
			albedo := t.surfaceAlbedo(mat, &pt, &s, bounce)
			if bounce == 0 && demod {
				t.buffers.albedo[pt.pixel] = types.Vec3{1, 1, 1}
			}

			view := s.in.Mul(-1)
			cosView := view.Dot(s.normal)
			if cosView <= 0 {
				continue
			}

			// Appearance-driven roughness remap keeping highlights stable
			// at grazing angles.
			alpha := (1.2 - 0.2*sqrtf(cosView)) * mat.Roughness
			f0 := (mat.IOR - 1) / (mat.IOR + 1)
			f0 *= f0
			fresnel := schlick(f0, cosView)

			if t.settings.EnableNextEventEstimation && mat.Roughness >= tracer.RoughnessCutoff {
				if ls, ok := t.sampleLightPoint(s.point, &r); ok {
					cosIn := ls.dir.Dot(s.normal)
					if cosIn > 0 && ls.dir.Dot(s.geoNormal) > 0 {
						half := view.Add(ls.dir).Normalize()
						d := beckmannD(alpha, half.Dot(s.normal))
						g := smithG1(alpha, view, half, s.normal) * smithG1(alpha, ls.dir, half, s.normal)

						mis := float32(1)
						if t.settings.EnableMultipleImportanceSampling {
							brdfPdf := fresnel * d * half.Dot(s.normal) / (4 * half.Dot(view))
							if brdfPdf > 0 {
								mis = ls.pdf / (ls.pdf + brdfPdf)
							}
						}

						// Microfacet brdf with the incoming cosine folded in.
						scale := fresnel * d * g / (4 * cosView) / ls.pdf * mis
						if scale > 0 {
							shadows.add(shadowProbe{
								origin:   s.point,
								dir:      ls.dir,
								maxDist:  ls.dist * 0.999,
								pixel:    pt.pixel,
								radiance: pt.throughput.MulVec(albedo).MulVec(ls.emission).Mul(scale),
							})
						}
					}
				}
			}

			if lastBounce {
				continue
			}

			// Sample a microfacet normal from the beckmann distribution and
			// reflect the view ray off it.
			theta := math.Atan(math.Sqrt(float64(-alpha * alpha * logf(r.float()+1e-9))))
			phi := 2 * math.Pi * float64(r.float())
			sinTheta := float32(math.Sin(theta))
			tangent, bitangent := orthonormalBasis(s.normal)
			half := tangent.Mul(sinTheta * float32(math.Cos(phi))).
				Add(bitangent.Mul(sinTheta * float32(math.Sin(phi)))).
				Add(s.normal.Mul(float32(math.Cos(theta))))

			dir := types.Reflect(s.in, half)
			cosOut := dir.Dot(s.normal)
			cosHalf := half.Dot(s.normal)
			viewHalf := view.Dot(half)
			if cosOut <= 0 || cosHalf <= 0 || viewHalf <= 0 || dir.Dot(s.geoNormal) <= 0 {
				continue
			}

			g := smithG1(alpha, view, half, s.normal) * smithG1(alpha, dir, half, s.normal)
			sampleWeight := viewHalf * fresnel * g / (cosView * cosHalf)
			throughput := pt.throughput.MulVec(albedo).Mul(sampleWeight)

			throughput, alive := russianRoulette(throughput, &r)
			if !alive {
				continue
			}

			rays.add(raySegment{
				origin:        s.point,
				dir:           dir,
				coneWidth:     pt.coneWidth + s.dist*cs.Camera.PixelSpreadAngle,
				pixel:         pt.pixel,
				throughput:    throughput,
				lastType:      uint8(scene.MaterialGlossy),
				lastPdf:       beckmannD(alpha, cosHalf) * cosHalf / (4 * viewHalf),
				lastRoughness: mat.Roughness,
			})
		}

		rays.flush()
		shadows.flush()
	})
}

// The beckmann normal distribution.
func beckmannD(alpha, cosHalf float32) float32 {
	if cosHalf <= 0 || alpha <= 0 {
		return 0
	}
	cos2 := cosHalf * cosHalf
	tan2 := (1 - cos2) / cos2
	return float32(math.Exp(float64(-tan2/(alpha*alpha)))) / (math.Pi * alpha * alpha * cos2 * cos2)
}

// Smith's shadowing term for the beckmann distribution using the rational
// approximation from Walter et al.
func smithG1(alpha float32, v, half, normal types.Vec3) float32 {
	cosV := v.Dot(normal)
	if v.Dot(half)/cosV <= 0 {
		return 0
	}

	cos2 := cosV * cosV
	tanV := sqrtf(maxf32(0, 1-cos2)) / cosV
	if tanV <= 0 {
		return 1
	}
	a := 1 / (alpha * tanV)
	if a >= 1.6 {
		return 1
	}
	return (3.535*a + 2.181*a*a) / (1 + 2.276*a + 2.577*a*a)
}

func logf(v float32) float32 {
	return float32(math.Log(float64(v)))
}
