package wavefront

import (
	"math"

	"github.com/achilleasa/lumen/tracer"
)

// Splat each pixel's gathered radiance into its 3x3 neighbourhood, weighted
// by the reconstruction filter evaluated at the jittered sample position.
// Neighbouring splats overlap so the weighted sums go through the atomic
// float buffers.
func (t *Tracer) reconstruct() {
	fb := &t.buffers
	demod := t.settings.DemodulateAlbedo
	filter := t.settings.Filter

	t.parallelFor(fb.width*fb.height, func(_, start, end int) {
		for pixel := start; pixel < end; pixel++ {
			c := fb.direct[pixel].Add(fb.indirect[pixel])
			if demod {
				// Divide out the first-hit albedo so the accumulator
				// carries irradiance a denoiser can remodulate.
				a := fb.albedo[pixel]
				for i := 0; i < 3; i++ {
					c[i] /= maxf32(a[i], 1e-3)
				}
			}

			if filter == tracer.FilterBox {
				fb.splatR[pixel] = math.Float32bits(c[0])
				fb.splatG[pixel] = math.Float32bits(c[1])
				fb.splatB[pixel] = math.Float32bits(c[2])
				fb.splatW[pixel] = math.Float32bits(1)
				continue
			}

			sx := fb.sampleX[pixel]
			sy := fb.sampleY[pixel]
			px := pixel % fb.width
			py := pixel / fb.width

			for ny := py - 1; ny <= py+1; ny++ {
				if ny < 0 || ny >= fb.height {
					continue
				}
				wy := filterWeight(filter, float32(ny)+0.5-sy)
				if wy == 0 {
					continue
				}
				for nx := px - 1; nx <= px+1; nx++ {
					if nx < 0 || nx >= fb.width {
						continue
					}
					w := wy * filterWeight(filter, float32(nx)+0.5-sx)
					if w == 0 {
						continue
					}

					idx := ny*fb.width + nx
					atomicAddFloat32(&fb.splatR[idx], c[0]*w)
					atomicAddFloat32(&fb.splatG[idx], c[1]*w)
					atomicAddFloat32(&fb.splatB[idx], c[2]*w)
					atomicAddFloat32(&fb.splatW[idx], w)
				}
			}
		}
	})
}

// Evaluate the separable 1d reconstruction filter at a signed pixel offset.
func filterWeight(filter tracer.Filter, x float32) float32 {
	if x < 0 {
		x = -x
	}

	if filter == tracer.FilterGaussian {
		w := float32(math.Exp(float64(-0.5*x*x))) - gaussianTail
		if w < 0 {
			return 0
		}
		return w
	}

	// Mitchell-Netravali with B = C = 1/3.
	if x < 1 {
		return (7*x*x*x - 12*x*x + 16.0/3.0) / 6
	}
	if x < 2 {
		return (-7.0/3.0*x*x*x + 12*x*x - 20*x + 32.0/3.0) / 6
	}
	return 0
}

// The gaussian filter value at the truncation radius, subtracted so the
// filter falls to exactly zero there.
var gaussianTail = float32(math.Exp(-0.5))
