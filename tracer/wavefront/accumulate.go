package wavefront

import (
	"math"

	"github.com/achilleasa/lumen/types"
)

// Normalize the reconstruction splats and fold the resulting sample into the
// running per-pixel average.
func (t *Tracer) accumulate() {
	fb := &t.buffers
	samples := float32(t.frames)

	t.parallelFor(len(fb.accum), func(_, start, end int) {
		for i := start; i < end; i++ {
			var c types.Vec3
			if w := math.Float32frombits(fb.splatW[i]); w > 0 {
				c = types.Vec3{
					math.Float32frombits(fb.splatR[i]),
					math.Float32frombits(fb.splatG[i]),
					math.Float32frombits(fb.splatB[i]),
				}.Mul(1 / w)
			}

			if t.frames == 0 {
				fb.accum[i] = c
			} else {
				fb.accum[i] = fb.accum[i].Mul(samples).Add(c).Mul(1 / (samples + 1))
			}
		}
	})
}
