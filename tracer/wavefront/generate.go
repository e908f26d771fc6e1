package wavefront

import (
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

// Kernel salts keeping the random streams of the per-bounce stages disjoint.
const (
	stageGenerate = iota
	stageDiffuse
	stageDielectric
	stageGlossy
	stageCount
)

// Fill the ray queue with one camera ray per pixel. Primary rays are indexed
// directly by pixel so no queue writer is involved; the counter is set once
// at the end.
//
// Primary directions are left unnormalized so the diffuse kernel can recover
// the pixel footprint for its ray differentials. The trace kernel reports hit
// distances in units of the direction length, which the shading layer scales
// back to world units.
func (t *Tracer) generatePrimary() {
	cam := t.cs.Camera
	fb := &t.buffers
	q := t.rayIn
	frame := uint32(t.frames)
	jitter := t.settings.Filter != tracer.FilterBox

	count := fb.width * fb.height
	t.parallelFor(count, func(_, start, end int) {
		for pixel := start; pixel < end; pixel++ {
			r := newRNG(uint32(pixel), frame, stageGenerate)

			jx, jy := float32(0.5), float32(0.5)
			if jitter {
				jx, jy = r.float(), r.float()
			}
			x := float32(pixel%fb.width) + jx
			y := float32(pixel/fb.width) + jy
			fb.sampleX[pixel] = x
			fb.sampleY[pixel] = y

			q.origin[pixel] = cam.Position
			q.dir[pixel] = cam.RayDirection(x, y)
			q.coneWidth[pixel] = 0
			q.pixel[pixel] = int32(pixel)
			q.throughput[pixel] = types.Vec3{1, 1, 1}

			// Seed the segment as if it came off a specular surface so
			// that directly visible lights keep their full emission.
			q.lastType[pixel] = uint8(scene.MaterialDielectric)
			q.lastPdf[pixel] = 0
			q.lastRoughness[pixel] = 0
		}
	})
	q.count = int32(count)
}

// Replay rasterized primary visibility straight into the shade queues. Sky
// and emissive pixels settle their radiance immediately; every other pixel is
// enqueued with a throughput of one and a barycentric jittered through the
// stored screen-space gradients. The camera ray is still derived (and left
// unnormalized) so the shade kernels can run their usual footprint math.
func (t *Tracer) replayPrimary() {
	cam := t.cs.Camera
	cs := t.cs
	fb := &t.buffers
	gb := t.gbuffer
	frame := uint32(t.frames)
	jitter := t.settings.Filter != tracer.FilterBox
	demod := t.settings.DemodulateAlbedo

	count := fb.width * fb.height
	t.parallelFor(count, func(_, start, end int) {
		diffuse := shadeWriter{q: &t.diffuse}
		dielectric := shadeWriter{q: &t.dielectric}
		glossy := shadeWriter{q: &t.glossy}

		for pixel := start; pixel < end; pixel++ {
			r := newRNG(uint32(pixel), frame, stageGenerate)

			jx, jy := float32(0.5), float32(0.5)
			if jitter {
				jx, jy = r.float(), r.float()
			}
			x := float32(pixel%fb.width) + jx
			y := float32(pixel/fb.width) + jy
			fb.sampleX[pixel] = x
			fb.sampleY[pixel] = y

			dir := cam.RayDirection(x, y)
			slot := gb.Slot[pixel]
			if slot < 0 {
				t.deposit(int32(pixel), 0, cs.Sky.Sample(dir.Normalize()))
				if demod {
					fb.albedo[pixel] = types.Vec3{1, 1, 1}
				}
				continue
			}

			mat := &cs.Materials[cs.MaterialID[slot]]
			if mat.Type == scene.MaterialLight {
				t.deposit(int32(pixel), 0, mat.Emission)
				if demod {
					fb.albedo[pixel] = types.Vec3{1, 1, 1}
				}
				continue
			}

			u, v := gb.U[pixel], gb.V[pixel]
			if jitter {
				u += (jx-0.5)*gb.GradX[pixel][0] + (jy-0.5)*gb.GradY[pixel][0]
				v += (jx-0.5)*gb.GradX[pixel][1] + (jy-0.5)*gb.GradY[pixel][1]
			}

			pt := shadePoint{
				origin:     cam.Position,
				dir:        dir,
				pixel:      int32(pixel),
				throughput: types.Vec3{1, 1, 1},
				slot:       slot,
				t:          gb.T[pixel],
				u:          u,
				v:          v,
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
