package wavefront

import "math"

// Intersect every queued segment with the scene and fill in the hit lanes.
func (t *Tracer) trace() {
	cs := t.cs
	q := t.rayIn

	t.parallelFor(int(q.count), func(_, start, end int) {
		for i := start; i < end; i++ {
			if cs.MBVH == nil {
				q.hitSlot[i] = -1
				continue
			}

			hit, ok := cs.MBVH.Intersect(
				cs.Position0, cs.PositionEdge1, cs.PositionEdge2,
				q.origin[i], q.dir[i], math.MaxFloat32,
			)
			if !ok {
				q.hitSlot[i] = -1
				continue
			}
			q.hitSlot[i] = hit.Slot
			q.hitT[i] = hit.T
			q.hitU[i] = hit.U
			q.hitV[i] = hit.V
		}
	})
}

// Trace the queued occlusion probes and deposit the carried radiance for
// every probe that reaches its light unblocked.
func (t *Tracer) traceShadows(bounce int) {
	cs := t.cs
	q := &t.shadow

	t.parallelFor(int(q.count), func(_, start, end int) {
		for i := start; i < end; i++ {
			if cs.MBVH != nil && cs.MBVH.Occluded(
				cs.Position0, cs.PositionEdge1, cs.PositionEdge2,
				q.origin[i], q.dir[i], q.maxDist[i],
			) {
				continue
			}
			// The sampled light sits one path vertex deeper than the
			// surface that spawned the probe.
			t.deposit(q.pixel[i], bounce+1, q.radiance[i])
		}
	})
}
