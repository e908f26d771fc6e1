package wavefront

import (
	"math"
	"sync/atomic"

	"github.com/achilleasa/lumen/types"
)

// Per-pixel frame storage. The direct, indirect and albedo channels have a
// single writer per pixel within a bounce so they need no synchronization;
// the reconstruction splats overlap neighbouring pixels and go through the
// atomic float buffers instead.
type frameBuffers struct {
	width  int
	height int

	albedo   []types.Vec3
	direct   []types.Vec3
	indirect []types.Vec3

	// Jittered sample position for each pixel, in raster units.
	sampleX []float32
	sampleY []float32

	// Filter-weighted radiance sums stored as float bit patterns so they
	// can be accumulated with compare-and-swap.
	splatR []uint32
	splatG []uint32
	splatB []uint32
	splatW []uint32

	accum []types.Vec3
}

func (fb *frameBuffers) resize(width, height int) {
	count := width * height
	fb.width = width
	fb.height = height
	fb.albedo = make([]types.Vec3, count)
	fb.direct = make([]types.Vec3, count)
	fb.indirect = make([]types.Vec3, count)
	fb.sampleX = make([]float32, count)
	fb.sampleY = make([]float32, count)
	fb.splatR = make([]uint32, count)
	fb.splatG = make([]uint32, count)
	fb.splatB = make([]uint32, count)
	fb.splatW = make([]uint32, count)
	fb.accum = make([]types.Vec3, count)
}

// Clear the per-sample channels. The accumulator survives across frames.
func (fb *frameBuffers) clearSample() {
	for i := range fb.direct {
		fb.albedo[i] = types.Vec3{}
		fb.direct[i] = types.Vec3{}
		fb.indirect[i] = types.Vec3{}
		fb.splatR[i] = 0
		fb.splatG[i] = 0
		fb.splatB[i] = 0
		fb.splatW[i] = 0
	}
}

func (fb *frameBuffers) clearAccum() {
	for i := range fb.accum {
		fb.accum[i] = types.Vec3{}
	}
}

// Add a value to a float stored as its bit pattern. Loops on contention.
func atomicAddFloat32(addr *uint32, delta float32) {
	for {
		old := atomic.LoadUint32(addr)
		next := math.Float32bits(math.Float32frombits(old) + delta)
		if atomic.CompareAndSwapUint32(addr, old, next) {
			return
		}
	}
}
