package wavefront

import (
	"fmt"

	"github.com/achilleasa/lumen/types"
)

// Per-pixel primary visibility produced by an external rasterizer. Slots
// index the flattened triangle tables of the attached scene; a negative slot
// marks a pixel that only sees the sky. Hit distances are expressed in units
// of the pixel's unnormalized camera direction, matching the parametrization
// the trace kernel reports.
type GBuffer struct {
	Width  int
	Height int

	Slot []int32
	T    []float32
	U    []float32
	V    []float32

	// Screen-space barycentric gradients (du, dv per pixel step), used to
	// jitter the stored barycentric within the pixel footprint.
	GradX []types.Vec2
	GradY []types.Vec2
}

// Create a zeroed visibility buffer for the given frame dimensions.
func NewGBuffer(width, height int) *GBuffer {
	count := width * height
	return &GBuffer{
		Width:  width,
		Height: height,
		Slot:   make([]int32, count),
		T:      make([]float32, count),
		U:      make([]float32, count),
		V:      make([]float32, count),
		GradX:  make([]types.Vec2, count),
		GradY:  make([]types.Vec2, count),
	}
}

// Attach a rasterized primary-visibility buffer. While one is attached,
// frames skip the primary trace and dispatch pixels straight to the shade
// queues. Passing nil reverts to ray-traced primaries. Either way the
// accumulator restarts, as the two modes do not mix.
func (t *Tracer) SetGBuffer(gb *GBuffer) error {
	if gb != nil {
		if t.buffers.width == 0 {
			return fmt.Errorf("wavefront: tracer has not been resized")
		}
		if gb.Width != t.buffers.width || gb.Height != t.buffers.height {
			return fmt.Errorf(
				"wavefront: visibility buffer dimensions %dx%d do not match the %dx%d frame",
				gb.Width, gb.Height, t.buffers.width, t.buffers.height,
			)
		}
	}

	t.gbuffer = gb
	t.frames = 0
	t.buffers.clearAccum()
	return nil
}
