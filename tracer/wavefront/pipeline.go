package wavefront

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

// A wavefront path tracer. Instead of walking each path to completion, every
// pipeline stage runs as a bulk kernel over a stream of path segments with a
// barrier in between, so that each kernel does one kind of work over
// contiguous data.
type Tracer struct {
	logger   log.Logger
	settings tracer.Settings

	cs      *scene.CompiledScene
	gbuffer *GBuffer
	workers int
	frames  int

	buffers frameBuffers

	rayIn  *rayQueue
	rayOut *rayQueue

	diffuse    shadeQueue
	dielectric shadeQueue
	glossy     shadeQueue
	shadow     shadowQueue
}

// Create a wavefront tracer using one worker per logical CPU.
func New(settings tracer.Settings) *Tracer {
	return &Tracer{
		logger:   log.New("wavefront"),
		settings: settings,
		workers:  runtime.NumCPU(),
		rayIn:    &rayQueue{},
		rayOut:   &rayQueue{},
	}
}

// Resize the queue arenas and frame buffers. Every queue is sized for the
// worst case of one in-flight path segment per pixel.
func (t *Tracer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wavefront: invalid frame dimensions %dx%d", width, height)
	}

	capacity := width * height
	t.rayIn.resize(capacity)
	t.rayOut.resize(capacity)
	t.diffuse.resize(capacity)
	t.dielectric.resize(capacity)
	t.glossy.resize(capacity)
	t.shadow.resize(capacity)
	t.buffers.resize(width, height)
	t.gbuffer = nil
	t.frames = 0

	if t.cs != nil {
		t.cs.Camera.Update(uint32(width), uint32(height))
	}
	return nil
}

// Attach a compiled scene and restart accumulation.
func (t *Tracer) SetScene(cs *scene.CompiledScene) error {
	if cs == nil {
		return fmt.Errorf("wavefront: nil scene")
	}
	t.cs = cs
	t.gbuffer = nil
	t.frames = 0
	t.buffers.clearAccum()

	if t.buffers.width > 0 {
		cs.Camera.Update(uint32(t.buffers.width), uint32(t.buffers.height))
	}
	return nil
}

// Render one sample per pixel and merge it into the accumulator.
func (t *Tracer) RenderFrame() (tracer.FrameStats, error) {
	var stats tracer.FrameStats
	if t.cs == nil {
		return stats, fmt.Errorf("wavefront: no scene attached")
	}
	if t.buffers.width == 0 {
		return stats, fmt.Errorf("wavefront: tracer has not been resized")
	}

	start := time.Now()
	t.buffers.clearSample()

	replay := t.gbuffer != nil
	if replay {
		t.replayPrimary()
	} else {
		t.generatePrimary()
		stats.PrimaryRays = int(t.rayIn.count)
	}

	for bounce := 0; bounce < t.settings.NumBounces; bounce++ {
		// The replay path fills the shade queues for the first bounce
		// directly, so there is nothing to trace or sort yet.
		if bounce > 0 || !replay {
			if t.rayIn.count == 0 {
				break
			}
			if bounce > 0 {
				stats.BounceRays += int(t.rayIn.count)
			}

			t.trace()
			t.sortHits(bounce)
		}
		t.shadeDiffuse(bounce)
		t.shadeDielectric(bounce)
		t.shadeGlossy(bounce)

		stats.ShadowRays += int(t.shadow.count)
		t.traceShadows(bounce)

		t.rayIn, t.rayOut = t.rayOut, t.rayIn
		t.rayOut.count = 0
		t.diffuse.count = 0
		t.dielectric.count = 0
		t.glossy.count = 0
		t.shadow.count = 0
	}
	t.rayIn.count = 0

	t.reconstruct()
	t.accumulate()
	t.frames++

	stats.RenderTime = time.Since(start)
	t.logger.Debugf(
		"frame %d: %d ms (%d primary, %d bounce, %d shadow rays)\n",
		t.frames, stats.RenderTime.Nanoseconds()/1e6,
		stats.PrimaryRays, stats.BounceRays, stats.ShadowRays,
	)
	return stats, nil
}

// Get the accumulated frame in scanline order.
func (t *Tracer) Accumulated() []types.Vec3 {
	return t.buffers.accum
}

// Get the number of accumulated samples per pixel.
func (t *Tracer) SampleCount() int {
	return t.frames
}

// Run fn over [0, count) split into one contiguous chunk per worker. Returns
// after every chunk completes.
func (t *Tracer) parallelFor(count int, fn func(worker, start, end int)) {
	if count == 0 {
		return
	}

	workers := t.workers
	if workers > count {
		workers = count
	}
	chunk := (count + workers - 1) / workers

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		start := worker * chunk
		end := start + chunk
		if end > count {
			end = count
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			fn(worker, start, end)
		}(worker, start, end)
	}
	wg.Wait()
}
