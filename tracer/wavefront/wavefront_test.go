package wavefront

import (
	"math"
	"sync"
	"testing"

	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/types"
)

func TestRNG(t *testing.T) {
	r := newRNG(1, 2, 3)
	for i := 0; i < 1000; i++ {
		v := r.float()
		if v < 0 || v >= 1 {
			t.Fatalf("expected samples in [0, 1); got %f", v)
		}
	}

	// Lanes must not share a sequence.
	r0 := newRNG(0, 0, 0)
	r1 := newRNG(1, 0, 0)
	same := 0
	for i := 0; i < 16; i++ {
		if r0.next() == r1.next() {
			same++
		}
	}
	if same == 16 {
		t.Fatalf("expected adjacent pixels to draw from different streams")
	}
}

func TestRayWriterConcurrent(t *testing.T) {
	const workers = 4
	const perWorker = 300

	q := &rayQueue{}
	q.resize(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			writer := rayWriter{q: q}
			for i := 0; i < perWorker; i++ {
				writer.add(raySegment{pixel: int32(w*perWorker + i)})
			}
			writer.flush()
		}(w)
	}
	wg.Wait()

	if q.count != workers*perWorker {
		t.Fatalf("expected %d queued segments; got %d", workers*perWorker, q.count)
	}

	// Every segment must land in exactly one slot.
	seen := make([]bool, workers*perWorker)
	for i := 0; i < int(q.count); i++ {
		if seen[q.pixel[i]] {
			t.Fatalf("pixel %d appears twice in the queue", q.pixel[i])
		}
		seen[q.pixel[i]] = true
	}
}

func TestAtomicAddFloat32(t *testing.T) {
	var sum uint32
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				atomicAddFloat32(&sum, 0.5)
			}
		}()
	}
	wg.Wait()

	if got := math.Float32frombits(sum); got != 4000 {
		t.Fatalf("expected concurrent adds to total 4000; got %f", got)
	}
}

func TestFilterWeight(t *testing.T) {
	// Mitchell-Netravali must be continuous at the branch boundary and
	// vanish at its support edge.
	inner := filterWeight(tracer.FilterMitchellNetravali, 0.999)
	outer := filterWeight(tracer.FilterMitchellNetravali, 1.001)
	if diff := inner - outer; diff > 1e-2 || diff < -1e-2 {
		t.Fatalf("expected continuity at |x|=1; got %f vs %f", inner, outer)
	}
	if got := filterWeight(tracer.FilterMitchellNetravali, 2); got != 0 {
		t.Fatalf("expected zero weight at the support edge; got %f", got)
	}
	if center := filterWeight(tracer.FilterMitchellNetravali, 0); center <= 0 {
		t.Fatalf("expected a positive center weight; got %f", center)
	}

	if got := filterWeight(tracer.FilterGaussian, 1); got != 0 {
		t.Fatalf("expected the truncated gaussian to vanish at its radius; got %f", got)
	}
	if got := filterWeight(tracer.FilterGaussian, 0.25); got <= 0 {
		t.Fatalf("expected a positive gaussian weight inside the radius; got %f", got)
	}
}

func TestDepositChannelSplit(t *testing.T) {
	tr := New(tracer.DefaultSettings())
	if err := tr.Resize(2, 2); err != nil {
		t.Fatal(err)
	}

	one := types.Vec3{1, 1, 1}
	tr.deposit(0, 0, one)
	tr.deposit(0, 1, one)
	tr.deposit(0, 2, one)
	tr.deposit(0, 3, one)

	if got := tr.buffers.direct[0]; got != (types.Vec3{2, 2, 2}) {
		t.Fatalf("expected the first two path vertices to land in the direct channel; got %v", got)
	}
	if got := tr.buffers.indirect[0]; got != (types.Vec3{2, 2, 2}) {
		t.Fatalf("expected deeper vertices to land in the indirect channel; got %v", got)
	}
}

func TestLastBounceSpecular(t *testing.T) {
	if !lastBounceSpecular(uint8(scene.MaterialDielectric), 0) {
		t.Fatalf("expected dielectric segments to be specular")
	}
	if !lastBounceSpecular(uint8(scene.MaterialGlossy), 0.05) {
		t.Fatalf("expected near-mirror glossy segments to be specular")
	}
	if lastBounceSpecular(uint8(scene.MaterialGlossy), 0.5) {
		t.Fatalf("expected rough glossy segments to use importance weighting")
	}
	if lastBounceSpecular(uint8(scene.MaterialDiffuse), 1) {
		t.Fatalf("expected diffuse segments to use importance weighting")
	}
}

func TestAccumulatorLaw(t *testing.T) {
	tr := New(tracer.DefaultSettings())
	if err := tr.Resize(1, 1); err != nil {
		t.Fatal(err)
	}

	// Feed three samples through the splat buffers: 1, 2 and 6 must
	// average to 3.
	for _, v := range []float32{1, 2, 6} {
		tr.buffers.splatR[0] = math.Float32bits(v)
		tr.buffers.splatG[0] = math.Float32bits(v)
		tr.buffers.splatB[0] = math.Float32bits(v)
		tr.buffers.splatW[0] = math.Float32bits(1)
		tr.accumulate()
		tr.frames++
	}

	if got := tr.buffers.accum[0][0]; got < 2.999 || got > 3.001 {
		t.Fatalf("expected the accumulator to hold the mean 3; got %f", got)
	}
}

func TestRenderEmptySky(t *testing.T) {
	cs, err := scene.EmptySky().Compile()
	if err != nil {
		t.Fatal(err)
	}

	tr := New(tracer.DefaultSettings())
	if err := tr.Resize(8, 8); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetScene(cs); err != nil {
		t.Fatal(err)
	}

	stats, err := tr.RenderFrame()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PrimaryRays != 64 {
		t.Fatalf("expected one primary ray per pixel; got %d", stats.PrimaryRays)
	}
	if stats.ShadowRays != 0 {
		t.Fatalf("expected no shadow rays without lights; got %d", stats.ShadowRays)
	}

	// Every path escapes immediately so each pixel must reconstruct the
	// uniform sky radiance.
	want := types.Vec3{0.4, 0.6, 0.9}
	for i, got := range tr.Accumulated() {
		for c := 0; c < 3; c++ {
			if diff := got[c] - want[c]; diff > 1e-3 || diff < -1e-3 {
				t.Fatalf("pixel %d: expected sky radiance %v; got %v", i, want, got)
			}
		}
	}
}

func TestRenderCornellBox(t *testing.T) {
	cs, err := scene.CornellBox().Compile()
	if err != nil {
		t.Fatal(err)
	}

	tr := New(tracer.DefaultSettings())
	if err := tr.Resize(24, 24); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetScene(cs); err != nil {
		t.Fatal(err)
	}

	for sample := 0; sample < 2; sample++ {
		stats, err := tr.RenderFrame()
		if err != nil {
			t.Fatal(err)
		}
		if stats.PrimaryRays != 24*24 {
			t.Fatalf("expected %d primary rays; got %d", 24*24, stats.PrimaryRays)
		}
		if stats.ShadowRays == 0 {
			t.Fatalf("expected next event estimation to trace shadow rays")
		}
	}
	if tr.SampleCount() != 2 {
		t.Fatalf("expected 2 accumulated samples; got %d", tr.SampleCount())
	}

	var total float32
	for _, c := range tr.Accumulated() {
		total += c[0] + c[1] + c[2]
	}
	if total <= 0 {
		t.Fatalf("expected the render to gather some radiance")
	}
}

func TestDemodulation(t *testing.T) {
	cs, err := scene.CornellBox().Compile()
	if err != nil {
		t.Fatal(err)
	}

	render := func(demod bool) *Tracer {
		settings := tracer.DefaultSettings()
		settings.Filter = tracer.FilterBox
		settings.DemodulateAlbedo = demod

		tr := New(settings)
		if err := tr.Resize(8, 8); err != nil {
			t.Fatal(err)
		}
		if err := tr.SetScene(cs); err != nil {
			t.Fatal(err)
		}
		if _, err := tr.RenderFrame(); err != nil {
			t.Fatal(err)
		}
		return tr
	}

	// Demodulation only rescales the accumulated radiance by the first-hit
	// albedo; the traced paths are identical. Remodulating must reproduce
	// the plain render exactly.
	plain := render(false).Accumulated()
	demod := render(true)
	for pixel, got := range demod.Accumulated() {
		a := demod.buffers.albedo[pixel]
		for c := 0; c < 3; c++ {
			want := plain[pixel][c]
			if diff := got[c]*maxf32(a[c], 1e-3) - want; diff > 1e-4 || diff < -1e-4 {
				t.Fatalf("pixel %d channel %d: expected remodulated radiance %f; got %f", pixel, c, want, got[c]*maxf32(a[c], 1e-3))
			}
		}
	}
}

func TestRenderGBufferReplay(t *testing.T) {
	const size = 16

	cs, err := scene.CornellBox().Compile()
	if err != nil {
		t.Fatal(err)
	}

	// The box filter disables sub-pixel jitter, so a visibility buffer
	// rasterized at the pixel centers must replay to the exact frame the
	// traced primaries produce.
	settings := tracer.DefaultSettings()
	settings.Filter = tracer.FilterBox

	traced := New(settings)
	if err := traced.Resize(size, size); err != nil {
		t.Fatal(err)
	}
	if err := traced.SetScene(cs); err != nil {
		t.Fatal(err)
	}

	replayed := New(settings)
	if err := replayed.Resize(size, size); err != nil {
		t.Fatal(err)
	}
	if err := replayed.SetScene(cs); err != nil {
		t.Fatal(err)
	}

	gb := NewGBuffer(size, size)
	cam := cs.Camera
	for pixel := 0; pixel < size*size; pixel++ {
		x := float32(pixel%size) + 0.5
		y := float32(pixel/size) + 0.5
		hit, ok := cs.MBVH.Intersect(
			cs.Position0, cs.PositionEdge1, cs.PositionEdge2,
			cam.Position, cam.RayDirection(x, y), math.MaxFloat32,
		)
		if !ok {
			gb.Slot[pixel] = -1
			continue
		}
		gb.Slot[pixel] = hit.Slot
		gb.T[pixel] = hit.T
		gb.U[pixel] = hit.U
		gb.V[pixel] = hit.V
	}
	if err := replayed.SetGBuffer(gb); err != nil {
		t.Fatal(err)
	}

	if _, err := traced.RenderFrame(); err != nil {
		t.Fatal(err)
	}
	stats, err := replayed.RenderFrame()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PrimaryRays != 0 {
		t.Fatalf("expected the replay path to trace no primary rays; got %d", stats.PrimaryRays)
	}

	want := traced.Accumulated()
	for pixel, got := range replayed.Accumulated() {
		for c := 0; c < 3; c++ {
			if diff := got[c] - want[pixel][c]; diff > 1e-4 || diff < -1e-4 {
				t.Fatalf("pixel %d: expected replayed radiance %v; got %v", pixel, want[pixel], got)
			}
		}
	}
}

func TestSetGBufferValidation(t *testing.T) {
	tr := New(tracer.DefaultSettings())
	if err := tr.SetGBuffer(NewGBuffer(4, 4)); err == nil {
		t.Fatalf("expected an error before the tracer is resized")
	}
	if err := tr.Resize(8, 8); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetGBuffer(NewGBuffer(4, 4)); err == nil {
		t.Fatalf("expected an error for mismatched dimensions")
	}
	if err := tr.SetGBuffer(NewGBuffer(8, 8)); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetGBuffer(nil); err != nil {
		t.Fatal(err)
	}
}

func TestRussianRoulette(t *testing.T) {
	r := newRNG(1, 2, 3)

	if _, alive := russianRoulette(types.Vec3{}, &r); alive {
		t.Fatalf("expected a zero-throughput path to terminate")
	}

	// A throughput at or above one always survives with p = 1, so the
	// rescale must leave it untouched.
	in := types.Vec3{1.5, 0.25, 0.5}
	out, alive := russianRoulette(in, &r)
	if !alive {
		t.Fatalf("expected a bright path to survive")
	}
	if out.Sub(in).Len() > 1e-6 {
		t.Fatalf("expected an unchanged throughput; got %v", out)
	}
}

func TestSchlick(t *testing.T) {
	if got := schlick(0, 1); got != 0 {
		t.Fatalf("expected zero reflectance at normal incidence; got %v", got)
	}
	if diff := schlick(0.04, 1) - 0.04; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected the base reflectance at normal incidence; got %v", diff+0.04)
	}
	if diff := schlick(0.04, 0) - 1; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected full reflectance at a grazing angle; got %v", diff+1)
	}
}

func TestRenderErrors(t *testing.T) {
	tr := New(tracer.DefaultSettings())
	if _, err := tr.RenderFrame(); err == nil {
		t.Fatalf("expected an error when no scene is attached")
	}
	if err := tr.Resize(0, 10); err == nil {
		t.Fatalf("expected an error for empty frame dimensions")
	}
	if err := tr.SetScene(nil); err == nil {
		t.Fatalf("expected an error for a nil scene")
	}
}
