package wavefront

import (
	"sync/atomic"

	"github.com/achilleasa/lumen/types"
)

// The number of entries a kernel buffers locally before paying for an atomic
// counter update on the shared queue.
const writerBatchSize = 64

// A queue of in-flight path segments stored as one slice per attribute. The
// trace kernel fills in the hit lanes; the sort kernel reads them back.
type rayQueue struct {
	count int32

	origin     []types.Vec3
	dir        []types.Vec3
	coneWidth  []float32
	pixel      []int32
	throughput []types.Vec3

	// Attributes of the surface interaction that spawned the segment, used
	// to weigh emissive hits.
	lastType      []uint8
	lastPdf       []float32
	lastRoughness []float32

	// Hit record. A negative slot marks a miss.
	hitSlot []int32
	hitT    []float32
	hitU    []float32
	hitV    []float32
}

func (q *rayQueue) resize(capacity int) {
	q.count = 0
	q.origin = make([]types.Vec3, capacity)
	q.dir = make([]types.Vec3, capacity)
	q.coneWidth = make([]float32, capacity)
	q.pixel = make([]int32, capacity)
	q.throughput = make([]types.Vec3, capacity)
	q.lastType = make([]uint8, capacity)
	q.lastPdf = make([]float32, capacity)
	q.lastRoughness = make([]float32, capacity)
	q.hitSlot = make([]int32, capacity)
	q.hitT = make([]float32, capacity)
	q.hitU = make([]float32, capacity)
	q.hitV = make([]float32, capacity)
}

// A single path segment appended to a ray queue.
type raySegment struct {
	origin        types.Vec3
	dir           types.Vec3
	coneWidth     float32
	pixel         int32
	throughput    types.Vec3
	lastType      uint8
	lastPdf       float32
	lastRoughness float32
}

// Buffers ray segments locally and appends them to the shared queue in
// batches. Each worker owns its own writer; the queue counter is only touched
// through atomic adds so concurrent flushes claim disjoint ranges.
type rayWriter struct {
	q       *rayQueue
	pending int
	batch   [writerBatchSize]raySegment
}

func (w *rayWriter) add(seg raySegment) {
	w.batch[w.pending] = seg
	w.pending++
	if w.pending == writerBatchSize {
		w.flush()
	}
}

func (w *rayWriter) flush() {
	if w.pending == 0 {
		return
	}
	base := atomic.AddInt32(&w.q.count, int32(w.pending)) - int32(w.pending)
	for i := 0; i < w.pending; i++ {
		seg := &w.batch[i]
		slot := int(base) + i
		w.q.origin[slot] = seg.origin
		w.q.dir[slot] = seg.dir
		w.q.coneWidth[slot] = seg.coneWidth
		w.q.pixel[slot] = seg.pixel
		w.q.throughput[slot] = seg.throughput
		w.q.lastType[slot] = seg.lastType
		w.q.lastPdf[slot] = seg.lastPdf
		w.q.lastRoughness[slot] = seg.lastRoughness
	}
	w.pending = 0
}

// A queue of surface interactions awaiting shading, one queue per material
// class so that each shade kernel runs over a homogeneous stream.
type shadeQueue struct {
	count int32

	origin     []types.Vec3
	dir        []types.Vec3
	coneWidth  []float32
	pixel      []int32
	throughput []types.Vec3

	slot []int32
	t    []float32
	u    []float32
	v    []float32
}

func (q *shadeQueue) resize(capacity int) {
	q.count = 0
	q.origin = make([]types.Vec3, capacity)
	q.dir = make([]types.Vec3, capacity)
	q.coneWidth = make([]float32, capacity)
	q.pixel = make([]int32, capacity)
	q.throughput = make([]types.Vec3, capacity)
	q.slot = make([]int32, capacity)
	q.t = make([]float32, capacity)
	q.u = make([]float32, capacity)
	q.v = make([]float32, capacity)
}

type shadePoint struct {
	origin     types.Vec3
	dir        types.Vec3
	coneWidth  float32
	pixel      int32
	throughput types.Vec3
	slot       int32
	t          float32
	u          float32
	v          float32
}

type shadeWriter struct {
	q       *shadeQueue
	pending int
	batch   [writerBatchSize]shadePoint
}

func (w *shadeWriter) add(pt shadePoint) {
	w.batch[w.pending] = pt
	w.pending++
	if w.pending == writerBatchSize {
		w.flush()
	}
}

func (w *shadeWriter) flush() {
	if w.pending == 0 {
		return
	}
	base := atomic.AddInt32(&w.q.count, int32(w.pending)) - int32(w.pending)
	for i := 0; i < w.pending; i++ {
		pt := &w.batch[i]
		slot := int(base) + i
		w.q.origin[slot] = pt.origin
		w.q.dir[slot] = pt.dir
		w.q.coneWidth[slot] = pt.coneWidth
		w.q.pixel[slot] = pt.pixel
		w.q.throughput[slot] = pt.throughput
		w.q.slot[slot] = pt.slot
		w.q.t[slot] = pt.t
		w.q.u[slot] = pt.u
		w.q.v[slot] = pt.v
	}
	w.pending = 0
}

// A queue of occlusion probes carrying the radiance to deposit when the
// segment to the light turns out to be clear.
type shadowQueue struct {
	count int32

	origin   []types.Vec3
	dir      []types.Vec3
	maxDist  []float32
	pixel    []int32
	radiance []types.Vec3
}

func (q *shadowQueue) resize(capacity int) {
	q.count = 0
	q.origin = make([]types.Vec3, capacity)
	q.dir = make([]types.Vec3, capacity)
	q.maxDist = make([]float32, capacity)
	q.pixel = make([]int32, capacity)
	q.radiance = make([]types.Vec3, capacity)
}

type shadowProbe struct {
	origin   types.Vec3
	dir      types.Vec3
	maxDist  float32
	pixel    int32
	radiance types.Vec3
}

type shadowWriter struct {
	q       *shadowQueue
	pending int
	batch   [writerBatchSize]shadowProbe
}

func (w *shadowWriter) add(probe shadowProbe) {
	w.batch[w.pending] = probe
	w.pending++
	if w.pending == writerBatchSize {
		w.flush()
	}
}

func (w *shadowWriter) flush() {
	if w.pending == 0 {
		return
	}
	base := atomic.AddInt32(&w.q.count, int32(w.pending)) - int32(w.pending)
	for i := 0; i < w.pending; i++ {
		probe := &w.batch[i]
		slot := int(base) + i
		w.q.origin[slot] = probe.origin
		w.q.dir[slot] = probe.dir
		w.q.maxDist[slot] = probe.maxDist
		w.q.pixel[slot] = probe.pixel
		w.q.radiance[slot] = probe.radiance
	}
	w.pending = 0
}
