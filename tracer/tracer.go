package tracer

import (
	"time"

	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/types"
)

const (
	// The default number of path segments traced per pixel before paths are
	// forcibly terminated.
	DefaultNumBounces = 5

	// Glossy surfaces with roughness below this value are treated as
	// specular for the purposes of multiple importance sampling.
	RoughnessCutoff = 0.1
)

// The reconstruction filter applied when splatting path radiance back into
// the frame buffers.
type Filter uint32

const (
	// A 3x3 Mitchell-Netravali filter with B = C = 1/3.
	FilterMitchellNetravali Filter = iota

	// A truncated gaussian falling to zero at the filter radius.
	FilterGaussian

	// A single-pixel box filter without sample jitter.
	FilterBox
)

func (f Filter) String() string {
	switch f {
	case FilterMitchellNetravali:
		return "mitchell-netravali"
	case FilterGaussian:
		return "gaussian"
	case FilterBox:
		return "box"
	}
	return "invalid"
}

// The strategy used to pick a light for next event estimation.
type LightSelection uint32

const (
	// Pick lights with probability proportional to their surface area.
	LightSelectionArea LightSelection = iota

	// Pick lights uniformly.
	LightSelectionUniform
)

// Settings control the path-tracing pipeline. The zero value is not usable;
// call DefaultSettings instead.
type Settings struct {
	// The number of path segments traced per pixel.
	NumBounces int

	// The reconstruction filter for radiance splats.
	Filter Filter

	// Sample direct light at each diffuse and rough glossy bounce.
	EnableNextEventEstimation bool

	// Weigh hit-a-light and sampled-a-light contributions by their pdfs.
	// Only meaningful when next event estimation is enabled.
	EnableMultipleImportanceSampling bool

	// Record the first-hit albedo and divide it out of the accumulated
	// radiance so a denoiser can filter irradiance and remodulate later.
	DemodulateAlbedo bool

	// How lights are selected for next event estimation.
	LightSelection LightSelection
}

// Get the settings used when the caller does not override anything.
func DefaultSettings() Settings {
	return Settings{
		NumBounces:                       DefaultNumBounces,
		Filter:                           FilterMitchellNetravali,
		EnableNextEventEstimation:        true,
		EnableMultipleImportanceSampling: true,
		DemodulateAlbedo:                 false,
		LightSelection:                   LightSelectionArea,
	}
}

// Per-frame statistics reported by RenderFrame.
type FrameStats struct {
	// The number of rays traced per pipeline stage.
	PrimaryRays int
	BounceRays  int
	ShadowRays  int

	// Wall-clock render time for the frame.
	RenderTime time.Duration
}

// A Tracer renders frames of a compiled scene into an accumulation buffer.
// Implementations are driven one frame at a time; each frame adds one sample
// per pixel to the running average.
type Tracer interface {
	// Resize the internal buffers for the given frame dimensions and reset
	// the sample accumulator.
	Resize(width, height int) error

	// Attach a compiled scene. Resets the sample accumulator.
	SetScene(cs *scene.CompiledScene) error

	// Render a single sample per pixel and merge it into the accumulator.
	RenderFrame() (FrameStats, error)

	// Get the current accumulated frame as linear radiance in scanline
	// order. The returned slice aliases internal storage and is only valid
	// until the next RenderFrame call.
	Accumulated() []types.Vec3

	// Get the number of accumulated samples per pixel.
	SampleCount() int
}
