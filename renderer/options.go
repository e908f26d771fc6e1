package renderer

import "github.com/achilleasa/lumen/tracer"

// Options for single-frame rendering.
type Options struct {
	// Frame dimensions.
	Width  int
	Height int

	// The number of samples to accumulate per pixel.
	SamplesPerPixel int

	// Exposure multiplier applied before tone-mapping.
	Exposure float32

	// Path-tracing pipeline settings.
	Settings tracer.Settings
}

// Get the options used when the caller does not override anything.
func DefaultOptions() Options {
	return Options{
		Width:           512,
		Height:          512,
		SamplesPerPixel: 16,
		Exposure:        1.0,
		Settings:        tracer.DefaultSettings(),
	}
}
