package renderer

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
)

func TestRenderValidation(t *testing.T) {
	opts := DefaultOptions()
	if _, err := Render(nil, opts); err != ErrSceneNotDefined {
		t.Fatalf("expected ErrSceneNotDefined; got %v", err)
	}

	opts.Width = 0
	if _, err := Render(scene.EmptySky(), opts); err != ErrInvalidDimensions {
		t.Fatalf("expected ErrInvalidDimensions; got %v", err)
	}

	opts = DefaultOptions()
	opts.SamplesPerPixel = 0
	if _, err := Render(scene.EmptySky(), opts); err != ErrInvalidSampleCount {
		t.Fatalf("expected ErrInvalidSampleCount; got %v", err)
	}
}

func TestRenderEmptySky(t *testing.T) {
	opts := DefaultOptions()
	opts.Width = 8
	opts.Height = 8
	opts.SamplesPerPixel = 1

	img, err := Render(scene.EmptySky(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds(); got != image.Rect(0, 0, 8, 8) {
		t.Fatalf("expected an 8x8 frame; got %v", got)
	}

	// A uniform sky must tone-map to a uniform non-black image.
	first := img.At(0, 0)
	fr, fg, fb, _ := first.RGBA()
	if fr == 0 && fg == 0 && fb == 0 {
		t.Fatalf("expected a non-black frame")
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if img.At(x, y) != first {
				t.Fatalf("expected a uniform frame; pixel (%d,%d) is %v instead of %v", x, y, img.At(x, y), first)
			}
		}
	}
}

func TestRenderStats(t *testing.T) {
	stats := renderStats(tracer.FrameStats{PrimaryRays: 64, BounceRays: 128, ShadowRays: 32}, time.Second)
	for _, want := range []string{"Primary", "64", "Bounce", "128", "Shadow", "32", "MRAYS/SEC"} {
		if !strings.Contains(stats, want) {
			t.Fatalf("expected stats table to mention %q:\n%s", want, stats)
		}
	}
}

func TestEncodeChannel(t *testing.T) {
	if got := encodeChannel(0); got != 0 {
		t.Fatalf("expected zero radiance to encode to 0; got %d", got)
	}
	if lo, hi := encodeChannel(0.25), encodeChannel(4); lo >= hi {
		t.Fatalf("expected the transfer curve to be monotonic; got %d >= %d", lo, hi)
	}
	if got := encodeChannel(1e6); got != 255 {
		t.Fatalf("expected bright radiance to saturate at 255; got %d", got)
	}
}
