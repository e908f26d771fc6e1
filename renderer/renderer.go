package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/achilleasa/lumen/log"
	"github.com/achilleasa/lumen/scene"
	"github.com/achilleasa/lumen/tracer"
	"github.com/achilleasa/lumen/tracer/wavefront"
	"github.com/achilleasa/lumen/types"
)

// Render a scene into a tone-mapped 8-bit image, accumulating the requested
// number of samples per pixel.
func Render(s *scene.Scene, opts Options) (image.Image, error) {
	if s == nil {
		return nil, ErrSceneNotDefined
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if opts.SamplesPerPixel <= 0 {
		return nil, ErrInvalidSampleCount
	}

	cs, err := s.Compile()
	if err != nil {
		return nil, err
	}
	return RenderCompiled(cs, wavefront.New(opts.Settings), opts)
}

// Render a pre-compiled scene with the supplied tracer.
func RenderCompiled(cs *scene.CompiledScene, tr tracer.Tracer, opts Options) (image.Image, error) {
	logger := log.New("renderer")

	if err := tr.Resize(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	if err := tr.SetScene(cs); err != nil {
		return nil, err
	}

	start := time.Now()
	var total tracer.FrameStats
	for sample := 0; sample < opts.SamplesPerPixel; sample++ {
		stats, err := tr.RenderFrame()
		if err != nil {
			return nil, err
		}
		total.PrimaryRays += stats.PrimaryRays
		total.BounceRays += stats.BounceRays
		total.ShadowRays += stats.ShadowRays
	}

	elapsed := time.Since(start)
	logger.Noticef("rendered %d samples per pixel in %d ms\n%s",
		opts.SamplesPerPixel, elapsed.Nanoseconds()/1e6, renderStats(total, elapsed))

	return tonemap(tr.Accumulated(), opts.Width, opts.Height, opts.Exposure), nil
}

// Summarize the ray totals of a finished sample loop as an aligned table.
func renderStats(total tracer.FrameStats, elapsed time.Duration) string {
	totalRays := total.PrimaryRays + total.BounceRays + total.ShadowRays

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.SetHeader([]string{"Pass", "Rays"})
	table.Append([]string{"Primary", strconv.Itoa(total.PrimaryRays)})
	table.Append([]string{"Bounce", strconv.Itoa(total.BounceRays)})
	table.Append([]string{"Shadow", strconv.Itoa(total.ShadowRays)})
	table.SetFooter([]string{
		"Throughput",
		fmt.Sprintf("%.2f Mrays/sec", float64(totalRays)/elapsed.Seconds()/1e6),
	})

	table.Render()
	return buf.String()
}

// Apply exposure, reinhard tone-mapping and gamma correction to the
// accumulated radiance and pack it into an RGBA image.
func tonemap(radiance []types.Vec3, width, height int, exposure float32) *image.RGBA {
	if exposure <= 0 {
		exposure = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, c := range radiance {
		img.SetRGBA(i%width, i/width, color.RGBA{
			R: encodeChannel(c[0] * exposure),
			G: encodeChannel(c[1] * exposure),
			B: encodeChannel(c[2] * exposure),
			A: 255,
		})
	}
	return img
}

func encodeChannel(v float32) uint8 {
	mapped := v / (1 + v)
	corrected := math.Pow(float64(mapped), 1/2.2)
	out := int(corrected*255 + 0.5)
	if out > 255 {
		out = 255
	}
	if out < 0 {
		out = 0
	}
	return uint8(out)
}
