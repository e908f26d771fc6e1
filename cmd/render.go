package cmd

import (
	"image/png"
	"os"

	"github.com/achilleasa/lumen/renderer"
	"github.com/achilleasa/lumen/tracer"
	"github.com/urfave/cli"
)

// Render a built-in scene to a png file.
func RenderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := sceneByName(ctx.Args().First())
	if err != nil {
		return err
	}

	opts := renderer.DefaultOptions()
	opts.Width = ctx.Int("width")
	opts.Height = ctx.Int("height")
	opts.SamplesPerPixel = ctx.Int("spp")
	opts.Exposure = float32(ctx.Float64("exposure"))
	opts.Settings.NumBounces = ctx.Int("bounces")
	opts.Settings.EnableNextEventEstimation = !ctx.Bool("no-nee")
	opts.Settings.EnableMultipleImportanceSampling = !ctx.Bool("no-mis")

	switch filter := ctx.String("filter"); filter {
	case "mitchell-netravali":
		opts.Settings.Filter = tracer.FilterMitchellNetravali
	case "gaussian":
		opts.Settings.Filter = tracer.FilterGaussian
	case "box":
		opts.Settings.Filter = tracer.FilterBox
	default:
		return cli.NewExitError("unsupported reconstruction filter: "+filter, 1)
	}

	img, err := renderer.Render(s, opts)
	if err != nil {
		return err
	}

	outFile, err := os.Create(ctx.String("out"))
	if err != nil {
		return err
	}
	defer outFile.Close()

	if err = png.Encode(outFile, img); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s\n", ctx.String("out"))
	return nil
}
