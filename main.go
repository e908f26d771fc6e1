package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/lumen/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "render scenes using wavefront path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "compile a built-in scene and report its memory footprint",
			Description: `
Compile a built-in scene: validate its materials and textures, build the
acceleration structure and lay out the flattened geometry tables, then print
a breakdown of the memory used by each table.`,
			ArgsUsage: "scene_name",
			Action:    cmd.CompileScene,
		},
		{
			Name:        "render",
			Usage:       "render a built-in scene to a png file",
			Description: `Render a single frame of a built-in scene.`,
			ArgsUsage:   "scene_name",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "spp",
					Value: 16,
					Usage: "samples per pixel",
				},
				cli.IntFlag{
					Name:  "bounces",
					Value: 5,
					Usage: "path segments traced per pixel",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.StringFlag{
					Name:  "filter",
					Value: "mitchell-netravali",
					Usage: "reconstruction filter (mitchell-netravali, gaussian, box)",
				},
				cli.BoolFlag{
					Name:  "no-nee",
					Usage: "disable next event estimation",
				},
				cli.BoolFlag{
					Name:  "no-mis",
					Usage: "disable multiple importance sampling",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: cmd.RenderScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
