package cmd

import (
	"github.com/urfave/cli"
)

// Compile a built-in scene and print the memory footprint of its tables.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := sceneByName(ctx.Args().First())
	if err != nil {
		return err
	}

	cs, err := s.Compile()
	if err != nil {
		return err
	}

	logger.Noticef("scene table stats:\n%s", cs.Stats())
	return nil
}
