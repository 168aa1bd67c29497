package cmd

import (
	"errors"

	"github.com/achilleasa/lbvh/asset/reader"
	"github.com/achilleasa/lbvh/lbvh"
	"github.com/urfave/cli"
)

// Build a hierarchy for each scene argument and display scene and tree statistics.
func BuildTree(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() == 0 {
		return errors.New("missing scene file argument")
	}

	builder, err := lbvh.ParseBuilder(ctx.String("builder"))
	if err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		sceneFile := ctx.Args().Get(idx)
		sc, err := reader.ReadScene(sceneFile)
		if err != nil {
			return err
		}
		logger.Noticef("scene information for %s:\n%s", sceneFile, sc.Stats())

		tree := lbvh.BuildWith(builder, sc.Triangles, lbvh.Options{Workers: workers(ctx)})
		logger.Noticef("%s tree information for %s:\n%s", builder, sceneFile, tree.Stats())
	}

	return nil
}
