package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/achilleasa/lbvh/asset/reader"
	"github.com/achilleasa/lbvh/lbvh"
	"github.com/achilleasa/lbvh/tracer"
	"github.com/urfave/cli"
)

// Trace a single frame and display frame statistics.
func TraceFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts := tracer.Options{
		FrameW:          uint32(ctx.Int("width")),
		FrameH:          uint32(ctx.Int("height")),
		SamplesPerPixel: uint32(ctx.Int("spp")),
		NumBounces:      uint32(ctx.Int("num-bounces")),
		Workers:         workers(ctx),
		Seed:            uint64(ctx.Int64("seed")),
		Mode:            lbvh.ClosestHit,
	}
	if ctx.Bool("any-hit") {
		opts.Mode = lbvh.AnyHit
	}

	if ctx.NArg() != 1 {
		return errors.New("missing scene file argument")
	}

	builder, err := lbvh.ParseBuilder(ctx.String("builder"))
	if err != nil {
		return err
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return err
	}

	tree := lbvh.BuildWith(builder, sc.Triangles, lbvh.Options{Workers: opts.Workers})
	logger.Infof("%s tree information:\n%s", builder, tree.Stats())

	tr, err := tracer.New(sc, tree, opts)
	if err != nil {
		return err
	}
	tr.SetCamera(tracer.NewCamera(sc.Camera))

	renderCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := tr.Render(renderCtx)
	if err != nil {
		return err
	}

	logger.Noticef("frame statistics (%s)\n%s", opts.Mode, stats.Table())

	if out := ctx.String("out"); out != "" {
		if err = tr.SaveFrame(out, float32(ctx.Float64("exposure"))); err != nil {
			return err
		}
		logger.Noticef("wrote frame to %s", out)
	}
	if overflows := tree.Overflows(); overflows > 0 {
		logger.Warningf("%d queries exhausted the traversal stack", overflows)
	}
	return nil
}
