package main

import (
	"os"

	"github.com/achilleasa/lbvh/cmd"
	"github.com/urfave/cli"
)

var builderFlag = cli.StringFlag{
	Name:  "builder, b",
	Value: "lbvh",
	Usage: "hierarchy construction algorithm (lbvh or sah)",
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lbvh"
	app.Usage = "build and query linear bounding volume hierarchies"
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
		cli.StringFlag{
			Name:   "log-level",
			Usage:  "log verbosity (debug, info, notice, warning, error); overrides -v and -vv",
			EnvVar: "LBVH_LOG_LEVEL",
		},
		cli.IntFlag{
			Name:   "workers, w",
			Value:  0,
			Usage:  "number of parallel workers (0 uses all available CPUs)",
			EnvVar: "LBVH_WORKERS",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a BVH for one or more scenes and display its statistics",
			Description: `
Parse a scene definition from a wavefront obj file and build a bounding volume
hierarchy over its triangles, either a linear BVH from sorted Morton codes or a
top-down SAH BVH. Scene and tree statistics, including the time spent in each
build phase, are displayed for every scene argument.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Flags: []cli.Flag{
				builderFlag,
			},
			Action: cmd.BuildTree,
		},
		{
			Name:        "trace",
			Usage:       "trace a single frame",
			Description: `Trace a single frame of a scene and display per-bounce ray statistics.`,
			ArgsUsage:   "scene_file.obj",
			Flags: []cli.Flag{
				builderFlag,
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
					Value: 4,
					Usage: "samples per pixel",
				},
				cli.IntFlag{
					Name:  "num-bounces",
					Value: 4,
					Usage: "max number of bounces per path",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "seed for the path sampling generators",
				},
				cli.BoolFlag{
					Name:  "any-hit",
					Usage: "stop traversal at the first intersection found",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame (empty to skip)",
				},
			},
			Action: cmd.TraceFrame,
		},
		{
			Name:  "bench",
			Usage: "benchmark LBVH and SAH BVH queries against brute-force intersection",
			Description: `
Generate a random triangle soup and a batch of random rays, then trace the rays
using the LBVH, the SAH BVH and a brute-force test against every triangle. The
command exits with a non-zero status if any tree result differs from the
brute-force result.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "triangles",
					Value: 100000,
					Usage: "number of random triangles",
				},
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of random rays",
				},
				cli.Float64Flag{
					Name:  "max-size",
					Value: 2,
					Usage: "max triangle edge size",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "seed for the random generator",
				},
			},
			Action: cmd.Bench,
		},
	}

	app.Run(os.Args)
}
