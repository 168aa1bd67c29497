package tracer

import "github.com/achilleasa/lbvh/lbvh"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of samples per pixel.
	SamplesPerPixel uint32

	// Max number of path bounces.
	NumBounces uint32

	// Traversal mode for path segment queries.
	Mode lbvh.Mode

	// Number of workers; values <= 0 select runtime.GOMAXPROCS(0).
	Workers int

	// Seed for the per-block random number generators.
	Seed uint64
}

// Fill in defaults for unset options.
func (opts *Options) setDefaults() {
	if opts.SamplesPerPixel == 0 {
		opts.SamplesPerPixel = 1
	}
	if opts.NumBounces == 0 {
		opts.NumBounces = 1
	}
}
