// Package parallel provides the data-parallel primitives used by the LBVH
// construction phases and the ray tracer.
//
// Work is expressed as a range of item indices which is split into contiguous
// blocks; each block is processed by its own goroutine. For returns only after
// every block has been processed which makes it a full barrier between
// successive phases.
package parallel

import (
	"runtime"
	"sync"
)

// A contiguous [Start, End) range of work items.
type Block struct {
	Start int
	End   int
}

// Len returns the number of items in the block.
func (b Block) Len() int {
	return b.End - b.Start
}

// Workers returns the number of workers to use for a requested worker count.
// Non-positive values select runtime.GOMAXPROCS(0).
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return requested
}

// Split n items into at most workers contiguous blocks. Items that do not
// divide evenly are spread over the first blocks so that block lengths differ
// by at most one. No empty blocks are ever returned.
func Blocks(n, workers int) []Block {
	if n <= 0 {
		return nil
	}

	workers = Workers(workers)
	if workers > n {
		workers = n
	}

	blocks := make([]Block, workers)
	rows := n / workers
	extra := n % workers
	start := 0
	for index := range blocks {
		size := rows
		if index < extra {
			size++
		}
		blocks[index] = Block{Start: start, End: start + size}
		start += size
	}

	return blocks
}

// For invokes fn once for each block of the [0, n) range and waits for all
// invocations to return. When the range fits a single block fn runs on the
// calling goroutine.
func For(n, workers int, fn func(start, end int)) {
	blocks := Blocks(n, workers)
	switch len(blocks) {
	case 0:
		return
	case 1:
		fn(blocks[0].Start, blocks[0].End)
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(blocks))
	for _, block := range blocks {
		go func(block Block) {
			defer wg.Done()
			fn(block.Start, block.End)
		}(block)
	}
	wg.Wait()
}
