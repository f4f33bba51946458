package imaging

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minRowsPerBand keeps small images on the calling goroutine.
const minRowsPerBand = 32

// forEachRow calls fn for every row in [from, to). Rows are split into
// contiguous bands that run concurrently, so fn must only write pixels of its
// own row and only read from buffers that nothing writes during the call.
func forEachRow(from, to int, fn func(y int)) {
	rows := to - from
	if rows <= 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if rows < 2*minRowsPerBand || workers < 2 {
		for y := from; y < to; y++ {
			fn(y)
		}
		return
	}

	band := (rows + workers - 1) / workers
	if band < minRowsPerBand {
		band = minRowsPerBand
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := from; start < to; start += band {
		start, end := start, min(start+band, to)
		g.Go(func() error {
			for y := start; y < end; y++ {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}
