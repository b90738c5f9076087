package subsurf

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// forFaces runs fn over faces. Large batches are split across goroutines,
// each with its own scratch. fn may only write samples owned by its face.
func (ss *SubSurf) forFaces(faces []*Face, fn func(f *Face, tmp *scratch)) {
	if ss.parallelThreshold < 0 || len(faces) < ss.parallelThreshold {
		tmp := newScratch(ss.numAttrs)
		for _, f := range faces {
			fn(f, tmp)
		}
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(faces) + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < len(faces); start += chunk {
		part := faces[start:min(start+chunk, len(faces))]
		g.Go(func() error {
			tmp := newScratch(ss.numAttrs)
			for _, f := range part {
				fn(f, tmp)
			}
			return nil
		})
	}
	_ = g.Wait()
}
