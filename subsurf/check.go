package subsurf

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gorustyt/gosubsurf/common"
)

// CheckTopology verifies that adjacency is symmetric and that every reference
// points at a live element. It returns all violations joined.
func (ss *SubSurf) CheckTopology() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	liveVert := func(i VertIndex) bool { return i >= 0 && int(i) < len(ss.verts) && ss.verts[i] != nil }
	liveEdge := func(i EdgeIndex) bool { return i >= 0 && int(i) < len(ss.edges) && ss.edges[i] != nil }
	liveFace := func(i FaceIndex) bool { return i >= 0 && int(i) < len(ss.faces) && ss.faces[i] != nil }

	for _, v := range ss.Verts() {
		for _, ei := range v.edges {
			if !liveEdge(ei) {
				bad("vertex %d references dead edge %d", v.hdl, ei)
				continue
			}
			e := ss.edges[ei]
			if e.v0 != v.idx && e.v1 != v.idx {
				bad("vertex %d lists edge %d which does not end at it", v.hdl, e.hdl)
			}
		}
		for _, fi := range v.faces {
			if !liveFace(fi) {
				bad("vertex %d references dead face %d", v.hdl, fi)
				continue
			}
			if ss.faces[fi].VertSlot(v.idx) < 0 {
				bad("vertex %d lists face %d which does not use it", v.hdl, ss.faces[fi].hdl)
			}
		}
	}

	for _, e := range ss.Edges() {
		if e.v0 == e.v1 {
			bad("edge %d is degenerate", e.hdl)
		}
		for _, vi := range [2]VertIndex{e.v0, e.v1} {
			if !liveVert(vi) {
				bad("edge %d references dead vertex %d", e.hdl, vi)
				continue
			}
			if !slices.Contains(ss.verts[vi].edges, e.idx) {
				bad("edge %d missing from vertex %d", e.hdl, ss.verts[vi].hdl)
			}
		}
		for _, fi := range e.faces {
			if !liveFace(fi) {
				bad("edge %d references dead face %d", e.hdl, fi)
				continue
			}
			if ss.faces[fi].EdgeSlot(e.idx) < 0 {
				bad("edge %d lists face %d which does not use it", e.hdl, ss.faces[fi].hdl)
			}
		}
	}

	grids := 0
	for _, f := range ss.Faces() {
		n := len(f.verts)
		grids += n
		for i := range n {
			vi, ei := f.verts[i], f.edges[i]
			if !liveVert(vi) || !liveEdge(ei) {
				bad("face %d references dead elements at corner %d", f.hdl, i)
				continue
			}
			if !slices.Contains(ss.verts[vi].faces, f.idx) {
				bad("face %d missing from vertex %d", f.hdl, ss.verts[vi].hdl)
			}
			e := ss.edges[ei]
			if !slices.Contains(e.faces, f.idx) {
				bad("face %d missing from edge %d", f.hdl, e.hdl)
			}
			next := f.verts[(i+1)%n]
			if !((e.v0 == vi && e.v1 == next) || (e.v1 == vi && e.v0 == next)) {
				bad("face %d edge %d does not join corners %d and %d", f.hdl, i, i, (i+1)%n)
			}
		}
	}
	if grids != ss.numGrids {
		bad("grid count %d, faces hold %d", ss.numGrids, grids)
	}
	return errors.Join(errs...)
}

func recNear(a, b rec, tol float32) bool {
	for i := range 3 {
		if common.Abs(a.s.Co[i]-b.s.Co[i]) > tol {
			return false
		}
	}
	if common.Abs(a.s.Mask-b.s.Mask) > tol {
		return false
	}
	for i := range a.a {
		if common.Abs(a.a[i]-b.a[i]) > tol {
			return false
		}
	}
	return true
}

// CheckSharedSamples verifies at every level that the samples stored more
// than once (centers, corners, edge lines and interior edges) agree within
// tol.
func (ss *SubSurf) CheckSharedSamples(tol float32) error {
	var errs []error
	for lvl := 1; lvl <= ss.subdivLevels; lvl++ {
		gs := GridSize(lvl)
		es := EdgeSize(lvl)
		last := gs - 1
		for _, e := range ss.Edges() {
			if !recNear(ss.edgeRec(e, lvl, 0), ss.vertRec(ss.verts[e.v0], lvl), tol) ||
				!recNear(ss.edgeRec(e, lvl, es-1), ss.vertRec(ss.verts[e.v1], lvl), tol) {
				errs = append(errs, fmt.Errorf("level %d: edge %d endpoints differ from vertices", lvl, e.hdl))
			}
		}
		for _, f := range ss.Faces() {
			n := len(f.verts)
			center := ss.faceCenterRec(f, lvl)
			for S := range n {
				S1 := common.Next(S, n)
				vi := f.verts[S]
				e := ss.edges[f.edges[S]]
				prevE := ss.edges[f.edges[common.Prev(S, n)]]
				if !recNear(ss.faceRec(f, lvl, S, 0, 0), center, tol) {
					errs = append(errs, fmt.Errorf("level %d: face %d grid %d center differs", lvl, f.hdl, S))
				}
				if !recNear(ss.faceRec(f, lvl, S, last, last), ss.vertRec(ss.verts[vi], lvl), tol) {
					errs = append(errs, fmt.Errorf("level %d: face %d grid %d corner differs from vertex", lvl, f.hdl, S))
				}
				for x := range gs {
					if !recNear(ss.faceRec(f, lvl, S, x, 0), ss.faceRec(f, lvl, S1, 0, x), tol) {
						errs = append(errs, fmt.Errorf("level %d: face %d interior edge %d differs at %d", lvl, f.hdl, S, x))
					}
					if !recNear(ss.faceRec(f, lvl, S, last, x), ss.edgeRecVert(e, vi, lvl, last-x), tol) {
						errs = append(errs, fmt.Errorf("level %d: face %d grid %d differs from edge %d at %d", lvl, f.hdl, S, e.hdl, x))
					}
					if !recNear(ss.faceRec(f, lvl, S, x, last), ss.edgeRecVert(prevE, vi, lvl, last-x), tol) {
						errs = append(errs, fmt.Errorf("level %d: face %d grid %d differs from edge %d at %d", lvl, f.hdl, S, prevE.hdl, x))
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}
