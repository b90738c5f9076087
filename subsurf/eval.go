package subsurf

import (
	"github.com/gorustyt/gosubsurf/common"
	"go.uber.org/zap"
)

func (ss *SubSurf) attrBlock(a []float32, i int) []float32 {
	if ss.numAttrs == 0 {
		return nil
	}
	k := i * ss.numAttrs
	return a[k : k+ss.numAttrs : k+ss.numAttrs]
}

func (ss *SubSurf) vertRec(v *Vert, lvl int) rec {
	return rec{s: &v.data[lvl], a: ss.attrBlock(v.attrs, lvl)}
}

func (ss *SubSurf) edgeRec(e *Edge, lvl, x int) rec {
	i := edgeBase(lvl) + x
	return rec{s: &e.data[i], a: ss.attrBlock(e.attrs, i)}
}

// edgeRecVert addresses sample x of e counted from endpoint v.
func (ss *SubSurf) edgeRecVert(e *Edge, v VertIndex, lvl, x int) rec {
	common.AssertTrue(v == e.v0 || v == e.v1, "vertex %d is not an endpoint of edge %d", v, e.hdl)
	if v == e.v0 {
		return ss.edgeRec(e, lvl, x)
	}
	return ss.edgeRec(e, lvl, EdgeSize(lvl)-1-x)
}

func (ss *SubSurf) faceRec(f *Face, lvl, S, x, y int) rec {
	i := faceSampleIndex(len(f.verts), lvl, S, x, y)
	return rec{s: &f.data[i], a: ss.attrBlock(f.attrs, i)}
}

// faceCenterRec is the canonical copy of the face center at lvl.
func (ss *SubSurf) faceCenterRec(f *Face, lvl int) rec {
	return ss.faceRec(f, lvl, 0, 0, 0)
}

// faceEdgeRec addresses the face sample eY rows inside edge slot of f, at
// position eX along the edge counted from e.v0.
func (ss *SubSurf) faceEdgeRec(f *Face, slot int, e *Edge, lvl, eX, eY int) rec {
	gs := GridSize(lvl)
	t := eX
	if e.v0 != f.verts[slot] {
		t = EdgeSize(lvl) - 1 - eX
	}
	if t <= gs-1 {
		return ss.faceRec(f, lvl, slot, gs-1-eY, gs-1-t)
	}
	return ss.faceRec(f, lvl, common.Next(slot, len(f.verts)), t-(gs-1), gs-1-eY)
}

// edgeSharpness is the remaining crease sharpness of e when subdividing from
// lvl to lvl+1.
func (ss *SubSurf) edgeSharpness(e *Edge, lvl int) float32 {
	crease := e.crease
	if ss.simpleSubdiv {
		crease = 1
	}
	if crease == 0 {
		return 0
	}
	s := crease*float32(ss.subdivLevels) - float32(lvl)
	if s < 0 {
		return 0
	}
	return s
}

// gatherEffected collects flagged vertices and flags the edges and faces
// around them.
func (ss *SubSurf) gatherEffected() (effV []*Vert, effE []*Edge, effF []*Face) {
	ss.vMap.Each(func(_ VertHDL, vi VertIndex) {
		v := ss.verts[vi]
		if v.flags&VertEffected == 0 {
			return
		}
		effV = append(effV, v)
		for _, ei := range v.edges {
			e := ss.edges[ei]
			if e.flags&EdgeEffected == 0 {
				e.flags |= EdgeEffected
				effE = append(effE, e)
			}
		}
		for _, fi := range v.faces {
			f := ss.faces[fi]
			if f.flags&FaceEffected == 0 {
				f.flags |= FaceEffected
				effF = append(effF, f)
			}
		}
	})
	return effV, effE, effF
}

func clearEffected(effV []*Vert, effE []*Edge, effF []*Face) {
	for _, v := range effV {
		v.flags &^= VertEffected | VertChanged
	}
	for _, e := range effE {
		e.flags = 0
	}
	for _, f := range effF {
		f.flags = 0
	}
}

func (ss *SubSurf) evaluate() {
	effV, effE, effF := ss.gatherEffected()
	ss.log.Debug("evaluating",
		zap.Int("effectedVerts", len(effV)),
		zap.Int("effectedEdges", len(effE)),
		zap.Int("effectedFaces", len(effF)),
		zap.Int("levels", ss.subdivLevels))

	if ss.useAgeCounts {
		for _, v := range effV {
			v.age = ss.currentAge
		}
		for _, e := range effE {
			e.age = ss.currentAge
		}
		for _, f := range effF {
			f.age = ss.currentAge
		}
	}

	for curLvl := 0; curLvl < ss.subdivLevels; curLvl++ {
		ss.calcSubdivLevel(effV, effE, effF, curLvl)
	}
	if ss.calcVertNormals {
		ss.calcNormals(effV, effE, effF)
	}
	clearEffected(effV, effE, effF)
}

// calcSubdivLevel computes level curLvl+1 of the effected elements from level
// curLvl. Faces are handled in batches that may run concurrently; edges and
// vertices read across faces and run serially between them.
func (ss *SubSurf) calcSubdivLevel(effV []*Vert, effE []*Edge, effF []*Face, curLvl int) {
	nextLvl := curLvl + 1
	tmp := newScratch(ss.numAttrs)

	if curLvl == 0 {
		ss.forFaces(effF, ss.faceCenters)
		// Level 0 edges mirror their endpoints so neighbour reads are uniform.
		for _, e := range effE {
			ss.edgeRec(e, 0, 0).copyFrom(ss.vertRec(ss.verts[e.v0], 0))
			ss.edgeRec(e, 0, 1).copyFrom(ss.vertRec(ss.verts[e.v1], 0))
		}
	} else {
		ss.forFaces(effF, func(f *Face, _ *scratch) { ss.faceMidpoints(f, curLvl) })
	}

	for _, e := range effE {
		ss.edgeMidpoints(e, curLvl, tmp)
	}
	for _, v := range effV {
		ss.vertShift(v, curLvl, tmp)
	}
	if curLvl > 0 {
		for _, e := range effE {
			ss.edgeShift(e, curLvl, tmp)
		}
		ss.forFaces(effF, func(f *Face, tmp *scratch) { ss.faceShift(f, curLvl, tmp) })
	}

	for _, e := range effE {
		ss.edgeRec(e, nextLvl, 0).copyFrom(ss.vertRec(ss.verts[e.v0], nextLvl))
		ss.edgeRec(e, nextLvl, EdgeSize(nextLvl)-1).copyFrom(ss.vertRec(ss.verts[e.v1], nextLvl))
	}
	ss.forFaces(effF, func(f *Face, _ *scratch) { ss.faceCopyDown(f, nextLvl) })
}

// faceCenters averages the control corners into every grid center at level 1.
func (ss *SubSurf) faceCenters(f *Face, _ *scratch) {
	c := ss.faceCenterRec(f, 1)
	c.zero()
	for _, vi := range f.verts {
		c.add(ss.vertRec(ss.verts[vi], 0))
	}
	c.mulN(1 / float32(len(f.verts)))
	for S := 1; S < len(f.verts); S++ {
		ss.faceRec(f, 1, S, 0, 0).copyFrom(c)
	}
}

// faceMidpoints computes the new points of level curLvl+1 that lie strictly
// inside f: face midpoints, then interior edge midpoints, then the
// midpoints of the grid lines between them.
func (ss *SubSurf) faceMidpoints(f *Face, curLvl int) {
	nextLvl := curLvl + 1
	gs := GridSize(curLvl)
	n := len(f.verts)

	for S := range n {
		for y := 0; y < gs-1; y++ {
			for x := 0; x < gs-1; x++ {
				fx, fy := 2*x+1, 2*y+1
				ss.faceRec(f, nextLvl, S, fx, fy).avg4(
					ss.faceRec(f, curLvl, S, x+0, y+0),
					ss.faceRec(f, curLvl, S, x+1, y+0),
					ss.faceRec(f, curLvl, S, x+1, y+1),
					ss.faceRec(f, curLvl, S, x+0, y+1))
			}
		}
	}

	for S := range n {
		S1 := common.Next(S, n)
		for x := 0; x < gs-1; x++ {
			fx := 2*x + 1
			ss.faceRec(f, nextLvl, S, fx, 0).avg4(
				ss.faceRec(f, curLvl, S, x+0, 0),
				ss.faceRec(f, curLvl, S, x+1, 0),
				ss.faceRec(f, nextLvl, S1, 1, fx),
				ss.faceRec(f, nextLvl, S, fx, 1))
		}
	}

	for S := range n {
		for x := 1; x < gs-1; x++ {
			for y := 0; y < gs-1; y++ {
				fx, fy := 2*x, 2*y+1
				ss.faceRec(f, nextLvl, S, fx, fy).avg4(
					ss.faceRec(f, curLvl, S, x, y+0),
					ss.faceRec(f, curLvl, S, x, y+1),
					ss.faceRec(f, nextLvl, S, fx-1, fy),
					ss.faceRec(f, nextLvl, S, fx+1, fy))
			}
		}
		for y := 1; y < gs-1; y++ {
			for x := 0; x < gs-1; x++ {
				fx, fy := 2*x+1, 2*y
				ss.faceRec(f, nextLvl, S, fx, fy).avg4(
					ss.faceRec(f, curLvl, S, x+0, y),
					ss.faceRec(f, curLvl, S, x+1, y),
					ss.faceRec(f, nextLvl, S, fx, fy-1),
					ss.faceRec(f, nextLvl, S, fx, fy+1))
			}
		}
	}
}

// edgeMidpoints computes the odd samples of e at level curLvl+1.
func (ss *SubSurf) edgeMidpoints(e *Edge, curLvl int, tmp *scratch) {
	nextLvl := curLvl + 1
	es := EdgeSize(curLvl)
	sharpness := ss.edgeSharpness(e, curLvl)
	boundary := e.IsBoundary()
	q, r := tmp.q, tmp.r

	for x := 0; x < es-1; x++ {
		fx := 2*x + 1
		co0 := ss.edgeRec(e, curLvl, x)
		co1 := ss.edgeRec(e, curLvl, x+1)
		co := ss.edgeRec(e, nextLvl, fx)
		if boundary || sharpness > 1 {
			co.copyFrom(co0)
			co.add(co1)
			co.mulN(0.5)
			continue
		}
		q.copyFrom(co0)
		q.add(co1)
		for _, fi := range e.faces {
			f := ss.faces[fi]
			q.add(ss.faceEdgeRec(f, f.EdgeSlot(e.idx), e, nextLvl, fx, 1))
		}
		q.mulN(1 / (2 + float32(len(e.faces))))

		r.copyFrom(co0)
		r.add(co1)
		r.mulN(0.5)

		co.copyFrom(q)
		co.lerpTo(r, sharpness)
	}
}

// vertShift moves v to its position at level curLvl+1.
func (ss *SubSurf) vertShift(v *Vert, curLvl int, tmp *scratch) {
	nextLvl := curLvl + 1
	co := ss.vertRec(v, curLvl)
	nCo := ss.vertRec(v, nextLvl)
	q, r := tmp.q, tmp.r

	sharpCount, allSharp := 0, true
	var avgSharpness float32
	seam := v.flags&VertSeam != 0
	seamEdges := 0
	for _, ei := range v.edges {
		e := ss.edges[ei]
		sharpness := ss.edgeSharpness(e, curLvl)
		if seam && e.IsBoundary() {
			seamEdges++
		}
		if sharpness != 0 {
			sharpCount++
			avgSharpness += sharpness
		} else {
			allSharp = false
		}
	}
	if sharpCount > 0 {
		avgSharpness /= float32(sharpCount)
		if avgSharpness > 1 {
			avgSharpness = 1
		}
	}
	if seamEdges < 2 || seamEdges != len(v.edges) {
		seam = false
	}

	switch {
	case len(v.edges) == 0 || ss.simpleSubdiv:
		nCo.copyFrom(co)

	case ss.VertIsBoundary(v):
		r.zero()
		numBoundary := 0
		for _, ei := range v.edges {
			e := ss.edges[ei]
			if e.IsBoundary() {
				r.add(ss.edgeRecVert(e, v.idx, curLvl, 1))
				numBoundary++
			}
		}
		r.mulN(1 / float32(numBoundary))
		nCo.copyFrom(co)
		nCo.mulN(0.75)
		r.mulN(0.25)
		nCo.add(r)

	default:
		cornerIdx := GridSize(nextLvl) - 2
		numEdges := float32(len(v.edges))
		q.zero()
		for _, fi := range v.faces {
			f := ss.faces[fi]
			q.add(ss.faceRec(f, nextLvl, f.VertSlot(v.idx), cornerIdx, cornerIdx))
		}
		q.mulN(1 / float32(len(v.faces)))
		r.zero()
		for _, ei := range v.edges {
			r.add(ss.edgeRecVert(ss.edges[ei], v.idx, curLvl, 1))
		}
		r.mulN(1 / numEdges)

		nCo.copyFrom(co)
		nCo.mulN(numEdges - 2)
		nCo.add(q)
		nCo.add(r)
		nCo.mulN(1 / numEdges)
	}

	if (sharpCount > 1 && (curLvl == 0 || len(v.faces) > 0)) || seam {
		if seam {
			avgSharpness = 1
			sharpCount = seamEdges
			allSharp = true
		}
		q.zero()
		for _, ei := range v.edges {
			e := ss.edges[ei]
			if seam {
				if e.IsBoundary() {
					q.add(ss.edgeRecVert(e, v.idx, curLvl, 1))
				}
			} else if ss.edgeSharpness(e, curLvl) != 0 {
				q.add(ss.edgeRecVert(e, v.idx, curLvl, 1))
			}
		}
		q.mulN(1 / float32(sharpCount))

		if sharpCount != 2 || allSharp {
			q.lerpTo(co, avgSharpness)
		}
		r.copyFrom(co)
		r.mulN(0.75)
		q.mulN(0.25)
		r.add(q)
		nCo.lerpTo(r, avgSharpness)
	}
}

// edgeShift moves the even interior samples of e at level curLvl+1.
func (ss *SubSurf) edgeShift(e *Edge, curLvl int, tmp *scratch) {
	nextLvl := curLvl + 1
	es := EdgeSize(curLvl)
	sharpness := ss.edgeSharpness(e, curLvl)
	avgSharpness := min(sharpness, 1)
	q, r := tmp.q, tmp.r

	if e.IsBoundary() {
		for x := 1; x < es-1; x++ {
			co := ss.edgeRec(e, curLvl, x)
			nCo := ss.edgeRec(e, nextLvl, 2*x)
			r.copyFrom(ss.edgeRec(e, curLvl, x-1))
			r.add(ss.edgeRec(e, curLvl, x+1))
			r.mulN(0.5)
			nCo.copyFrom(co)
			nCo.mulN(0.75)
			r.mulN(0.25)
			nCo.add(r)
		}
		return
	}

	numFaces := float32(len(e.faces))
	for x := 1; x < es-1; x++ {
		fx := 2 * x
		co := ss.edgeRec(e, curLvl, x)
		nCo := ss.edgeRec(e, nextLvl, fx)
		q.zero()
		r.zero()
		r.add(ss.edgeRec(e, curLvl, x-1))
		r.add(ss.edgeRec(e, curLvl, x+1))
		for _, fi := range e.faces {
			f := ss.faces[fi]
			slot := f.EdgeSlot(e.idx)
			q.add(ss.faceEdgeRec(f, slot, e, nextLvl, fx-1, 1))
			q.add(ss.faceEdgeRec(f, slot, e, nextLvl, fx+1, 1))
			r.add(ss.faceEdgeRec(f, slot, e, curLvl, x, 1))
		}
		q.mulN(1 / (numFaces * 2))
		r.mulN(1 / (2 + numFaces))

		nCo.copyFrom(co)
		nCo.mulN(numFaces)
		nCo.add(q)
		nCo.add(r)
		nCo.mulN(1 / (2 + numFaces))

		if sharpness != 0 {
			q.copyFrom(co)
			q.mulN(6)
			q.add(ss.edgeRec(e, curLvl, x-1))
			q.add(ss.edgeRec(e, curLvl, x+1))
			q.mulN(1.0 / 8)
			nCo.lerpTo(q, avgSharpness)
		}
	}
}

// faceShift moves the even samples strictly inside f at level curLvl+1: the
// center, the grid interiors and the interior edges.
func (ss *SubSurf) faceShift(f *Face, curLvl int, tmp *scratch) {
	nextLvl := curLvl + 1
	gs := GridSize(curLvl)
	n := len(f.verts)
	q, r := tmp.q, tmp.r

	q.zero()
	for S := range n {
		q.add(ss.faceRec(f, nextLvl, S, 1, 1))
	}
	q.mulN(1 / float32(n))
	r.zero()
	for S := range n {
		r.add(ss.faceRec(f, curLvl, S, 1, 0))
	}
	r.mulN(1 / float32(n))
	center := ss.faceCenterRec(f, nextLvl)
	center.copyFrom(ss.faceCenterRec(f, curLvl))
	center.mulN(float32(n) - 2)
	center.add(q)
	center.add(r)
	center.mulN(1 / float32(n))

	for S := range n {
		for x := 1; x < gs-1; x++ {
			for y := 1; y < gs-1; y++ {
				fx, fy := 2*x, 2*y
				co := ss.faceRec(f, curLvl, S, x, y)
				nCo := ss.faceRec(f, nextLvl, S, fx, fy)
				q.avg4(
					ss.faceRec(f, nextLvl, S, fx-1, fy-1),
					ss.faceRec(f, nextLvl, S, fx+1, fy-1),
					ss.faceRec(f, nextLvl, S, fx+1, fy+1),
					ss.faceRec(f, nextLvl, S, fx-1, fy+1))
				r.avg4(
					ss.faceRec(f, nextLvl, S, fx-1, fy+0),
					ss.faceRec(f, nextLvl, S, fx+1, fy+0),
					ss.faceRec(f, nextLvl, S, fx+0, fy-1),
					ss.faceRec(f, nextLvl, S, fx+0, fy+1))
				nCo.copyFrom(co)
				nCo.sub(q)
				nCo.mulN(0.25)
				nCo.add(r)
			}
		}
	}

	for S := range n {
		S1 := common.Next(S, n)
		for x := 1; x < gs-1; x++ {
			fx := 2 * x
			co := ss.faceRec(f, curLvl, S, x, 0)
			nCo := ss.faceRec(f, nextLvl, S, fx, 0)
			q.avg4(
				ss.faceRec(f, nextLvl, S1, 1, fx-1),
				ss.faceRec(f, nextLvl, S1, 1, fx+1),
				ss.faceRec(f, nextLvl, S, fx+1, 1),
				ss.faceRec(f, nextLvl, S, fx-1, 1))
			r.avg4(
				ss.faceRec(f, nextLvl, S, fx-1, 0),
				ss.faceRec(f, nextLvl, S, fx+1, 0),
				ss.faceRec(f, nextLvl, S1, 1, fx),
				ss.faceRec(f, nextLvl, S, fx, 1))
			nCo.copyFrom(co)
			nCo.sub(q)
			nCo.mulN(0.25)
			nCo.add(r)
		}
	}
}

// faceCopyDown fills the samples of f at lvl that duplicate the center,
// vertices, edges or a neighbouring corner grid.
func (ss *SubSurf) faceCopyDown(f *Face, lvl int) {
	gs := GridSize(lvl)
	cornerIdx := gs - 1
	n := len(f.verts)
	center := ss.faceCenterRec(f, lvl)

	for S := range n {
		S1 := common.Next(S, n)
		vi := f.verts[S]
		e := ss.edges[f.edges[S]]
		prevE := ss.edges[f.edges[common.Prev(S, n)]]

		if S > 0 {
			ss.faceRec(f, lvl, S, 0, 0).copyFrom(center)
		}
		ss.faceRec(f, lvl, S, cornerIdx, cornerIdx).copyFrom(ss.vertRec(ss.verts[vi], lvl))
		ss.faceRec(f, lvl, S, cornerIdx, 0).copyFrom(ss.edgeRec(e, lvl, cornerIdx))
		for x := 1; x < gs-1; x++ {
			ss.faceRec(f, lvl, S1, 0, x).copyFrom(ss.faceRec(f, lvl, S, x, 0))
		}
		for x := 0; x < gs-1; x++ {
			eI := gs - 1 - x
			ss.faceRec(f, lvl, S, cornerIdx, x).copyFrom(ss.edgeRecVert(e, vi, lvl, eI))
			ss.faceRec(f, lvl, S, x, cornerIdx).copyFrom(ss.edgeRecVert(prevE, vi, lvl, eI))
		}
	}
}
