package subsurf

import "slices"

func (ss *SubSurf) allocBuffers(n int) ([]Sample, []float32, error) {
	data, err := ss.sampleAlloc.Alloc(n)
	if err != nil {
		return nil, nil, err
	}
	var attrs []float32
	if ss.numAttrs > 0 {
		attrs, err = ss.attrAlloc.Alloc(n * ss.numAttrs)
		if err != nil {
			ss.sampleAlloc.Free(data)
			return nil, nil, err
		}
	}
	return data, attrs, nil
}

func (ss *SubSurf) freeBuffers(data []Sample, attrs []float32) {
	if data != nil {
		ss.sampleAlloc.Free(data)
	}
	if attrs != nil {
		ss.attrAlloc.Free(attrs)
	}
}

func (ss *SubSurf) freeVertData(v *Vert) {
	ss.freeBuffers(v.data, v.attrs)
	v.data, v.attrs = nil, nil
}

func (ss *SubSurf) freeEdgeData(e *Edge) {
	ss.freeBuffers(e.data, e.attrs)
	e.data, e.attrs = nil, nil
}

func (ss *SubSurf) freeFaceData(f *Face) {
	ss.freeBuffers(f.data, f.attrs)
	f.data, f.attrs = nil, nil
}

func (ss *SubSurf) newVert(h VertHDL) (*Vert, error) {
	data, attrs, err := ss.allocBuffers(vertSampleCount(ss.subdivLevels))
	if err != nil {
		return nil, err
	}
	v := &Vert{hdl: h, data: data, attrs: attrs, ExtIndex: -1, pass: ss.currentAge}
	if n := len(ss.freeVerts); n > 0 {
		v.idx = ss.freeVerts[n-1]
		ss.freeVerts = ss.freeVerts[:n-1]
		ss.verts[v.idx] = v
	} else {
		v.idx = VertIndex(len(ss.verts))
		ss.verts = append(ss.verts, v)
	}
	return v, nil
}

func (ss *SubSurf) freeVert(v *Vert) {
	ss.freeVertData(v)
	ss.verts[v.idx] = nil
	ss.freeVerts = append(ss.freeVerts, v.idx)
}

func (ss *SubSurf) newEdge(h EdgeHDL, v0, v1 *Vert, crease float32) (*Edge, error) {
	data, attrs, err := ss.allocBuffers(edgeSampleCount(ss.subdivLevels))
	if err != nil {
		return nil, err
	}
	e := &Edge{hdl: h, crease: crease, v0: v0.idx, v1: v1.idx, data: data, attrs: attrs, pass: ss.currentAge}
	if n := len(ss.freeEdges); n > 0 {
		e.idx = ss.freeEdges[n-1]
		ss.freeEdges = ss.freeEdges[:n-1]
		ss.edges[e.idx] = e
	} else {
		e.idx = EdgeIndex(len(ss.edges))
		ss.edges = append(ss.edges, e)
	}
	v0.edges = append(v0.edges, e.idx)
	v1.edges = append(v1.edges, e.idx)
	return e, nil
}

func (ss *SubSurf) freeEdge(e *Edge) {
	ss.freeEdgeData(e)
	ss.edges[e.idx] = nil
	ss.freeEdges = append(ss.freeEdges, e.idx)
}

// allocFace reserves the sample buffers of a face with numVerts corners. When
// reuse is set its buffers are resized in place and handed over.
func (ss *SubSurf) allocFace(h FaceHDL, numVerts int, reuse *Face) (*Face, error) {
	n := faceSampleCount(numVerts, ss.subdivLevels)
	f := &Face{hdl: h, ExtIndex: -1, pass: ss.currentAge}
	if reuse != nil {
		oldLen := len(reuse.data)
		data, err := ss.sampleAlloc.Realloc(reuse.data, n)
		if err != nil {
			return nil, err
		}
		reuse.data = data
		if ss.numAttrs > 0 {
			attrs, err := ss.attrAlloc.Realloc(reuse.attrs, n*ss.numAttrs)
			if err != nil {
				if data, rerr := ss.sampleAlloc.Realloc(reuse.data, oldLen); rerr == nil {
					reuse.data = data
				}
				// Grid contents may have been cut; have them rebuilt.
				for _, vi := range reuse.verts {
					ss.markVert(vi)
				}
				return nil, err
			}
			reuse.attrs = attrs
		}
		f.data, f.attrs = reuse.data, reuse.attrs
		reuse.data, reuse.attrs = nil, nil
		return f, nil
	}
	data, attrs, err := ss.allocBuffers(n)
	if err != nil {
		return nil, err
	}
	f.data, f.attrs = data, attrs
	return f, nil
}

// linkFace places an allocated face in the arena and records it in the
// adjacency of its corners and edges.
func (ss *SubSurf) linkFace(f *Face, verts []*Vert, edges []*Edge) {
	n := len(verts)
	f.verts = make([]VertIndex, n)
	f.edges = make([]EdgeIndex, n)
	for i := range n {
		f.verts[i] = verts[i].idx
		f.edges[i] = edges[i].idx
	}
	if k := len(ss.freeFaces); k > 0 {
		f.idx = ss.freeFaces[k-1]
		ss.freeFaces = ss.freeFaces[:k-1]
		ss.faces[f.idx] = f
	} else {
		f.idx = FaceIndex(len(ss.faces))
		ss.faces = append(ss.faces, f)
	}
	for i := range n {
		verts[i].faces = append(verts[i].faces, f.idx)
		edges[i].faces = append(edges[i].faces, f.idx)
	}
}

func (ss *SubSurf) freeFace(f *Face) {
	ss.freeFaceData(f)
	ss.faces[f.idx] = nil
	ss.freeFaces = append(ss.freeFaces, f.idx)
}

func removeIndex[T comparable](s []T, x T) []T {
	if i := slices.Index(s, x); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

func (ss *SubSurf) markVert(vi VertIndex) {
	ss.verts[vi].flags |= VertEffected
}

// markVertNeighbors flags every vertex whose subdivided position depends on v.
func (ss *SubSurf) markVertNeighbors(v *Vert) {
	for _, ei := range v.edges {
		e := ss.edges[ei]
		ss.markVert(e.v0)
		ss.markVert(e.v1)
	}
	for _, fi := range v.faces {
		for _, vi := range ss.faces[fi].verts {
			ss.markVert(vi)
		}
	}
}

func (ss *SubSurf) edgeUnlinkMarkAndFree(e *Edge) {
	for _, vi := range [2]VertIndex{e.v0, e.v1} {
		v := ss.verts[vi]
		v.edges = removeIndex(v.edges, e.idx)
		v.flags |= VertEffected
	}
	ss.freeEdge(e)
}

func (ss *SubSurf) faceUnlinkMarkAndFree(f *Face) {
	for _, ei := range f.edges {
		e := ss.edges[ei]
		e.faces = removeIndex(e.faces, f.idx)
	}
	for _, vi := range f.verts {
		v := ss.verts[vi]
		v.faces = removeIndex(v.faces, f.idx)
		v.flags |= VertEffected
	}
	ss.freeFace(f)
}

// findEdgeTo returns the newest edge joining v and vQ. During a full sync only
// edges already placed in the new map qualify, plus implicitly created edges
// of the previous pass which may be adopted.
func (ss *SubSurf) findEdgeTo(v, vQ *Vert, fullSync bool) *Edge {
	for i := len(v.edges) - 1; i >= 0; i-- {
		e := ss.edges[v.edges[i]]
		if !((e.v0 == v.idx && e.v1 == vQ.idx) || (e.v1 == v.idx && e.v0 == vQ.idx)) {
			continue
		}
		if !fullSync || e.pass == ss.currentAge {
			return e
		}
		if e.hdl == NoEdgeHDL && e.crease == ss.defaultCreaseValue {
			return e
		}
	}
	return nil
}

// adoptEdge moves an implicit edge of the previous pass into the new map.
func (ss *SubSurf) adoptEdge(e *Edge) {
	entry, prev := ss.oldEMap.LookupWithPrevFunc(e.hdl, func(i EdgeIndex) bool { return i == e.idx })
	if entry == nil {
		return
	}
	ss.oldEMap.UnlinkAt(prev)
	ss.eMap.InsertEntry(entry)
	e.pass = ss.currentAge
	e.flags = 0
	if (ss.verts[e.v0].flags|ss.verts[e.v1].flags)&VertChanged != 0 {
		ss.markVert(e.v0)
		ss.markVert(e.v1)
	}
}
