package subsurf

import (
	"fmt"

	"github.com/gorustyt/gosubsurf/ehash"
	"go.uber.org/zap"
)

// InitFullSync opens a pass that redeclares the whole cage. Vertices, then
// edges, then faces must be declared; anything not redeclared is removed by
// ProcessSync.
func (ss *SubSurf) InitFullSync() error {
	if ss.syncState != SyncStateNone {
		return ErrInvalidSyncState
	}
	ss.currentAge++

	ss.oldVMap, ss.oldEMap, ss.oldFMap = ss.vMap, ss.eMap, ss.fMap
	ss.vMap = ehash.New[VertHDL, VertIndex](ss.oldVMap.Len())
	ss.eMap = ehash.New[EdgeHDL, EdgeIndex](ss.oldEMap.Len())
	ss.fMap = ehash.New[FaceHDL, FaceIndex](ss.oldFMap.Len())

	ss.numGrids = 0
	ss.syncState = SyncStateVert
	return nil
}

// InitPartialSync opens a pass that edits elements in place.
func (ss *SubSurf) InitPartialSync() error {
	if ss.syncState != SyncStateNone {
		return ErrInvalidSyncState
	}
	ss.currentAge++
	ss.syncState = SyncStatePartial
	return nil
}

func (ss *SubSurf) isFullSync() bool {
	switch ss.syncState {
	case SyncStateVert, SyncStateEdge, SyncStateFace:
		return true
	}
	return false
}

func (ss *SubSurf) lookupVert(h VertHDL) (*Vert, error) {
	i, ok := ss.vMap.Lookup(h)
	if !ok {
		return nil, fmt.Errorf("%w: handle %d", ErrVertNotFound, h)
	}
	return ss.verts[i], nil
}

// SyncVert declares vertex h with its coarse data. seam marks the vertex as
// lying on a UV seam so it keeps its boundary shape.
func (ss *SubSurf) SyncVert(h VertHDL, data VertData, seam bool) (*Vert, error) {
	if data.Attrs != nil && len(data.Attrs) != ss.numAttrs {
		return nil, fmt.Errorf("%w: %d attributes, want %d", ErrInvalidValue, len(data.Attrs), ss.numAttrs)
	}
	var seamFlag VertFlags
	if seam {
		seamFlag = VertSeam
	}

	switch ss.syncState {
	case SyncStatePartial:
		i, ok := ss.vMap.Lookup(h)
		if !ok {
			v, err := ss.newVert(h)
			if err != nil {
				return nil, err
			}
			ss.vertRec(v, 0).setData(data, ss.allocMask)
			ss.vMap.Insert(h, v.idx)
			v.flags = VertEffected | seamFlag
			return v, nil
		}
		v := ss.verts[i]
		if !ss.vertRec(v, 0).equalData(data, ss.allocMask) || v.flags&VertSeam != seamFlag {
			ss.vertRec(v, 0).setData(data, ss.allocMask)
			v.flags = VertEffected | seamFlag
			ss.markVertNeighbors(v)
		}
		return v, nil

	case SyncStateVert:
		if _, ok := ss.vMap.Lookup(h); ok {
			return nil, fmt.Errorf("%w: vertex %d", ErrDuplicateHandle, h)
		}
		entry, prev := ss.oldVMap.LookupWithPrev(h)
		if entry == nil {
			v, err := ss.newVert(h)
			if err != nil {
				return nil, err
			}
			ss.vertRec(v, 0).setData(data, ss.allocMask)
			ss.vMap.Insert(h, v.idx)
			v.flags = VertEffected | seamFlag
			return v, nil
		}
		v := ss.verts[entry.Value]
		ss.oldVMap.UnlinkAt(prev)
		ss.vMap.InsertEntry(entry)
		v.pass = ss.currentAge
		if !ss.vertRec(v, 0).equalData(data, ss.allocMask) || v.flags&VertSeam != seamFlag {
			ss.vertRec(v, 0).setData(data, ss.allocMask)
			v.flags = VertEffected | VertChanged | seamFlag
		} else {
			v.flags = seamFlag
		}
		return v, nil
	}
	return nil, ErrInvalidSyncState
}

// SyncEdge declares edge h from v0 to v1. crease is in [0, 1], 1 being a
// sharp edge at every level. In a partial pass an existing edge may be
// redeclared in either orientation; it keeps its stored one.
func (ss *SubSurf) SyncEdge(h EdgeHDL, v0h, v1h VertHDL, crease float32) (*Edge, error) {
	if !validCrease(crease) {
		return nil, fmt.Errorf("%w: crease %v", ErrInvalidValue, crease)
	}
	if v0h == v1h {
		return nil, fmt.Errorf("%w: edge %d", ErrDegenerateEdge, h)
	}

	switch ss.syncState {
	case SyncStatePartial:
		v0, err := ss.lookupVert(v0h)
		if err != nil {
			return nil, err
		}
		v1, err := ss.lookupVert(v1h)
		if err != nil {
			return nil, err
		}
		entry, _ := ss.eMap.LookupWithPrev(h)
		if entry == nil {
			e, err := ss.newEdge(h, v0, v1, crease)
			if err != nil {
				return nil, err
			}
			ss.eMap.Insert(h, e.idx)
			v0.flags |= VertEffected
			v1.flags |= VertEffected
			return e, nil
		}
		e := ss.edges[entry.Value]
		if (e.v0 == v0.idx && e.v1 == v1.idx) || (e.v0 == v1.idx && e.v1 == v0.idx) {
			if e.crease != crease {
				e.crease = crease
				v0.flags |= VertEffected
				v1.flags |= VertEffected
			}
			return e, nil
		}
		if len(e.faces) > 0 {
			return nil, fmt.Errorf("%w: edge %d has %d faces", ErrStillReferenced, h, len(e.faces))
		}
		eNew, err := ss.newEdge(h, v0, v1, crease)
		if err != nil {
			return nil, err
		}
		entry.Value = eNew.idx
		ss.edgeUnlinkMarkAndFree(e)
		v0.flags |= VertEffected
		v1.flags |= VertEffected
		return eNew, nil

	case SyncStateVert, SyncStateEdge:
		if _, ok := ss.eMap.Lookup(h); ok {
			return nil, fmt.Errorf("%w: edge %d", ErrDuplicateHandle, h)
		}
		v0, err := ss.lookupVert(v0h)
		if err != nil {
			return nil, err
		}
		v1, err := ss.lookupVert(v1h)
		if err != nil {
			return nil, err
		}
		entry, prev := ss.oldEMap.LookupWithPrev(h)
		var e *Edge
		if entry != nil {
			e = ss.edges[entry.Value]
		}
		if e == nil || e.v0 != v0.idx || e.v1 != v1.idx || e.crease != crease {
			eNew, err := ss.newEdge(h, v0, v1, crease)
			if err != nil {
				return nil, err
			}
			ss.eMap.Insert(h, eNew.idx)
			v0.flags |= VertEffected
			v1.flags |= VertEffected
			ss.syncState = SyncStateEdge
			return eNew, nil
		}
		ss.oldEMap.UnlinkAt(prev)
		ss.eMap.InsertEntry(entry)
		e.pass = ss.currentAge
		e.flags = 0
		if (v0.flags|v1.flags)&VertChanged != 0 {
			v0.flags |= VertEffected
			v1.flags |= VertEffected
		}
		ss.syncState = SyncStateEdge
		return e, nil
	}
	return nil, ErrInvalidSyncState
}

// SyncFace declares face h over the vertex loop vhs. Edges between
// consecutive vertices must have been declared unless edge creation is
// allowed.
func (ss *SubSurf) SyncFace(h FaceHDL, vhs []VertHDL) (*Face, error) {
	n := len(vhs)
	if n < 3 {
		return nil, fmt.Errorf("%w: face %d has %d corners", ErrDegenerateFace, h, n)
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if vhs[i] == vhs[j] {
				return nil, fmt.Errorf("%w: face %d repeats vertex %d", ErrDegenerateFace, h, vhs[i])
			}
		}
	}

	full := ss.isFullSync()
	if !full && ss.syncState != SyncStatePartial {
		return nil, ErrInvalidSyncState
	}
	if full {
		if _, ok := ss.fMap.Lookup(h); ok {
			return nil, fmt.Errorf("%w: face %d", ErrDuplicateHandle, h)
		}
	}

	verts := make([]*Vert, n)
	for i, vh := range vhs {
		v, err := ss.lookupVert(vh)
		if err != nil {
			return nil, err
		}
		verts[i] = v
	}
	edges := make([]*Edge, n)
	missing := 0
	for k := range n {
		edges[k] = ss.findEdgeTo(verts[k], verts[(k+1)%n], full)
		if edges[k] == nil {
			missing++
		}
	}
	if missing > 0 && !ss.allowEdgeCreation {
		return nil, fmt.Errorf("%w: face %d", ErrMissingEdge, h)
	}

	fmap := ss.fMap
	if full {
		fmap = ss.oldFMap
	}
	entry, prev := fmap.LookupWithPrev(h)
	var old *Face
	if entry != nil {
		old = ss.faces[entry.Value]
	}

	changed := old == nil || len(old.verts) != n
	if !changed {
		for k := range n {
			if edges[k] == nil || old.verts[k] != verts[k].idx || old.edges[k] != edges[k].idx {
				changed = true
				break
			}
		}
	}

	if !changed {
		if full {
			for _, e := range edges {
				if e.pass != ss.currentAge {
					ss.adoptEdge(e)
				}
			}
			fmap.UnlinkAt(prev)
			ss.fMap.InsertEntry(entry)
			old.pass = ss.currentAge
			old.flags = 0
			ss.numGrids += n
			for _, v := range verts {
				if v.flags&VertChanged != 0 {
					for _, vm := range verts {
						vm.flags |= VertEffected
					}
					break
				}
			}
			ss.syncState = SyncStateFace
		}
		return old, nil
	}

	var created []*Edge
	dropCreated := func() {
		for _, c := range created {
			ss.edgeUnlinkMarkAndFree(c)
		}
	}
	for k := range n {
		if edges[k] != nil {
			continue
		}
		e, err := ss.newEdge(NoEdgeHDL, verts[k], verts[(k+1)%n], ss.defaultCreaseValue)
		if err != nil {
			dropCreated()
			return nil, err
		}
		created = append(created, e)
		edges[k] = e
	}

	var reuse *Face
	if !full {
		reuse = old
	}
	f, err := ss.allocFace(h, n, reuse)
	if err != nil {
		dropCreated()
		return nil, err
	}
	for _, e := range created {
		ss.eMap.Insert(NoEdgeHDL, e.idx)
		ss.verts[e.v0].flags |= VertEffected
		ss.verts[e.v1].flags |= VertEffected
	}
	if full {
		for _, e := range edges {
			if e.pass != ss.currentAge {
				ss.adoptEdge(e)
			}
		}
	}

	ss.linkFace(f, verts, edges)
	if old != nil && !full {
		entry.Value = f.idx
		ss.numGrids -= len(old.verts)
		ss.faceUnlinkMarkAndFree(old)
	} else {
		ss.fMap.Insert(h, f.idx)
	}
	ss.numGrids += n
	for _, v := range verts {
		v.flags |= VertEffected
	}
	if full {
		ss.syncState = SyncStateFace
	}
	return f, nil
}

// SyncFaceDel removes face h during a partial sync.
func (ss *SubSurf) SyncFaceDel(h FaceHDL) error {
	if ss.syncState != SyncStatePartial {
		return ErrInvalidSyncState
	}
	entry, prev := ss.fMap.LookupWithPrev(h)
	if entry == nil {
		return fmt.Errorf("%w: handle %d", ErrFaceNotFound, h)
	}
	ss.fMap.UnlinkAt(prev)
	f := ss.faces[entry.Value]
	ss.numGrids -= len(f.verts)
	ss.faceUnlinkMarkAndFree(f)
	return nil
}

// SyncEdgeDel removes edge h during a partial sync. The edge must not be used
// by any face.
func (ss *SubSurf) SyncEdgeDel(h EdgeHDL) error {
	if ss.syncState != SyncStatePartial {
		return ErrInvalidSyncState
	}
	entry, prev := ss.eMap.LookupWithPrev(h)
	if entry == nil {
		return fmt.Errorf("%w: handle %d", ErrEdgeNotFound, h)
	}
	e := ss.edges[entry.Value]
	if len(e.faces) > 0 {
		return fmt.Errorf("%w: edge %d has %d faces", ErrStillReferenced, h, len(e.faces))
	}
	ss.eMap.UnlinkAt(prev)
	ss.edgeUnlinkMarkAndFree(e)
	return nil
}

// SyncVertDel removes vertex h during a partial sync. The vertex must not be
// used by any edge or face.
func (ss *SubSurf) SyncVertDel(h VertHDL) error {
	if ss.syncState != SyncStatePartial {
		return ErrInvalidSyncState
	}
	entry, prev := ss.vMap.LookupWithPrev(h)
	if entry == nil {
		return fmt.Errorf("%w: handle %d", ErrVertNotFound, h)
	}
	v := ss.verts[entry.Value]
	if len(v.edges) > 0 || len(v.faces) > 0 {
		return fmt.Errorf("%w: vertex %d has %d edges and %d faces",
			ErrStillReferenced, h, len(v.edges), len(v.faces))
	}
	ss.vMap.UnlinkAt(prev)
	ss.freeVert(v)
	return nil
}

// ProcessSync closes the open pass, drops everything a full pass did not
// redeclare and re-evaluates the affected region.
func (ss *SubSurf) ProcessSync() error {
	switch ss.syncState {
	case SyncStatePartial:
		ss.syncState = SyncStateNone
		ss.evaluate()
		return nil

	case SyncStateVert, SyncStateEdge, SyncStateFace:
		removedF, removedE, removedV := ss.oldFMap.Len(), ss.oldEMap.Len(), ss.oldVMap.Len()
		ss.oldFMap.Free(func(_ FaceHDL, fi FaceIndex) {
			ss.faceUnlinkMarkAndFree(ss.faces[fi])
		})
		ss.oldEMap.Free(func(_ EdgeHDL, ei EdgeIndex) {
			ss.edgeUnlinkMarkAndFree(ss.edges[ei])
		})
		ss.oldVMap.Free(func(_ VertHDL, vi VertIndex) {
			ss.freeVert(ss.verts[vi])
		})
		ss.oldVMap, ss.oldEMap, ss.oldFMap = nil, nil, nil
		ss.syncState = SyncStateNone

		ss.log.Debug("full sync processed",
			zap.Int("verts", ss.vMap.Len()),
			zap.Int("edges", ss.eMap.Len()),
			zap.Int("faces", ss.fMap.Len()),
			zap.Int("removedVerts", removedV),
			zap.Int("removedEdges", removedE),
			zap.Int("removedFaces", removedF))
		ss.evaluate()
		return nil
	}
	return ErrInvalidSyncState
}
