package subsurf

import (
	"fmt"

	"github.com/gorustyt/gosubsurf/common"
)

func (ss *SubSurf) allFaces() []*Face {
	return ss.Faces()
}

// resolveLevel maps 0 to the finest level and checks the range.
func (ss *SubSurf) resolveLevel(lvl int) (int, error) {
	if lvl == 0 {
		return ss.subdivLevels, nil
	}
	if lvl < 1 || lvl > ss.subdivLevels {
		return 0, fmt.Errorf("%w: %d of %d", ErrInvalidLevel, lvl, ss.subdivLevels)
	}
	return lvl, nil
}

// effectedFaceNeighbors flags the faces and collects the vertices and edges
// all of whose faces are among them. A nil slice means every face.
func (ss *SubSurf) effectedFaceNeighbors(faces []*Face) (effV []*Vert, effE []*Edge, effF []*Face) {
	if faces == nil {
		faces = ss.allFaces()
	}
	for _, f := range faces {
		f.flags |= FaceEffected
	}
	for _, f := range faces {
		for _, vi := range f.verts {
			v := ss.verts[vi]
			if v.flags&VertEffected != 0 {
				continue
			}
			all := true
			for _, fi := range v.faces {
				if ss.faces[fi].flags&FaceEffected == 0 {
					all = false
					break
				}
			}
			if all {
				v.flags |= VertEffected
				effV = append(effV, v)
			}
		}
		for _, ei := range f.edges {
			e := ss.edges[ei]
			if e.flags&EdgeEffected != 0 {
				continue
			}
			all := true
			for _, fi := range e.faces {
				if ss.faces[fi].flags&FaceEffected == 0 {
					all = false
					break
				}
			}
			if all {
				e.flags |= EdgeEffected
				effE = append(effE, e)
			}
		}
	}
	return effV, effE, faces
}

func (ss *SubSurf) checkIdle() error {
	if ss.syncState != SyncStateNone {
		return ErrInvalidSyncState
	}
	return nil
}

// UpdateFromFaces copies face grid boundaries at lvl back into the vertex and
// edge samples they duplicate. Use it after editing face grids directly.
func (ss *SubSurf) UpdateFromFaces(lvl int, faces []*Face) error {
	if err := ss.checkIdle(); err != nil {
		return err
	}
	lvl, err := ss.resolveLevel(lvl)
	if err != nil {
		return err
	}
	if faces == nil {
		faces = ss.allFaces()
	}
	gs := GridSize(lvl)
	cornerIdx := gs - 1
	for _, f := range faces {
		n := len(f.verts)
		for S := range n {
			vi := f.verts[S]
			e := ss.edges[f.edges[S]]
			prevE := ss.edges[f.edges[common.Prev(S, n)]]
			ss.vertRec(ss.verts[vi], lvl).copyFrom(ss.faceRec(f, lvl, S, cornerIdx, cornerIdx))
			for x := range gs {
				eI := gs - 1 - x
				ss.edgeRecVert(e, vi, lvl, eI).copyFrom(ss.faceRec(f, lvl, S, cornerIdx, x))
				ss.edgeRecVert(prevE, vi, lvl, eI).copyFrom(ss.faceRec(f, lvl, S, x, cornerIdx))
			}
		}
	}
	return nil
}

// UpdateToFaces refreshes the shared samples held by faces at lvl from the
// vertex, edge and center data.
func (ss *SubSurf) UpdateToFaces(lvl int, faces []*Face) error {
	if err := ss.checkIdle(); err != nil {
		return err
	}
	lvl, err := ss.resolveLevel(lvl)
	if err != nil {
		return err
	}
	if faces == nil {
		faces = ss.allFaces()
	}
	for _, f := range faces {
		ss.faceCopyDown(f, lvl)
	}
	return nil
}

// StitchFaces averages every sample shared between faces at lvl so that
// neighbouring grids agree again, then writes the result to all copies.
// Vertices and edges with a face outside the set are left as they are.
func (ss *SubSurf) StitchFaces(lvl int, faces []*Face) error {
	if err := ss.checkIdle(); err != nil {
		return err
	}
	lvl, err := ss.resolveLevel(lvl)
	if err != nil {
		return err
	}
	effV, effE, faces := ss.effectedFaceNeighbors(faces)
	defer clearEffected(effV, effE, faces)

	gs := GridSize(lvl)
	es := EdgeSize(lvl)
	cornerIdx := gs - 1

	for _, v := range effV {
		if len(v.faces) > 0 {
			ss.vertRec(v, lvl).zero()
		}
	}
	for _, e := range effE {
		if len(e.faces) > 0 {
			for x := range es {
				ss.edgeRec(e, lvl, x).zero()
			}
		}
	}

	tmp := newScratch(ss.numAttrs)
	for _, f := range faces {
		n := len(f.verts)

		c := tmp.q
		c.zero()
		for S := range n {
			c.add(ss.faceRec(f, lvl, S, 0, 0))
		}
		c.mulN(1 / float32(n))
		for S := range n {
			ss.faceRec(f, lvl, S, 0, 0).copyFrom(c)
		}
		for S := range n {
			S1 := common.Next(S, n)
			for x := 1; x < gs-1; x++ {
				a := ss.faceRec(f, lvl, S, x, 0)
				b := ss.faceRec(f, lvl, S1, 0, x)
				a.add(b)
				a.mulN(0.5)
				b.copyFrom(a)
			}
		}

		for S := range n {
			v := ss.verts[f.verts[S]]
			if v.flags&VertEffected != 0 {
				ss.vertRec(v, lvl).add(ss.faceRec(f, lvl, S, cornerIdx, cornerIdx))
			}
			e := ss.edges[f.edges[S]]
			if e.flags&EdgeEffected != 0 {
				for x := 1; x < es-1; x++ {
					ss.edgeRec(e, lvl, x).add(ss.faceEdgeRec(f, S, e, lvl, x, 0))
				}
			}
		}
	}

	for _, v := range effV {
		if len(v.faces) > 0 {
			ss.vertRec(v, lvl).mulN(1 / float32(len(v.faces)))
		}
	}
	for _, e := range effE {
		if len(e.faces) > 0 {
			for x := 1; x < es-1; x++ {
				ss.edgeRec(e, lvl, x).mulN(1 / float32(len(e.faces)))
			}
		}
		ss.edgeRec(e, lvl, 0).copyFrom(ss.vertRec(ss.verts[e.v0], lvl))
		ss.edgeRec(e, lvl, es-1).copyFrom(ss.vertRec(ss.verts[e.v1], lvl))
	}

	for _, f := range faces {
		ss.faceCopyDown(f, lvl)
	}
	return nil
}

// UpdateNormals recomputes finest level normals over faces.
func (ss *SubSurf) UpdateNormals(faces []*Face) error {
	if err := ss.checkIdle(); err != nil {
		return err
	}
	effV, effE, faces := ss.effectedFaceNeighbors(faces)
	ss.calcNormals(effV, effE, faces)
	clearEffected(effV, effE, faces)
	return nil
}

// UpdateLevels re-evaluates levels above lvl from the data at lvl, after the
// caller edited that level directly.
func (ss *SubSurf) UpdateLevels(lvl int, faces []*Face) error {
	if err := ss.checkIdle(); err != nil {
		return err
	}
	lvl, err := ss.resolveLevel(lvl)
	if err != nil {
		return err
	}
	effV, effE, faces := ss.effectedFaceNeighbors(faces)
	for curLvl := lvl; curLvl < ss.subdivLevels; curLvl++ {
		ss.calcSubdivLevel(effV, effE, faces, curLvl)
	}
	clearEffected(effV, effE, faces)
	return nil
}
