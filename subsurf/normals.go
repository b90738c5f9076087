package subsurf

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gosubsurf/common"
)

const normalEps = 1e-35

// quadNormal returns the unnormalized normal of the grid quad at (x, y):
// the cross product of its diagonals.
func (ss *SubSurf) quadNormal(f *Face, lvl, S, x, y int) mgl32.Vec3 {
	a := f.data[faceSampleIndex(len(f.verts), lvl, S, x+0, y+0)].Co
	b := f.data[faceSampleIndex(len(f.verts), lvl, S, x+1, y+0)].Co
	c := f.data[faceSampleIndex(len(f.verts), lvl, S, x+1, y+1)].Co
	d := f.data[faceSampleIndex(len(f.verts), lvl, S, x+0, y+1)].Co
	no := d.Sub(b).Cross(c.Sub(a))
	if no.Len() <= normalEps {
		return mgl32.Vec3{}
	}
	return no
}

func (ss *SubSurf) faceNo(f *Face, lvl, S, x, y int) *mgl32.Vec3 {
	return &f.data[faceSampleIndex(len(f.verts), lvl, S, x, y)].No
}

// calcNormals recomputes finest level normals of the effected region.
// Samples on edges or vertices outside the region keep their normals.
func (ss *SubSurf) calcNormals(effV []*Vert, effE []*Edge, effF []*Face) {
	lvl := ss.subdivLevels
	gs := GridSize(lvl)
	es := EdgeSize(lvl)

	ss.forFaces(effF, func(f *Face, _ *scratch) { ss.accumulateFaceNormals(f, lvl) })

	for _, v := range effV {
		var no mgl32.Vec3
		for _, fi := range v.faces {
			f := ss.faces[fi]
			no = no.Add(*ss.faceNo(f, lvl, f.VertSlot(v.idx), gs-1, gs-1))
		}
		if len(v.faces) == 0 {
			no = v.data[lvl].Co
		}
		no = common.VnormalizeEps(no, normalEps)
		v.data[lvl].No = no
		for _, fi := range v.faces {
			f := ss.faces[fi]
			*ss.faceNo(f, lvl, f.VertSlot(v.idx), gs-1, gs-1) = no
		}
	}

	for _, e := range effE {
		if len(e.faces) == 0 {
			for x := range es {
				ss.edgeRec(e, lvl, x).s.No = mgl32.Vec3{}
			}
			continue
		}
		for x := 1; x < es-1; x++ {
			var no mgl32.Vec3
			for _, fi := range e.faces {
				f := ss.faces[fi]
				no = no.Add(ss.faceEdgeRec(f, f.EdgeSlot(e.idx), e, lvl, x, 0).s.No)
			}
			no = common.VnormalizeEps(no, normalEps)
			for _, fi := range e.faces {
				f := ss.faces[fi]
				ss.faceEdgeRec(f, f.EdgeSlot(e.idx), e, lvl, x, 0).s.No = no
			}
		}
	}

	ss.forFaces(effF, func(f *Face, _ *scratch) { ss.finishFaceNormals(f, lvl) })

	for _, e := range effE {
		if len(e.faces) == 0 {
			continue
		}
		f := ss.faces[e.faces[0]]
		slot := f.EdgeSlot(e.idx)
		for x := range es {
			ss.edgeRec(e, lvl, x).s.No = ss.faceEdgeRec(f, slot, e, lvl, x, 0).s.No
		}
	}
}

// accumulateFaceNormals sums quad normals into the samples of f that are
// being recomputed and merges the copies f holds of shared samples.
func (ss *SubSurf) accumulateFaceNormals(f *Face, lvl int) {
	gs := GridSize(lvl)
	n := len(f.verts)
	last := gs - 1

	for S := range n {
		xLimit := ss.edges[f.edges[S]].flags&EdgeEffected == 0
		yLimit := ss.edges[f.edges[common.Prev(S, n)]].flags&EdgeEffected == 0
		vertOK := ss.verts[f.verts[S]].flags&VertEffected != 0

		for y := range gs {
			for x := range gs {
				onX, onY := x == last, y == last
				switch {
				case onX && onY:
					if !vertOK {
						continue
					}
				case onX:
					if xLimit {
						continue
					}
				case onY:
					if yLimit {
						continue
					}
				}
				*ss.faceNo(f, lvl, S, x, y) = mgl32.Vec3{}
			}
		}

		for y := 0; y < gs-1; y++ {
			for x := 0; x < gs-1; x++ {
				no := ss.quadNormal(f, lvl, S, x, y)
				xPlusOK := !xLimit || x < gs-2
				yPlusOK := !yLimit || y < gs-2

				p := ss.faceNo(f, lvl, S, x, y)
				*p = p.Add(no)
				if xPlusOK {
					p = ss.faceNo(f, lvl, S, x+1, y)
					*p = p.Add(no)
				}
				if yPlusOK {
					p = ss.faceNo(f, lvl, S, x, y+1)
					*p = p.Add(no)
				}
				if xPlusOK && yPlusOK && (x < gs-2 || y < gs-2 || vertOK) {
					p = ss.faceNo(f, lvl, S, x+1, y+1)
					*p = p.Add(no)
				}
			}
		}
	}

	var center mgl32.Vec3
	for S := range n {
		center = center.Add(*ss.faceNo(f, lvl, S, 0, 0))
	}
	for S := range n {
		*ss.faceNo(f, lvl, S, 0, 0) = center
	}

	for S := range n {
		S1 := common.Next(S, n)
		for k := 1; k < gs; k++ {
			if k == last && ss.edges[f.edges[S]].flags&EdgeEffected == 0 {
				continue
			}
			a := ss.faceNo(f, lvl, S, k, 0)
			b := ss.faceNo(f, lvl, S1, 0, k)
			sum := a.Add(*b)
			*a, *b = sum, sum
		}
	}
}

// finishFaceNormals normalizes the samples owned by f and refreshes the
// second copy of each edge midpoint.
func (ss *SubSurf) finishFaceNormals(f *Face, lvl int) {
	gs := GridSize(lvl)
	n := len(f.verts)
	for S := range n {
		S1 := common.Next(S, n)
		*ss.faceNo(f, lvl, S1, 0, gs-1) = *ss.faceNo(f, lvl, S, gs-1, 0)
		for y := 0; y < gs-1; y++ {
			for x := 0; x < gs-1; x++ {
				p := ss.faceNo(f, lvl, S, x, y)
				*p = common.VnormalizeEps(*p, normalEps)
			}
		}
	}
}
