package subsurf

import (
	"fmt"
	"math"

	"github.com/gorustyt/gosubsurf/subdiv"
)

// Sample accessors return pointers into the store. They stay valid until the
// element is freed or the subdivision depth changes. Normals are only filled
// at the finest level and only when normal calculation is enabled.

func (ss *SubSurf) checkLevel(lvl int) error {
	if lvl < 0 || lvl > ss.subdivLevels {
		return fmt.Errorf("%w: %d of %d", ErrInvalidLevel, lvl, ss.subdivLevels)
	}
	return nil
}

// VertData returns the finest sample of v.
func (ss *SubSurf) VertData(v *Vert) *Sample {
	return &v.data[ss.subdivLevels]
}

func (ss *SubSurf) VertLevelData(v *Vert, lvl int) (*Sample, error) {
	if err := ss.checkLevel(lvl); err != nil {
		return nil, err
	}
	return &v.data[lvl], nil
}

// VertAttrs returns the attribute block of v at lvl, nil without attributes.
func (ss *SubSurf) VertAttrs(v *Vert, lvl int) ([]float32, error) {
	if err := ss.checkLevel(lvl); err != nil {
		return nil, err
	}
	return ss.attrBlock(v.attrs, lvl), nil
}

// EdgeData returns finest sample x of e counted from V0.
func (ss *SubSurf) EdgeData(e *Edge, x int) *Sample {
	return ss.edgeRec(e, ss.subdivLevels, x).s
}

func (ss *SubSurf) EdgeLevelData(e *Edge, x, lvl int) (*Sample, error) {
	if err := ss.checkLevel(lvl); err != nil {
		return nil, err
	}
	if x < 0 || x >= EdgeSize(lvl) {
		return nil, fmt.Errorf("%w: edge sample %d at level %d", ErrInvalidValue, x, lvl)
	}
	return ss.edgeRec(e, lvl, x).s, nil
}

func (ss *SubSurf) EdgeAttrs(e *Edge, x, lvl int) ([]float32, error) {
	if _, err := ss.EdgeLevelData(e, x, lvl); err != nil {
		return nil, err
	}
	return ss.edgeRec(e, lvl, x).a, nil
}

// FaceCenterData returns the finest center sample of f.
func (ss *SubSurf) FaceCenterData(f *Face) *Sample {
	return ss.faceCenterRec(f, ss.subdivLevels).s
}

// FaceGridEdgeData returns sample x of the interior edge leaving the center
// towards the midpoint of edge S.
func (ss *SubSurf) FaceGridEdgeData(f *Face, S, x int) *Sample {
	return ss.faceRec(f, ss.subdivLevels, S, x, 0).s
}

// FaceGridData returns finest sample (x, y) of corner grid S.
func (ss *SubSurf) FaceGridData(f *Face, S, x, y int) *Sample {
	return ss.faceRec(f, ss.subdivLevels, S, x, y).s
}

// FaceGridLevelData returns sample (x, y) of corner grid S at lvl.
func (ss *SubSurf) FaceGridLevelData(f *Face, lvl, S, x, y int) (*Sample, error) {
	if lvl < 1 || lvl > ss.subdivLevels {
		return nil, fmt.Errorf("%w: face level %d of %d", ErrInvalidLevel, lvl, ss.subdivLevels)
	}
	gs := GridSize(lvl)
	if S < 0 || S >= len(f.verts) || x < 0 || x >= gs || y < 0 || y >= gs {
		return nil, fmt.Errorf("%w: grid %d sample (%d, %d) at level %d", ErrInvalidValue, S, x, y, lvl)
	}
	return ss.faceRec(f, lvl, S, x, y).s, nil
}

func (ss *SubSurf) FaceGridAttrs(f *Face, lvl, S, x, y int) ([]float32, error) {
	if _, err := ss.FaceGridLevelData(f, lvl, S, x, y); err != nil {
		return nil, err
	}
	return ss.faceRec(f, lvl, S, x, y).a, nil
}

// FaceGrid returns the finest samples of corner grid S in row-major order.
// The slice aliases the store.
func (ss *SubSurf) FaceGrid(f *Face, S int) []Sample {
	gs := ss.GridSize()
	start := faceSampleIndex(len(f.verts), ss.subdivLevels, S, 0, 0)
	return f.data[start : start+gs*gs : start+gs*gs]
}

// QuadSample returns the finest sample nearest to quad coordinates (u, v) of
// a four sided face. u runs from corner 0 towards corner 1 and v from corner
// 0 towards corner 3.
func (ss *SubSurf) QuadSample(f *Face, u, v float32) (*Sample, error) {
	if len(f.verts) != 4 {
		return nil, fmt.Errorf("%w: face %d has %d corners", ErrInvalidValue, f.hdl, len(f.verts))
	}
	if !(u >= 0 && u <= 1 && v >= 0 && v <= 1) {
		return nil, fmt.Errorf("%w: quad coordinates (%v, %v)", ErrInvalidValue, u, v)
	}
	S, cu, cv := subdiv.RotateQuadToCorner(u, v)
	last := float64(ss.GridSize() - 1)
	x := int(math.Round((1 - float64(cv)) * last))
	y := int(math.Round((1 - float64(cu)) * last))
	return ss.FaceGridData(f, S, x, y), nil
}
