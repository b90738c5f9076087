package subsurf

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Handles are opaque caller identifiers used as hash keys.
type (
	VertHDL int
	EdgeHDL int
	FaceHDL int
)

// NoEdgeHDL is the handle given to edges created implicitly by SyncFace.
const NoEdgeHDL EdgeHDL = -1

// Arena indices. Adjacency is stored as indices, never as pointers.
type (
	VertIndex int32
	EdgeIndex int32
	FaceIndex int32
)

const (
	NoVert VertIndex = -1
	NoEdge EdgeIndex = -1
	NoFace FaceIndex = -1
)

type VertFlags uint8

const (
	VertEffected VertFlags = 1 << iota
	VertChanged
	VertSeam
)

type EdgeFlags uint8

const (
	EdgeEffected EdgeFlags = 1 << iota
)

type FaceFlags uint8

const (
	FaceEffected FaceFlags = 1 << iota
)

// Sample is one grid point. Normals are only meaningful at the finest level.
type Sample struct {
	Co   mgl32.Vec3
	No   mgl32.Vec3
	Mask float32
}

// VertData is the coarse record declared for a vertex in SyncVert.
type VertData struct {
	Co   mgl32.Vec3
	Mask float32
	// Attrs holds Config.NumAttrs custom layers subdivided like positions.
	// A nil slice stands for all zeros.
	Attrs []float32
}

type Vert struct {
	hdl   VertHDL
	idx   VertIndex
	flags VertFlags
	// ExtIndex correlates the vertex with an external library.
	ExtIndex int

	edges []EdgeIndex
	faces []FaceIndex

	data  []Sample
	attrs []float32
	age   int
	pass  int // sync pass that last placed the vertex in the canonical map
}

func (v *Vert) Handle() VertHDL      { return v.hdl }
func (v *Vert) Index() VertIndex     { return v.idx }
func (v *Vert) Flags() VertFlags     { return v.flags }
func (v *Vert) IsSeam() bool         { return v.flags&VertSeam != 0 }
func (v *Vert) NumEdges() int        { return len(v.edges) }
func (v *Vert) Edge(i int) EdgeIndex { return v.edges[i] }
func (v *Vert) NumFaces() int        { return len(v.faces) }
func (v *Vert) Face(i int) FaceIndex { return v.faces[i] }
func (v *Vert) Age() int             { return v.age }
func (v *Vert) Edges() []EdgeIndex   { return v.edges }
func (v *Vert) Faces() []FaceIndex   { return v.faces }

type Edge struct {
	hdl    EdgeHDL
	idx    EdgeIndex
	flags  EdgeFlags
	crease float32

	v0, v1 VertIndex
	faces  []FaceIndex

	data  []Sample
	attrs []float32
	age   int
	pass  int
}

func (e *Edge) Handle() EdgeHDL      { return e.hdl }
func (e *Edge) Index() EdgeIndex     { return e.idx }
func (e *Edge) Flags() EdgeFlags     { return e.flags }
func (e *Edge) Crease() float32      { return e.crease }
func (e *Edge) V0() VertIndex        { return e.v0 }
func (e *Edge) V1() VertIndex        { return e.v1 }
func (e *Edge) NumFaces() int        { return len(e.faces) }
func (e *Edge) Face(i int) FaceIndex { return e.faces[i] }
func (e *Edge) Faces() []FaceIndex   { return e.faces }
func (e *Edge) Age() int             { return e.age }
func (e *Edge) IsBoundary() bool     { return len(e.faces) < 2 }

// OtherVert returns the endpoint of e that is not v.
func (e *Edge) OtherVert(v VertIndex) VertIndex {
	if v == e.v0 {
		return e.v1
	}
	return e.v0
}

type Face struct {
	hdl   FaceHDL
	idx   FaceIndex
	flags FaceFlags
	// ExtIndex correlates the face with an external library.
	ExtIndex int

	// edges[i] joins verts[i] and verts[(i+1)%n].
	verts []VertIndex
	edges []EdgeIndex

	data  []Sample
	attrs []float32
	age   int
	pass  int
}

func (f *Face) Handle() FaceHDL      { return f.hdl }
func (f *Face) Index() FaceIndex     { return f.idx }
func (f *Face) Flags() FaceFlags     { return f.flags }
func (f *Face) NumVerts() int        { return len(f.verts) }
func (f *Face) Vert(i int) VertIndex { return f.verts[i] }
func (f *Face) Edge(i int) EdgeIndex { return f.edges[i] }
func (f *Face) Verts() []VertIndex   { return f.verts }
func (f *Face) Edges() []EdgeIndex   { return f.edges }
func (f *Face) Age() int             { return f.age }

// VertSlot returns the corner of f holding v, or -1.
func (f *Face) VertSlot(v VertIndex) int {
	for i, fv := range f.verts {
		if fv == v {
			return i
		}
	}
	return -1
}

// EdgeSlot returns the loop position of e in f, or -1.
func (f *Face) EdgeSlot(e EdgeIndex) int {
	for i, fe := range f.edges {
		if fe == e {
			return i
		}
	}
	return -1
}

type SyncState int

const (
	SyncStateNone SyncState = iota
	SyncStateVert
	SyncStateEdge
	SyncStateFace
	SyncStatePartial
)

func (s SyncState) String() string {
	switch s {
	case SyncStateNone:
		return "none"
	case SyncStateVert:
		return "vert"
	case SyncStateEdge:
		return "edge"
	case SyncStateFace:
		return "face"
	case SyncStatePartial:
		return "partial"
	}
	return "unknown"
}
