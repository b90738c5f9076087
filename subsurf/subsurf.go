// Package subsurf evaluates Catmull-Clark subdivision surfaces over an
// arbitrary polygon cage and stores the result as per-element sample grids.
//
// Topology is declared through sync passes. A full pass redeclares the whole
// cage and lets the store diff it against the previous one; a partial pass
// edits individual elements in place. ProcessSync then re-evaluates only the
// region touched by the changes.
package subsurf

import (
	"fmt"

	"github.com/gorustyt/gosubsurf/ehash"
	"go.uber.org/zap"
)

const defaultParallelThreshold = 256

// Config configures a SubSurf. The zero value is not usable: SubdivLevels must
// be in [1, MaxLevels].
type Config struct {
	SubdivLevels int
	// NumAttrs is the number of float layers carried next to each position.
	NumAttrs int

	// AllowEdgeCreation lets SyncFace create edges that were not declared,
	// with DefaultCreaseValue as their crease.
	AllowEdgeCreation  bool
	DefaultCreaseValue float32

	CalcVertNormals bool
	AllocMask       bool
	UseAgeCounts    bool
	// SimpleSubdiv treats every edge as fully sharp so faces are split
	// without smoothing.
	SimpleSubdiv bool

	// ParallelThreshold is the number of effected faces from which face
	// stages are spread over goroutines. Zero picks a default, a negative
	// value keeps evaluation on the calling goroutine.
	ParallelThreshold int

	SampleAllocator Allocator[Sample]
	AttrAllocator   Allocator[float32]

	Logger *zap.Logger
}

// SubSurf is the subdivision store. It is not safe for concurrent use.
type SubSurf struct {
	vMap *ehash.Table[VertHDL, VertIndex]
	eMap *ehash.Table[EdgeHDL, EdgeIndex]
	fMap *ehash.Table[FaceHDL, FaceIndex]

	// Previous maps, only set during a full sync.
	oldVMap *ehash.Table[VertHDL, VertIndex]
	oldEMap *ehash.Table[EdgeHDL, EdgeIndex]
	oldFMap *ehash.Table[FaceHDL, FaceIndex]

	verts     []*Vert
	edges     []*Edge
	faces     []*Face
	freeVerts []VertIndex
	freeEdges []EdgeIndex
	freeFaces []FaceIndex

	subdivLevels       int
	numAttrs           int
	allowEdgeCreation  bool
	defaultCreaseValue float32
	calcVertNormals    bool
	allocMask          bool
	useAgeCounts       bool
	simpleSubdiv       bool
	parallelThreshold  int

	numGrids   int
	currentAge int
	syncState  SyncState

	sampleAlloc Allocator[Sample]
	attrAlloc   Allocator[float32]
	log         *zap.Logger
}

func validLevels(levels int) bool {
	return levels >= 1 && levels <= MaxLevels
}

func validCrease(c float32) bool {
	return c >= 0 && c <= 1
}

// New creates an empty store.
func New(cfg *Config) (*SubSurf, error) {
	if !validLevels(cfg.SubdivLevels) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, cfg.SubdivLevels)
	}
	if cfg.NumAttrs < 0 {
		return nil, fmt.Errorf("%w: negative attribute count %d", ErrInvalidValue, cfg.NumAttrs)
	}
	if !validCrease(cfg.DefaultCreaseValue) {
		return nil, fmt.Errorf("%w: default crease %v", ErrInvalidValue, cfg.DefaultCreaseValue)
	}
	ss := &SubSurf{
		vMap:               ehash.New[VertHDL, VertIndex](0),
		eMap:               ehash.New[EdgeHDL, EdgeIndex](0),
		fMap:               ehash.New[FaceHDL, FaceIndex](0),
		subdivLevels:       cfg.SubdivLevels,
		numAttrs:           cfg.NumAttrs,
		allowEdgeCreation:  cfg.AllowEdgeCreation,
		defaultCreaseValue: cfg.DefaultCreaseValue,
		calcVertNormals:    cfg.CalcVertNormals,
		allocMask:          cfg.AllocMask,
		useAgeCounts:       cfg.UseAgeCounts,
		simpleSubdiv:       cfg.SimpleSubdiv,
		parallelThreshold:  cfg.ParallelThreshold,
		sampleAlloc:        cfg.SampleAllocator,
		attrAlloc:          cfg.AttrAllocator,
		log:                cfg.Logger,
	}
	if ss.parallelThreshold == 0 {
		ss.parallelThreshold = defaultParallelThreshold
	}
	if ss.sampleAlloc == nil {
		ss.sampleAlloc = HeapAllocator[Sample]{}
	}
	if ss.attrAlloc == nil {
		ss.attrAlloc = HeapAllocator[float32]{}
	}
	if ss.log == nil {
		ss.log = zap.NewNop()
	}
	return ss, nil
}

// Free releases every element buffer back to the allocators. The store is
// empty afterwards and can be reused.
func (ss *SubSurf) Free() {
	for _, f := range ss.faces {
		if f != nil {
			ss.freeFaceData(f)
		}
	}
	for _, e := range ss.edges {
		if e != nil {
			ss.freeEdgeData(e)
		}
	}
	for _, v := range ss.verts {
		if v != nil {
			ss.freeVertData(v)
		}
	}
	ss.verts, ss.edges, ss.faces = nil, nil, nil
	ss.freeVerts, ss.freeEdges, ss.freeFaces = nil, nil, nil
	ss.vMap = ehash.New[VertHDL, VertIndex](0)
	ss.eMap = ehash.New[EdgeHDL, EdgeIndex](0)
	ss.fMap = ehash.New[FaceHDL, FaceIndex](0)
	ss.oldVMap, ss.oldEMap, ss.oldFMap = nil, nil, nil
	ss.numGrids = 0
	ss.syncState = SyncStateNone
}

// SetSubdivisionLevels changes the depth. A different depth discards all
// elements since their buffers are sized per depth.
func (ss *SubSurf) SetSubdivisionLevels(levels int) error {
	if !validLevels(levels) {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, levels)
	}
	if ss.syncState != SyncStateNone {
		return ErrInvalidSyncState
	}
	if levels == ss.subdivLevels {
		return nil
	}
	ss.log.Debug("subdivision levels changed, clearing store",
		zap.Int("from", ss.subdivLevels), zap.Int("to", levels))
	ss.Free()
	ss.subdivLevels = levels
	return nil
}

func (ss *SubSurf) SetAllowEdgeCreation(allow bool, defaultCrease float32) error {
	if !validCrease(defaultCrease) {
		return fmt.Errorf("%w: default crease %v", ErrInvalidValue, defaultCrease)
	}
	ss.allowEdgeCreation = allow
	ss.defaultCreaseValue = defaultCrease
	return nil
}

func (ss *SubSurf) AllowEdgeCreation() (bool, float32) {
	return ss.allowEdgeCreation, ss.defaultCreaseValue
}

// SetCalcVertexNormals takes effect on the next ProcessSync.
func (ss *SubSurf) SetCalcVertexNormals(enable bool) { ss.calcVertNormals = enable }

// SetAllocMask controls whether the mask channel of declared vertex data is
// stored. Without it masks stay zero.
func (ss *SubSurf) SetAllocMask(enable bool) { ss.allocMask = enable }

func (ss *SubSurf) SetUseAgeCounts(enable bool) { ss.useAgeCounts = enable }

func (ss *SubSurf) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	ss.log = log
}

func (ss *SubSurf) SubdivisionLevels() int { return ss.subdivLevels }
func (ss *SubSurf) NumAttrs() int          { return ss.numAttrs }
func (ss *SubSurf) SyncState() SyncState   { return ss.syncState }
func (ss *SubSurf) CurrentAge() int        { return ss.currentAge }

// GridSize is the finest corner grid side length.
func (ss *SubSurf) GridSize() int { return GridSize(ss.subdivLevels) }

// EdgeSize is the finest number of samples along an edge.
func (ss *SubSurf) EdgeSize() int { return EdgeSize(ss.subdivLevels) }

func (ss *SubSurf) NumVerts() int { return ss.vMap.Len() }
func (ss *SubSurf) NumEdges() int { return ss.eMap.Len() }
func (ss *SubSurf) NumFaces() int { return ss.fMap.Len() }

// NumGrids is the total corner count over all faces.
func (ss *SubSurf) NumGrids() int { return ss.numGrids }

// NumFinalVerts counts distinct samples of the finest level.
func (ss *SubSurf) NumFinalVerts() int {
	g := ss.GridSize()
	es := ss.EdgeSize()
	return ss.NumVerts() +
		ss.NumEdges()*(es-2) +
		ss.NumFaces() +
		ss.numGrids*((g-2)+(g-2)*(g-2))
}

func (ss *SubSurf) NumFinalEdges() int {
	g := ss.GridSize()
	es := ss.EdgeSize()
	return ss.NumEdges()*(es-1) +
		ss.numGrids*((g-1)+2*(g-2)*(g-1))
}

func (ss *SubSurf) NumFinalFaces() int {
	g := ss.GridSize()
	return ss.numGrids * (g - 1) * (g - 1)
}

// Vert looks up a vertex by handle.
func (ss *SubSurf) Vert(h VertHDL) (*Vert, bool) {
	i, ok := ss.vMap.Lookup(h)
	if !ok {
		return nil, false
	}
	return ss.verts[i], true
}

func (ss *SubSurf) Edge(h EdgeHDL) (*Edge, bool) {
	i, ok := ss.eMap.Lookup(h)
	if !ok {
		return nil, false
	}
	return ss.edges[i], true
}

func (ss *SubSurf) Face(h FaceHDL) (*Face, bool) {
	i, ok := ss.fMap.Lookup(h)
	if !ok {
		return nil, false
	}
	return ss.faces[i], true
}

func (ss *SubSurf) VertAt(i VertIndex) *Vert { return ss.verts[i] }
func (ss *SubSurf) EdgeAt(i EdgeIndex) *Edge { return ss.edges[i] }
func (ss *SubSurf) FaceAt(i FaceIndex) *Face { return ss.faces[i] }

// Verts returns the live vertices in hash order.
func (ss *SubSurf) Verts() []*Vert {
	res := make([]*Vert, 0, ss.vMap.Len())
	ss.vMap.Each(func(_ VertHDL, i VertIndex) { res = append(res, ss.verts[i]) })
	return res
}

func (ss *SubSurf) Edges() []*Edge {
	res := make([]*Edge, 0, ss.eMap.Len())
	ss.eMap.Each(func(_ EdgeHDL, i EdgeIndex) { res = append(res, ss.edges[i]) })
	return res
}

func (ss *SubSurf) Faces() []*Face {
	res := make([]*Face, 0, ss.fMap.Len())
	ss.fMap.Each(func(_ FaceHDL, i FaceIndex) { res = append(res, ss.faces[i]) })
	return res
}

// VertIsBoundary reports whether any edge of v has fewer than two faces.
func (ss *SubSurf) VertIsBoundary(v *Vert) bool {
	for _, ei := range v.edges {
		if ss.edges[ei].IsBoundary() {
			return true
		}
	}
	return false
}

// FindEdge returns the edge joining two vertices, if any.
func (ss *SubSurf) FindEdge(v0, v1 *Vert) (*Edge, bool) {
	for _, ei := range v0.edges {
		e := ss.edges[ei]
		if (e.v0 == v0.idx && e.v1 == v1.idx) || (e.v1 == v0.idx && e.v0 == v1.idx) {
			return e, true
		}
	}
	return nil, false
}
