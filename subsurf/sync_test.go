package subsurf

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	for _, cfg := range []Config{
		{SubdivLevels: 0},
		{SubdivLevels: MaxLevels + 1},
	} {
		_, err := New(&cfg)
		assert.ErrorIs(t, err, ErrInvalidLevel)
	}
	for _, cfg := range []Config{
		{SubdivLevels: 2, NumAttrs: -1},
		{SubdivLevels: 2, DefaultCreaseValue: 2},
	} {
		_, err := New(&cfg)
		assert.ErrorIs(t, err, ErrInvalidValue)
	}
}

func TestSyncStateMachine(t *testing.T) {
	ss := newTestSubSurf(t, 2)
	assert.Equal(t, SyncStateNone, ss.SyncState())

	_, err := ss.SyncVert(0, VertData{}, false)
	assert.ErrorIs(t, err, ErrInvalidSyncState)
	assert.ErrorIs(t, ss.ProcessSync(), ErrInvalidSyncState)
	assert.ErrorIs(t, ss.SyncFaceDel(0), ErrInvalidSyncState)

	require.NoError(t, ss.InitFullSync())
	assert.Equal(t, SyncStateVert, ss.SyncState())
	assert.ErrorIs(t, ss.InitFullSync(), ErrInvalidSyncState)
	assert.ErrorIs(t, ss.InitPartialSync(), ErrInvalidSyncState)

	m := unitQuad()
	for i := range m.verts {
		_, err := ss.SyncVert(VertHDL(i), m.vertData(i), false)
		require.NoError(t, err)
	}
	_, err = ss.SyncEdge(0, 0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, SyncStateEdge, ss.SyncState())

	_, err = ss.SyncVert(9, VertData{}, false)
	assert.ErrorIs(t, err, ErrInvalidSyncState)
	assert.ErrorIs(t, ss.SyncFaceDel(0), ErrInvalidSyncState)
	assert.ErrorIs(t, ss.SyncEdgeDel(0), ErrInvalidSyncState)
	assert.ErrorIs(t, ss.SyncVertDel(0), ErrInvalidSyncState)

	require.NoError(t, ss.ProcessSync())
	assert.Equal(t, SyncStateNone, ss.SyncState())
	assert.Equal(t, 1, ss.CurrentAge())

	require.NoError(t, ss.InitPartialSync())
	assert.Equal(t, SyncStatePartial, ss.SyncState())
	require.NoError(t, ss.ProcessSync())
	assert.Equal(t, 2, ss.CurrentAge())
}

func TestSyncValidation(t *testing.T) {
	ss := newTestSubSurf(t, 2)
	require.NoError(t, ss.InitFullSync())

	_, err := ss.SyncVert(0, VertData{Attrs: []float32{1}}, false)
	assert.ErrorIs(t, err, ErrInvalidValue)

	m := unitQuad()
	for i := range m.verts {
		_, err := ss.SyncVert(VertHDL(i), m.vertData(i), false)
		require.NoError(t, err)
	}
	_, err = ss.SyncVert(0, m.vertData(0), false)
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	_, err = ss.SyncEdge(0, 0, 9, 0)
	assert.ErrorIs(t, err, ErrVertNotFound)
	_, err = ss.SyncEdge(0, 0, 1, 1.5)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = ss.SyncEdge(0, 0, 1, float32(math.NaN()))
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = ss.SyncEdge(0, 1, 1, 0)
	assert.ErrorIs(t, err, ErrDegenerateEdge)

	_, err = ss.SyncEdge(0, 0, 1, 0)
	require.NoError(t, err)
	_, err = ss.SyncEdge(0, 1, 2, 0)
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	_, err = ss.SyncFace(0, []VertHDL{0, 1})
	assert.ErrorIs(t, err, ErrDegenerateFace)
	_, err = ss.SyncFace(0, []VertHDL{0, 1, 0})
	assert.ErrorIs(t, err, ErrDegenerateFace)
	_, err = ss.SyncFace(0, []VertHDL{0, 1, 2, 3})
	assert.ErrorIs(t, err, ErrMissingEdge)
	_, err = ss.SyncFace(0, []VertHDL{0, 1, 7})
	assert.ErrorIs(t, err, ErrVertNotFound)

	for i, e := range [][2]VertHDL{{1, 2}, {2, 3}, {3, 0}} {
		_, err = ss.SyncEdge(EdgeHDL(i+1), e[0], e[1], 0)
		require.NoError(t, err)
	}
	f, err := ss.SyncFace(0, []VertHDL{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 4, f.NumVerts())
	_, err = ss.SyncFace(0, []VertHDL{0, 1, 2, 3})
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	require.NoError(t, ss.ProcessSync())
	assert.NoError(t, ss.CheckTopology())
	assert.Equal(t, 4, ss.NumGrids())
}

func TestFullResyncUnchanged(t *testing.T) {
	m := cube()
	ss := buildSubSurf(t, 3, m, withNormals)
	before := takeSnapshot(ss)

	fullSync(t, ss, m)
	assert.Equal(t, before, takeSnapshot(ss))
	assert.Equal(t, 8, ss.NumVerts())
	assert.Equal(t, 12, ss.NumEdges())
	assert.Equal(t, 6, ss.NumFaces())
	assert.Equal(t, 24, ss.NumGrids())
	assert.NoError(t, ss.CheckTopology())
}

func TestFullResyncRemovesUndeclared(t *testing.T) {
	ss := buildSubSurf(t, 2, twoQuads())
	before := takeSnapshot(ss)

	fullSync(t, ss, unitQuad())
	assert.Equal(t, 4, ss.NumVerts())
	assert.Equal(t, 4, ss.NumEdges())
	assert.Equal(t, 1, ss.NumFaces())
	assert.Equal(t, 4, ss.NumGrids())
	_, ok := ss.Vert(5)
	assert.False(t, ok)
	_, ok = ss.Face(1)
	assert.False(t, ok)
	assert.NoError(t, ss.CheckTopology())

	after := takeSnapshot(ss)
	assert.Equal(t, before.faces[0], after.faces[0])
}

func TestFullResyncMovedVertex(t *testing.T) {
	m := bumpyGrid(4)
	ss := buildSubSurf(t, 3, m, withNormals)

	moved := bumpyGrid(4)
	moved.verts[12] = moved.verts[12].Add(mgl32.Vec3{0, 0, 1})
	fullSync(t, ss, moved)

	fresh := buildSubSurf(t, 3, moved, withNormals)
	assertSnapshotsNear(t, takeSnapshot(fresh), takeSnapshot(ss))
	assert.NoError(t, ss.CheckSharedSamples(1e-6))
}

func TestPartialSyncIsolation(t *testing.T) {
	ss := buildSubSurf(t, 3, twoQuads())
	before := takeSnapshot(ss)

	require.NoError(t, ss.InitPartialSync())
	_, err := ss.SyncVert(5, VertData{Co: mgl32.Vec3{6, 0, 1}}, false)
	require.NoError(t, err)
	require.NoError(t, ss.ProcessSync())

	after := takeSnapshot(ss)
	assert.Equal(t, before.faces[0], after.faces[0])
	assert.NotEqual(t, before.faces[1], after.faces[1])
	assert.NoError(t, ss.CheckSharedSamples(1e-6))
}

func TestPartialSyncWithoutChanges(t *testing.T) {
	m := bumpyGrid(3)
	ss := buildSubSurf(t, 2, m, withNormals)
	before := takeSnapshot(ss)

	require.NoError(t, ss.InitPartialSync())
	for i := range m.verts {
		_, err := ss.SyncVert(VertHDL(i), m.vertData(i), false)
		require.NoError(t, err)
	}
	require.NoError(t, ss.ProcessSync())
	assert.Equal(t, before, takeSnapshot(ss))
}

func assertSnapshotsNear(t *testing.T, want, got snapshot) {
	t.Helper()
	require.Len(t, got.faces, len(want.faces))
	for h, ws := range want.faces {
		gs := got.faces[h]
		require.Len(t, gs, len(ws), "face %d", h)
		for i := range ws {
			for k := range 3 {
				assert.InDelta(t, ws[i].Co[k], gs[i].Co[k], 1e-5, "face %d sample %d", h, i)
				assert.InDelta(t, ws[i].No[k], gs[i].No[k], 1e-5, "face %d sample %d normal", h, i)
			}
		}
	}
	for h, ws := range want.verts {
		gs := got.verts[h]
		require.Len(t, gs, len(ws), "vertex %d", h)
		for i := range ws {
			for k := range 3 {
				assert.InDelta(t, ws[i].Co[k], gs[i].Co[k], 1e-5, "vertex %d level %d", h, i)
			}
		}
	}
}

func TestPartialMoveMatchesFreshBuild(t *testing.T) {
	m := bumpyGrid(4)
	ss := buildSubSurf(t, 3, m, withNormals)

	moved := bumpyGrid(4)
	moved.verts[12] = moved.verts[12].Add(mgl32.Vec3{0.5, 0, 1})
	require.NoError(t, ss.InitPartialSync())
	_, err := ss.SyncVert(12, moved.vertData(12), false)
	require.NoError(t, err)
	require.NoError(t, ss.ProcessSync())

	fresh := buildSubSurf(t, 3, moved, withNormals)
	assertSnapshotsNear(t, takeSnapshot(fresh), takeSnapshot(ss))
}

func TestPartialDeletes(t *testing.T) {
	ss := buildSubSurf(t, 2, twoQuads())

	require.NoError(t, ss.InitPartialSync())
	assert.ErrorIs(t, ss.SyncFaceDel(7), ErrFaceNotFound)
	assert.ErrorIs(t, ss.SyncEdgeDel(4), ErrStillReferenced)
	assert.ErrorIs(t, ss.SyncVertDel(4), ErrStillReferenced)

	require.NoError(t, ss.SyncFaceDel(1))
	for h := EdgeHDL(4); h < 8; h++ {
		require.NoError(t, ss.SyncEdgeDel(h))
	}
	assert.ErrorIs(t, ss.SyncEdgeDel(4), ErrEdgeNotFound)
	for h := VertHDL(4); h < 8; h++ {
		require.NoError(t, ss.SyncVertDel(h))
	}
	assert.ErrorIs(t, ss.SyncVertDel(4), ErrVertNotFound)
	require.NoError(t, ss.ProcessSync())

	assert.Equal(t, 4, ss.NumVerts())
	assert.Equal(t, 4, ss.NumEdges())
	assert.Equal(t, 1, ss.NumFaces())
	assert.Equal(t, 4, ss.NumGrids())
	assert.NoError(t, ss.CheckTopology())
}

func TestPartialFaceReplacement(t *testing.T) {
	ss := buildSubSurf(t, 2, unitQuad(), withEdgeCreate)

	require.NoError(t, ss.InitPartialSync())
	f, err := ss.SyncFace(0, []VertHDL{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumVerts())
	assert.Equal(t, 3, ss.NumGrids())
	assert.Equal(t, 5, ss.NumEdges())

	assert.ErrorIs(t, ss.SyncVertDel(3), ErrStillReferenced)
	require.NoError(t, ss.SyncEdgeDel(2))
	require.NoError(t, ss.SyncEdgeDel(3))
	require.NoError(t, ss.SyncVertDel(3))
	require.NoError(t, ss.ProcessSync())

	assert.Equal(t, 3, ss.NumVerts())
	assert.Equal(t, 3, ss.NumEdges())
	assert.Equal(t, 1, ss.NumFaces())
	assert.NoError(t, ss.CheckTopology())
	assert.NoError(t, ss.CheckSharedSamples(1e-6))

	tri := &testMesh{
		verts: unitQuad().verts[:3],
		faces: [][]int{{0, 1, 2}},
	}
	fresh := buildSubSurf(t, 2, tri)
	ff, _ := fresh.Face(0)
	for S := range 3 {
		want := fresh.FaceGrid(ff, S)
		got := ss.FaceGrid(f, S)
		require.Len(t, got, len(want))
		for i := range want {
			assertVec(t, want[i].Co, got[i].Co)
		}
	}
}

func TestPartialEdgeUpdates(t *testing.T) {
	m := cube()
	ss := buildSubSurf(t, 2, m)

	var e *Edge
	for _, c := range ss.Edges() {
		a, b := ss.VertAt(c.V0()).Handle(), ss.VertAt(c.V1()).Handle()
		if (a == 6 && b == 2) || (a == 2 && b == 6) {
			e = c
		}
	}
	require.NotNil(t, e)
	v0h, v1h := ss.VertAt(e.V0()).Handle(), ss.VertAt(e.V1()).Handle()

	require.NoError(t, ss.InitPartialSync())
	_, err := ss.SyncEdge(e.Handle(), v0h, 0, 0)
	assert.ErrorIs(t, err, ErrStillReferenced)
	got, err := ss.SyncEdge(e.Handle(), v0h, v1h, 1)
	require.NoError(t, err)
	assert.Same(t, e, got)
	require.NoError(t, ss.ProcessSync())

	// Reversed endpoints name the same edge.
	require.NoError(t, ss.InitPartialSync())
	got, err = ss.SyncEdge(e.Handle(), v1h, v0h, 1)
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Equal(t, v0h, ss.VertAt(got.V0()).Handle())
	assert.Equal(t, 2, got.NumFaces())
	require.NoError(t, ss.ProcessSync())
	require.NoError(t, ss.CheckTopology())

	m.creases = map[[2]int]float32{{2, 6}: 1}
	fresh := buildSubSurf(t, 2, m)
	assertSnapshotsNear(t, takeSnapshot(fresh), takeSnapshot(ss))
}

func TestEdgeCreation(t *testing.T) {
	m := cube()
	ss := newTestSubSurf(t, 2, withEdgeCreate)
	declare := func() {
		require.NoError(t, ss.InitFullSync())
		for i := range m.verts {
			_, err := ss.SyncVert(VertHDL(i), m.vertData(i), false)
			require.NoError(t, err)
		}
		for i, f := range m.faces {
			_, err := ss.SyncFace(FaceHDL(i), faceHandles(f))
			require.NoError(t, err)
		}
		require.NoError(t, ss.ProcessSync())
	}

	declare()
	assert.Equal(t, 12, ss.NumEdges())
	indices := map[EdgeIndex]bool{}
	for _, e := range ss.Edges() {
		assert.Equal(t, NoEdgeHDL, e.Handle())
		assert.Equal(t, float32(0), e.Crease())
		indices[e.Index()] = true
	}
	before := takeSnapshot(ss)

	declare()
	assert.Equal(t, 12, ss.NumEdges())
	for _, e := range ss.Edges() {
		assert.True(t, indices[e.Index()], "edge %d was recreated", e.Index())
	}
	assert.Equal(t, before.faces, takeSnapshot(ss).faces)
	assert.NoError(t, ss.CheckTopology())

	fresh := buildSubSurf(t, 2, m)
	assertSnapshotsNear(t, takeSnapshot(fresh), takeSnapshot(ss))
}

func TestSetSubdivisionLevels(t *testing.T) {
	ss := buildSubSurf(t, 2, unitQuad())

	assert.ErrorIs(t, ss.SetSubdivisionLevels(0), ErrInvalidLevel)
	require.NoError(t, ss.SetSubdivisionLevels(2))
	assert.Equal(t, 1, ss.NumFaces())

	require.NoError(t, ss.InitPartialSync())
	assert.ErrorIs(t, ss.SetSubdivisionLevels(3), ErrInvalidSyncState)
	require.NoError(t, ss.ProcessSync())

	require.NoError(t, ss.SetSubdivisionLevels(3))
	assert.Equal(t, 3, ss.SubdivisionLevels())
	assert.Equal(t, 0, ss.NumVerts())
	assert.Equal(t, 0, ss.NumGrids())

	fullSync(t, ss, unitQuad())
	fresh := buildSubSurf(t, 3, unitQuad())
	assert.Equal(t, takeSnapshot(fresh).faces, takeSnapshot(ss).faces)
}

func TestSetAllowEdgeCreation(t *testing.T) {
	ss := newTestSubSurf(t, 1)
	assert.ErrorIs(t, ss.SetAllowEdgeCreation(true, -0.5), ErrInvalidValue)
	require.NoError(t, ss.SetAllowEdgeCreation(true, 0.25))
	allow, crease := ss.AllowEdgeCreation()
	assert.True(t, allow)
	assert.Equal(t, float32(0.25), crease)

	m := unitQuad()
	require.NoError(t, ss.InitFullSync())
	for i := range m.verts {
		_, err := ss.SyncVert(VertHDL(i), m.vertData(i), false)
		require.NoError(t, err)
	}
	_, err := ss.SyncFace(0, faceHandles(m.faces[0]))
	require.NoError(t, err)
	require.NoError(t, ss.ProcessSync())
	for _, e := range ss.Edges() {
		assert.Equal(t, float32(0.25), e.Crease())
	}
}
