package subsurf

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

type testMesh struct {
	verts   []mgl32.Vec3
	faces   [][]int
	creases map[[2]int]float32
	seams   map[int]bool
	attrs   func(i int, co mgl32.Vec3) []float32
	mask    func(i int) float32
}

// edgeList returns the undirected edges of m in first-use order, oriented as
// first met.
func (m *testMesh) edgeList() [][2]int {
	seen := map[[2]int]bool{}
	var res [][2]int
	for _, f := range m.faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			key := [2]int{min(a, b), max(a, b)}
			if seen[key] {
				continue
			}
			seen[key] = true
			res = append(res, [2]int{a, b})
		}
	}
	return res
}

func (m *testMesh) crease(a, b int) float32 {
	if m.creases == nil {
		return 0
	}
	return m.creases[[2]int{min(a, b), max(a, b)}]
}

func (m *testMesh) vertData(i int) VertData {
	d := VertData{Co: m.verts[i]}
	if m.attrs != nil {
		d.Attrs = m.attrs(i, m.verts[i])
	}
	if m.mask != nil {
		d.Mask = m.mask(i)
	}
	return d
}

func faceHandles(f []int) []VertHDL {
	res := make([]VertHDL, len(f))
	for i, v := range f {
		res[i] = VertHDL(v)
	}
	return res
}

func declareMesh(t *testing.T, ss *SubSurf, m *testMesh) {
	t.Helper()
	for i := range m.verts {
		_, err := ss.SyncVert(VertHDL(i), m.vertData(i), m.seams[i])
		require.NoError(t, err)
	}
	for i, e := range m.edgeList() {
		_, err := ss.SyncEdge(EdgeHDL(i), VertHDL(e[0]), VertHDL(e[1]), m.crease(e[0], e[1]))
		require.NoError(t, err)
	}
	for i, f := range m.faces {
		_, err := ss.SyncFace(FaceHDL(i), faceHandles(f))
		require.NoError(t, err)
	}
}

func fullSync(t *testing.T, ss *SubSurf, m *testMesh) {
	t.Helper()
	require.NoError(t, ss.InitFullSync())
	declareMesh(t, ss, m)
	require.NoError(t, ss.ProcessSync())
}

func newTestSubSurf(t *testing.T, levels int, opts ...func(*Config)) *SubSurf {
	t.Helper()
	cfg := &Config{SubdivLevels: levels}
	for _, o := range opts {
		o(cfg)
	}
	ss, err := New(cfg)
	require.NoError(t, err)
	return ss
}

func buildSubSurf(t *testing.T, levels int, m *testMesh, opts ...func(*Config)) *SubSurf {
	t.Helper()
	ss := newTestSubSurf(t, levels, opts...)
	fullSync(t, ss, m)
	return ss
}

func withNormals(c *Config)    { c.CalcVertNormals = true }
func withAges(c *Config)       { c.UseAgeCounts = true }
func withSerial(c *Config)     { c.ParallelThreshold = -1 }
func withParallel(c *Config)   { c.ParallelThreshold = 1 }
func withSimple(c *Config)     { c.SimpleSubdiv = true }
func withEdgeCreate(c *Config) { c.AllowEdgeCreation = true }

func unitQuad() *testMesh {
	return &testMesh{
		verts: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		faces: [][]int{{0, 1, 2, 3}},
	}
}

// cube returns an axis aligned cube of side 2 centered at the origin with
// outward facing loops.
func cube() *testMesh {
	return &testMesh{
		verts: []mgl32.Vec3{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		},
		faces: [][]int{
			{0, 3, 2, 1}, // -z
			{4, 5, 6, 7}, // +z
			{0, 1, 5, 4}, // -y
			{2, 3, 7, 6}, // +y
			{1, 2, 6, 5}, // +x
			{0, 4, 7, 3}, // -x
		},
	}
}

// twoQuads returns two disconnected unit quads, the second shifted along x.
func twoQuads() *testMesh {
	return &testMesh{
		verts: []mgl32.Vec3{
			{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
			{5, 0, 0}, {6, 0, 0}, {6, 1, 0}, {5, 1, 0},
		},
		faces: [][]int{{0, 1, 2, 3}, {4, 5, 6, 7}},
	}
}

// bumpyGrid returns an n by n patch of quads with a height field so that
// every vertex has a distinct neighbourhood.
func bumpyGrid(n int) *testMesh {
	m := &testMesh{}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			z := float32((x*7+y*3)%5) * 0.1
			m.verts = append(m.verts, mgl32.Vec3{float32(x), float32(y), z})
		}
	}
	idx := func(x, y int) int { return y*(n+1) + x }
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.faces = append(m.faces, []int{idx(x, y), idx(x+1, y), idx(x+1, y+1), idx(x, y+1)})
		}
	}
	return m
}

// snapshot copies every sample and attribute of every element, keyed by
// handle, for exact comparisons.
type snapshot struct {
	verts map[VertHDL][]Sample
	edges map[EdgeHDL][]Sample
	faces map[FaceHDL][]Sample
	attrs map[FaceHDL][]float32
}

func takeSnapshot(ss *SubSurf) snapshot {
	s := snapshot{
		verts: map[VertHDL][]Sample{},
		edges: map[EdgeHDL][]Sample{},
		faces: map[FaceHDL][]Sample{},
		attrs: map[FaceHDL][]float32{},
	}
	for _, v := range ss.Verts() {
		s.verts[v.Handle()] = append([]Sample(nil), v.data...)
	}
	for _, e := range ss.Edges() {
		s.edges[e.Handle()] = append([]Sample(nil), e.data...)
	}
	for _, f := range ss.Faces() {
		s.faces[f.Handle()] = append([]Sample(nil), f.data...)
		s.attrs[f.Handle()] = append([]float32(nil), f.attrs...)
	}
	return s
}
