// Package mesh loads polygon cages from Wavefront OBJ files and declares
// them to a subdivision store.
package mesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/gorustyt/gosubsurf/common"
	"github.com/gorustyt/gosubsurf/subdiv"
	"github.com/gorustyt/gosubsurf/subsurf"
	"go.uber.org/zap"
)

var ErrSyntax = errors.New("mesh: obj syntax error")

// Mesh is a polygon cage. Faces index Verts and keep the file's winding.
type Mesh struct {
	FileName string
	Verts    []common.Vec3
	Faces    [][]int
	// Creases maps an undirected edge, smaller index first, to its crease
	// weight in [0, 1].
	Creases map[[2]int]float32
	Seams   map[int]bool

	scale float32
}

func NewMesh() *Mesh {
	return &Mesh{scale: 1, Creases: map[[2]int]float32{}, Seams: map[int]bool{}}
}

func (m *Mesh) VertCount() int { return len(m.Verts) }
func (m *Mesh) FaceCount() int { return len(m.Faces) }

func edgeKey(a, b int) [2]int {
	return [2]int{min(a, b), max(a, b)}
}

// Load reads an OBJ file. Besides v and f records it understands two
// extensions: "crease a b sharpness" with 1-based vertex indices and a
// sharpness in [0, 10], and "seam a" marking a vertex as lying on a UV seam.
func Load(p string) (*Mesh, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	m.FileName = path.Base(p)
	return m, nil
}

func Parse(r io.Reader) (*Mesh, error) {
	m := NewMesh()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		if err := m.parseRow(strings.Fields(row)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mesh) parseRow(ss []string) error {
	switch ss[0] {
	case "v":
		return m.parseVertex(ss[1:])
	case "f":
		return m.parseFace(ss[1:])
	case "crease":
		return m.parseCrease(ss[1:])
	case "seam":
		return m.parseSeam(ss[1:])
	}
	return nil
}

func (m *Mesh) parseVertex(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("%w: vertex needs 3 coordinates, got %d", ErrSyntax, len(ss))
	}
	var v common.Vec3
	for i := range 3 {
		x, err := strconv.ParseFloat(ss[i], 32)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		v[i] = float32(x) * m.scale
	}
	if !common.Visfinite(v) {
		return fmt.Errorf("%w: non-finite vertex %v", ErrSyntax, v)
	}
	m.Verts = append(m.Verts, v)
	return nil
}

// vertIndex resolves a 1-based or negative relative OBJ index.
func (m *Mesh) vertIndex(s string) (int, error) {
	vi, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if vi < 0 {
		vi += len(m.Verts)
	} else {
		vi--
	}
	if vi < 0 || vi >= len(m.Verts) {
		return 0, fmt.Errorf("%w: vertex index %s out of range", ErrSyntax, s)
	}
	return vi, nil
}

func (m *Mesh) parseFace(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("%w: face needs 3 vertices, got %d", ErrSyntax, len(ss))
	}
	face := make([]int, 0, len(ss))
	for _, tok := range ss {
		vs := strings.Split(tok, "/")
		vi, err := m.vertIndex(vs[0])
		if err != nil {
			return err
		}
		face = append(face, vi)
	}
	m.Faces = append(m.Faces, face)
	return nil
}

func (m *Mesh) parseCrease(ss []string) error {
	if len(ss) != 3 {
		return fmt.Errorf("%w: crease needs 2 vertices and a sharpness", ErrSyntax)
	}
	a, err := m.vertIndex(ss[0])
	if err != nil {
		return err
	}
	b, err := m.vertIndex(ss[1])
	if err != nil {
		return err
	}
	sharpness, err := strconv.ParseFloat(ss[2], 32)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	m.Creases[edgeKey(a, b)] = common.Clamp(subdiv.SharpnessToCrease(float32(sharpness)), 0, 1)
	return nil
}

func (m *Mesh) parseSeam(ss []string) error {
	for _, tok := range ss {
		vi, err := m.vertIndex(tok)
		if err != nil {
			return err
		}
		m.Seams[vi] = true
	}
	return nil
}

// Edges returns the undirected edges of the cage in first-use order, each
// oriented as first met.
func (m *Mesh) Edges() [][2]int {
	seen := map[[2]int]bool{}
	var res [][2]int
	for _, f := range m.Faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if a == b {
				continue
			}
			if k := edgeKey(a, b); !seen[k] {
				seen[k] = true
				res = append(res, [2]int{a, b})
			}
		}
	}
	return res
}

// Sync declares the cage to ss in one full pass. Vertex, edge and face
// handles are their positions in Verts, Edges and Faces. Faces that repeat a
// vertex are skipped. On any other error the pass is still closed, keeping
// what was declared before the failure.
func (m *Mesh) Sync(ss *subsurf.SubSurf, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if err := ss.InitFullSync(); err != nil {
		return err
	}
	fail := func(err error) error {
		return errors.Join(err, ss.ProcessSync())
	}
	for i, co := range m.Verts {
		if _, err := ss.SyncVert(subsurf.VertHDL(i), subsurf.VertData{Co: co}, m.Seams[i]); err != nil {
			return fail(fmt.Errorf("vertex %d: %w", i, err))
		}
	}
	for i, e := range m.Edges() {
		crease := m.Creases[edgeKey(e[0], e[1])]
		if _, err := ss.SyncEdge(subsurf.EdgeHDL(i), subsurf.VertHDL(e[0]), subsurf.VertHDL(e[1]), crease); err != nil {
			return fail(fmt.Errorf("edge %d: %w", i, err))
		}
	}
	skipped := 0
	for i, f := range m.Faces {
		vhs := make([]subsurf.VertHDL, len(f))
		for k, vi := range f {
			vhs[k] = subsurf.VertHDL(vi)
		}
		if _, err := ss.SyncFace(subsurf.FaceHDL(i), vhs); err != nil {
			if errors.Is(err, subsurf.ErrDegenerateFace) {
				log.Warn("skipping degenerate face", zap.Int("face", i), zap.Error(err))
				skipped++
				continue
			}
			return fail(fmt.Errorf("face %d: %w", i, err))
		}
	}
	if err := ss.ProcessSync(); err != nil {
		return err
	}
	log.Info("cage synced",
		zap.String("file", m.FileName),
		zap.Int("verts", len(m.Verts)),
		zap.Int("faces", len(m.Faces)-skipped),
		zap.Int("skipped", skipped))
	return nil
}
