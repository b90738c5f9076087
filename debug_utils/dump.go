package debug_utils

import (
	"errors"

	"github.com/gorustyt/gosubsurf/common/message"
	"github.com/gorustyt/gosubsurf/common/rw"
	"github.com/gorustyt/gosubsurf/subsurf"
	"go.uber.org/zap"
)

var ErrNilWriter = errors.New("debug_utils: nil writer")

// DumpGridsToObj writes the finest level of ss as a Wavefront OBJ, one quad
// per grid cell. Samples shared between grids are written once per grid.
// Normals are written as vn records when withNormals is set.
func DumpGridsToObj(ss *subsurf.SubSurf, w *rw.ReaderWriter, withNormals bool, log *zap.Logger) error {
	if w == nil {
		return ErrNilWriter
	}
	if log == nil {
		log = zap.NewNop()
	}
	gs := ss.GridSize()

	w.WriteString("# Catmull-Clark subdivision surface\n")
	w.Printf("# levels %d, grid size %d\n", ss.SubdivisionLevels(), gs)
	w.WriteString("o SubSurf\n\n")

	faces := ss.Faces()
	for _, f := range faces {
		for S := range f.NumVerts() {
			for _, s := range ss.FaceGrid(f, S) {
				w.Printf("v %f %f %f\n", s.Co[0], s.Co[1], s.Co[2])
				if withNormals {
					w.Printf("vn %f %f %f\n", s.No[0], s.No[1], s.No[2])
				}
			}
		}
	}
	w.WriteString("\n")

	base := 1
	quads := 0
	for _, f := range faces {
		w.Printf("g face_%d\n", f.Handle())
		for range f.NumVerts() {
			for y := 0; y < gs-1; y++ {
				for x := 0; x < gs-1; x++ {
					a := base + y*gs + x
					b := a + 1
					c := a + gs + 1
					d := a + gs
					// Grid axes run opposite to the cage loop; reverse to keep
					// the cage winding.
					if withNormals {
						w.Printf("f %d//%d %d//%d %d//%d %d//%d\n", a, a, d, d, c, c, b, b)
					} else {
						w.Printf("f %d %d %d %d\n", a, d, c, b)
					}
					quads++
				}
			}
			base += gs * gs
		}
	}
	log.Debug("dumped grids to obj",
		zap.Int("faces", len(faces)),
		zap.Int("quads", quads),
		zap.Int("bytes", w.Size()))
	return nil
}

// Snapshot copies the finest grids of ss into a message for encoding.
func Snapshot(ss *subsurf.SubSurf) *message.GridSnapshot {
	gs := ss.GridSize()
	snap := &message.GridSnapshot{
		Levels:   ss.SubdivisionLevels(),
		GridSize: gs,
		NumAttrs: ss.NumAttrs(),
	}
	lvl := ss.SubdivisionLevels()
	for _, f := range ss.Faces() {
		fg := message.FaceGrids{Handle: int64(f.Handle()), NumVerts: f.NumVerts()}
		for S := range f.NumVerts() {
			for y := range gs {
				for x := range gs {
					s := ss.FaceGridData(f, S, x, y)
					fg.Samples = append(fg.Samples, message.Sample{Co: s.Co, No: s.No, Mask: s.Mask})
					if ss.NumAttrs() > 0 {
						a, _ := ss.FaceGridAttrs(f, lvl, S, x, y)
						fg.Attrs = append(fg.Attrs, a...)
					}
				}
			}
		}
		snap.Faces = append(snap.Faces, fg)
	}
	return snap
}
