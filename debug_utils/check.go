package debug_utils

import (
	"errors"

	"github.com/gorustyt/gosubsurf/subsurf"
	"go.uber.org/zap"
)

// CheckConsistency runs the topology and shared sample checks of ss and
// logs every problem found. It returns the joined failures.
func CheckConsistency(ss *subsurf.SubSurf, tol float32, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	err := errors.Join(ss.CheckTopology(), ss.CheckSharedSamples(tol))
	if err != nil {
		log.Warn("subsurf consistency check failed", zap.Error(err))
		return err
	}
	log.Debug("subsurf consistency check passed",
		zap.Int("verts", ss.NumVerts()),
		zap.Int("edges", ss.NumEdges()),
		zap.Int("faces", ss.NumFaces()))
	return nil
}
