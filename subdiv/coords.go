// Package subdiv holds the pure coordinate conversions shared by consumers of
// subdivided grids: ptex face coordinates, per-corner grid coordinates and
// quad coordinates split into four corner quadrants.
package subdiv

import (
	"math"

	"github.com/gorustyt/gosubsurf/common"
)

// PtexFaceUVToGridUV maps ptex face coordinates to grid coordinates. The two
// parameterizations are mirrored along the diagonal.
func PtexFaceUVToGridUV(ptexU, ptexV float32) (gridU, gridV float32) {
	return 1.0 - ptexV, 1.0 - ptexU
}

// GridUVToPtexFaceUV is the inverse of PtexFaceUVToGridUV.
func GridUVToPtexFaceUV(gridU, gridV float32) (ptexU, ptexV float32) {
	return 1.0 - gridV, 1.0 - gridU
}

// GridSizeFromLevel returns the number of samples along one side of a corner
// grid at the given level. Level 0 is the control mesh and has a single sample.
func GridSizeFromLevel(level int) int {
	if level <= 0 {
		return 1
	}
	return (1 << (level - 1)) + 1
}

// RotateQuadToCorner picks the quadrant of a quad containing (quadU, quadV)
// and returns its corner index together with coordinates local to that
// quadrant in [0, 1]. Points on the midlines belong to the lower corner index.
func RotateQuadToCorner(quadU, quadV float32) (corner int, cornerU, cornerV float32) {
	switch {
	case quadU <= 0.5 && quadV <= 0.5:
		return 0, 2.0 * quadU, 2.0 * quadV
	case quadU > 0.5 && quadV <= 0.5:
		return 1, 2.0 * quadV, 2.0 * (1.0 - quadU)
	case quadU > 0.5 && quadV > 0.5:
		return 2, 2.0 * (1.0 - quadU), 2.0 * (1.0 - quadV)
	default:
		return 3, 2.0 * (1.0 - quadV), 2.0 * quadU
	}
}

// RotateGridToQuad maps corner-local coordinates back to quad coordinates.
// It inverts RotateQuadToCorner for the same corner.
func RotateGridToQuad(corner int, gridU, gridV float32) (quadU, quadV float32) {
	switch corner {
	case 0:
		return gridU * 0.5, gridV * 0.5
	case 1:
		return 1.0 - gridV*0.5, gridU * 0.5
	case 2:
		return 1.0 - gridU*0.5, 1.0 - gridV*0.5
	default:
		return gridV * 0.5, 1.0 - gridU*0.5
	}
}

// CreaseToSharpness converts a crease weight in [0, 1] to sharpness.
func CreaseToSharpness(crease float32) float32 {
	return common.Sqr(crease) * 10.0
}

// SharpnessToCrease converts sharpness back to a crease weight.
func SharpnessToCrease(sharpness float32) float32 {
	return float32(math.Sqrt(float64(sharpness * 0.1)))
}
