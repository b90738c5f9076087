package subsurf

import "github.com/gorustyt/gosubsurf/subdiv"

// MaxLevels is the deepest supported subdivision level.
const MaxLevels = 11

// GridSize returns the side length of one face corner grid at level. Level 0
// is the control cage and has a single sample.
func GridSize(level int) int {
	return subdiv.GridSizeFromLevel(level)
}

// EdgeSize returns the number of samples along an edge at level, endpoints
// included.
func EdgeSize(level int) int {
	return (1 << level) + 1
}

// edgeBase is the offset of the first level-th sample in an edge buffer that
// stores every level from 0 up.
func edgeBase(level int) int {
	return (1 << level) - 1 + level
}

func vertSampleCount(levels int) int {
	return levels + 1
}

func edgeSampleCount(levels int) int {
	return edgeBase(levels + 1)
}

// faceLevelBase is the offset of the level-th block in a face buffer. Face
// buffers start at level 1; level 0 of a face is its corners.
func faceLevelBase(numVerts, level int) int {
	return faceLevelOffsets[level] * numVerts
}

// faceLevelOffsets[l] is the number of samples one corner stores below level l.
var faceLevelOffsets = func() (res [MaxLevels + 2]int) {
	for l := 2; l < len(res); l++ {
		gs := GridSize(l - 1)
		res[l] = res[l-1] + gs*gs
	}
	return res
}()

func faceSampleCount(numVerts, levels int) int {
	return faceLevelBase(numVerts, levels+1)
}

// Grid layout within a face corner S at one level, with g = GridSize(level):
//
//	(0, 0)         face center
//	(g-1, g-1)     vertex S
//	(g-1, y)       edge S, from its midpoint at y = 0 to vertex S
//	(x, g-1)       edge S-1, from its midpoint at x = 0 to vertex S
//	(x, 0)         interior edge from the center to the midpoint of edge S;
//	               it is the same line as column 0 of corner S+1
func faceSampleIndex(numVerts, level, S, x, y int) int {
	gs := GridSize(level)
	return faceLevelBase(numVerts, level) + S*gs*gs + y*gs + x
}
