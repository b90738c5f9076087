package subsurf

import "errors"

var (
	// ErrInvalidSyncState is returned when a sync operation is called out of
	// order, e.g. a vertex is declared after faces in a full pass or
	// ProcessSync is called with no pass open.
	ErrInvalidSyncState = errors.New("subsurf: invalid sync state")

	// ErrInvalidValue is returned for out-of-range arguments such as a crease
	// outside [0, 1] or an attribute block of the wrong length.
	ErrInvalidValue = errors.New("subsurf: invalid value")

	// ErrInvalidLevel is returned when a subdivision level is outside
	// [1, MaxLevels] or above the configured depth.
	ErrInvalidLevel = errors.New("subsurf: subdivision level out of range")

	// ErrStillReferenced is returned when removing an element that other
	// elements still point at.
	ErrStillReferenced = errors.New("subsurf: element still referenced")

	// ErrDegenerateFace is returned for faces with fewer than three corners or
	// a repeated vertex.
	ErrDegenerateFace = errors.New("subsurf: degenerate face")

	// ErrDegenerateEdge is returned for edges whose endpoints coincide.
	ErrDegenerateEdge = errors.New("subsurf: degenerate edge")

	// ErrDuplicateHandle is returned when a handle is declared twice in one
	// full sync pass.
	ErrDuplicateHandle = errors.New("subsurf: handle declared twice")

	ErrVertNotFound = errors.New("subsurf: vertex not found")
	ErrEdgeNotFound = errors.New("subsurf: edge not found")
	ErrFaceNotFound = errors.New("subsurf: face not found")

	// ErrMissingEdge is returned when a face needs an edge that was not
	// declared and edge creation is disabled.
	ErrMissingEdge = errors.New("subsurf: face edge not declared and edge creation disabled")

	// ErrOutOfMemory is returned when an allocator cannot satisfy a request.
	ErrOutOfMemory = errors.New("subsurf: out of memory")
)
