package subsurf

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocator(t *testing.T) {
	var a HeapAllocator[int]
	buf, err := a.Alloc(4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, buf)

	copy(buf, []int{1, 2, 3, 4})
	buf, err = a.Realloc(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, buf)

	buf, err = a.Realloc(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0, 0, 0, 0}, buf)
}

func TestPoolAllocatorReuses(t *testing.T) {
	p := NewPoolAllocator[int]()
	buf, err := p.Alloc(5)
	require.NoError(t, err)
	assert.Equal(t, 8, cap(buf))
	for i := range buf {
		buf[i] = i + 1
	}
	first := &buf[0]
	p.Free(buf)
	assert.Equal(t, 1, p.Pooled())

	again, err := p.Alloc(7)
	require.NoError(t, err)
	assert.Same(t, first, &again[0])
	assert.Equal(t, make([]int, 7), again)
	assert.Equal(t, 0, p.Pooled())

	p.Free(make([]int, 3))
	assert.Equal(t, 0, p.Pooled())

	grown, err := p.Realloc(again, 20)
	require.NoError(t, err)
	assert.Len(t, grown, 20)
	assert.Equal(t, 1, p.Pooled())
}

func TestLimitAllocator(t *testing.T) {
	l := NewLimitAllocator[float32](nil, 10)
	buf, err := l.Alloc(6)
	require.NoError(t, err)
	assert.Equal(t, 6, l.Used())

	_, err = l.Alloc(5)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	same, err := l.Realloc(buf, 11)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Len(t, same, 6)
	assert.Equal(t, 6, l.Used())

	buf, err = l.Realloc(buf, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Used())

	l.Free(buf)
	assert.Equal(t, 0, l.Used())
}

func TestStoreOutOfMemory(t *testing.T) {
	m := unitQuad()
	const levels = 2
	need := 4*vertSampleCount(levels) + 4*edgeSampleCount(levels) + faceSampleCount(4, levels)
	limit := NewLimitAllocator[Sample](nil, need-1)
	ss := newTestSubSurf(t, levels, func(c *Config) { c.SampleAllocator = limit })

	require.NoError(t, ss.InitFullSync())
	for i := range m.verts {
		_, err := ss.SyncVert(VertHDL(i), m.vertData(i), false)
		require.NoError(t, err)
	}
	for i, e := range m.edgeList() {
		_, err := ss.SyncEdge(EdgeHDL(i), VertHDL(e[0]), VertHDL(e[1]), 0)
		require.NoError(t, err)
	}
	_, err := ss.SyncFace(0, faceHandles(m.faces[0]))
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	assert.Equal(t, need-faceSampleCount(4, levels), limit.Used())
	require.NoError(t, ss.ProcessSync())

	assert.Equal(t, 0, ss.NumFaces())
	assert.Equal(t, 0, ss.NumGrids())
	assert.NoError(t, ss.CheckTopology())

	ss.Free()
	assert.Equal(t, 0, limit.Used())
}

func TestStoreWithPoolAllocator(t *testing.T) {
	samples := NewPoolAllocator[Sample]()
	attrs := NewPoolAllocator[float32]()
	m := cube()
	m.attrs = func(i int, _ mgl32.Vec3) []float32 { return []float32{float32(i)} }
	opts := func(c *Config) {
		c.SampleAllocator = samples
		c.AttrAllocator = attrs
		c.NumAttrs = 1
	}

	ss := buildSubSurf(t, 3, m, opts)
	want := takeSnapshot(buildSubSurf(t, 3, m, func(c *Config) { c.NumAttrs = 1 }))
	assert.Equal(t, want, takeSnapshot(ss))

	ss.Free()
	assert.Equal(t, 8+12+6, samples.Pooled())
	assert.Equal(t, 8+12+6, attrs.Pooled())

	fullSync(t, ss, m)
	assert.Equal(t, 0, samples.Pooled())
	assert.Equal(t, want, takeSnapshot(ss))
}
