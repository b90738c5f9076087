package rw

import (
	"testing"

	"github.com/gorustyt/gosubsurf/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(-7)
	w.WriteFloat32s([]float32{1.5, -2.25})
	w.WriteVec3(common.Vec3{1, 2, 3})
	assert.Equal(t, 4+8+12, w.Size())

	r := NewReader(w.GetWriteBytes())
	assert.Equal(t, int32(-7), r.ReadInt32())
	fs := make([]float32, 2)
	r.ReadFloat32s(fs)
	assert.Equal(t, []float32{1.5, -2.25}, fs)
	assert.Equal(t, common.Vec3{1, 2, 3}, r.ReadVec3())
	require.NoError(t, r.Err())
}

func TestShortRead(t *testing.T) {
	r := NewReader([]byte{1, 2})
	assert.Equal(t, uint32(0), r.ReadUInt32())
	assert.Error(t, r.Err())
	// The error is sticky.
	r.ReadFloat32()
	assert.Error(t, r.Err())
}
