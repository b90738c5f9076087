package debug_utils

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/gosubsurf/common/message"
	"github.com/gorustyt/gosubsurf/common/rw"
	"github.com/gorustyt/gosubsurf/subsurf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/tiff"
)

func quadSubSurf(t *testing.T, levels int) *subsurf.SubSurf {
	t.Helper()
	ss, err := subsurf.New(&subsurf.Config{SubdivLevels: levels, CalcVertNormals: true, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.NoError(t, ss.InitFullSync())
	cos := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for i, co := range cos {
		_, err := ss.SyncVert(subsurf.VertHDL(i), subsurf.VertData{Co: co}, false)
		require.NoError(t, err)
	}
	for i := range 4 {
		_, err := ss.SyncEdge(subsurf.EdgeHDL(i), subsurf.VertHDL(i), subsurf.VertHDL((i+1)%4), 0)
		require.NoError(t, err)
	}
	_, err = ss.SyncFace(0, []subsurf.VertHDL{0, 1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, ss.ProcessSync())
	return ss
}

func TestDumpGridsToObj(t *testing.T) {
	ss := quadSubSurf(t, 2)
	assert.ErrorIs(t, DumpGridsToObj(ss, nil, false, nil), ErrNilWriter)

	w := rw.NewWriter()
	require.NoError(t, DumpGridsToObj(ss, w, true, zaptest.NewLogger(t)))
	out := string(w.GetWriteBytes())

	lines := strings.Split(out, "\n")
	count := func(prefix string) int {
		n := 0
		for _, l := range lines {
			if strings.HasPrefix(l, prefix) {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 4*9, count("v "))
	assert.Equal(t, 4*9, count("vn "))
	assert.Equal(t, 4*4, count("f "))
	assert.Contains(t, out, "g face_0\n")
	assert.Contains(t, out, "f 1//1 4//4 5//5 2//2\n")
}

func TestSnapshotRoundTrip(t *testing.T) {
	ss := quadSubSurf(t, 2)
	snap := Snapshot(ss)
	require.Len(t, snap.Faces, 1)
	assert.Len(t, snap.Faces[0].Samples, 4*ss.GridSize()*ss.GridSize())

	got, err := message.Decode(message.Encode(snap))
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestCheckConsistency(t *testing.T) {
	ss := quadSubSurf(t, 2)
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	require.NoError(t, CheckConsistency(ss, 1e-6, log))
	assert.Equal(t, 1, logs.FilterMessage("subsurf consistency check passed").Len())

	f, _ := ss.Face(0)
	s := ss.FaceGridData(f, 1, 0, 0)
	s.Co = s.Co.Add(mgl32.Vec3{0, 0, 1})
	assert.Error(t, CheckConsistency(ss, 1e-6, log))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestNormalMap(t *testing.T) {
	ss := quadSubSurf(t, 2)
	f, _ := ss.Face(0)

	img := NormalMap(ss, f)
	gs := ss.GridSize()
	assert.Equal(t, 4*gs, img.Bounds().Dx())
	assert.Equal(t, gs, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{128, 128, 255, 255}, img.RGBAAt(gs+1, 1))

	var buf bytes.Buffer
	require.NoError(t, WriteNormalTIFF(&buf, ss, f))
	decoded, err := tiff.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	r, g, b, a := decoded.At(gs+1, 1).RGBA()
	assert.Equal(t, [4]uint32{128 * 0x101, 128 * 0x101, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestColors(t *testing.T) {
	assert.Equal(t, Colorb{}, NormalColor(mgl32.Vec3{}))
	assert.Equal(t, Colorb{255, 128, 128, 255}, NormalColor(mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, Colorb{128, 255, 128, 255}, NormalColor(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, Colorb{0, 128, 128, 255}, NormalColor(mgl32.Vec3{-2, 0, 0}))
}
