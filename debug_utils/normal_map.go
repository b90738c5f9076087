package debug_utils

import (
	"fmt"
	"image"
	"io"

	"github.com/gorustyt/gosubsurf/subsurf"
	"golang.org/x/image/tiff"
)

// NormalMap lays the finest corner grids of f side by side, corner S
// occupying columns [S*gs, (S+1)*gs), and colors each pixel from the sample
// normal. Grid x runs along image x, grid y along image y.
func NormalMap(ss *subsurf.SubSurf, f *subsurf.Face) *image.RGBA {
	return gridImage(ss, f, func(s *subsurf.Sample) Colorb { return NormalColor(s.No) })
}

func gridImage(ss *subsurf.SubSurf, f *subsurf.Face, col func(*subsurf.Sample) Colorb) *image.RGBA {
	gs := ss.GridSize()
	img := image.NewRGBA(image.Rect(0, 0, gs*f.NumVerts(), gs))
	for S := range f.NumVerts() {
		for y := range gs {
			for x := range gs {
				img.SetRGBA(S*gs+x, y, col(ss.FaceGridData(f, S, x, y)).RGBA())
			}
		}
	}
	return img
}

// WriteNormalTIFF encodes the normal map of f as a deflate compressed TIFF.
func WriteNormalTIFF(w io.Writer, ss *subsurf.SubSurf, f *subsurf.Face) error {
	if err := tiff.Encode(w, NormalMap(ss, f), &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("encode normal map of face %d: %w", f.Handle(), err)
	}
	return nil
}
