// Package message encodes evaluated grids in protobuf wire format so they can
// be stored or shipped to tools that read protobuf.
//
//	GridSnapshot { 1: levels  2: grid_size  3: num_attrs  4: repeated FaceGrids }
//	FaceGrids    { 1: handle (sint64)  2: num_verts  3: co  4: no  5: mask  6: attrs }
//
// Fields 3 to 6 of FaceGrids are packed little-endian float32 runs.
package message

import (
	"errors"
	"fmt"

	"github.com/gorustyt/gosubsurf/common"
	"github.com/gorustyt/gosubsurf/common/rw"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("message: malformed grid snapshot")

type Sample struct {
	Co   common.Vec3
	No   common.Vec3
	Mask float32
}

// FaceGrids holds the corner grids of one face, corner after corner, each
// grid in row-major order.
type FaceGrids struct {
	Handle   int64
	NumVerts int
	Samples  []Sample
	Attrs    []float32
}

type GridSnapshot struct {
	Levels   int
	GridSize int
	NumAttrs int
	Faces    []FaceGrids
}

const (
	fieldLevels   protowire.Number = 1
	fieldGridSize protowire.Number = 2
	fieldNumAttrs protowire.Number = 3
	fieldFace     protowire.Number = 4

	fieldHandle   protowire.Number = 1
	fieldNumVerts protowire.Number = 2
	fieldCo       protowire.Number = 3
	fieldNo       protowire.Number = 4
	fieldMask     protowire.Number = 5
	fieldAttrs    protowire.Number = 6
)

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendPacked(b []byte, num protowire.Number, w *rw.ReaderWriter) []byte {
	if w.Size() == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, w.GetWriteBytes())
}

func encodeFace(f *FaceGrids) []byte {
	var b []byte
	b = appendVarint(b, fieldHandle, protowire.EncodeZigZag(f.Handle))
	b = appendVarint(b, fieldNumVerts, uint64(f.NumVerts))

	co, no, mask := rw.NewWriter(), rw.NewWriter(), rw.NewWriter()
	for _, s := range f.Samples {
		co.WriteVec3(s.Co)
		no.WriteVec3(s.No)
		mask.WriteFloat32(s.Mask)
	}
	b = appendPacked(b, fieldCo, co)
	b = appendPacked(b, fieldNo, no)
	b = appendPacked(b, fieldMask, mask)

	attrs := rw.NewWriter()
	attrs.WriteFloat32s(f.Attrs)
	return appendPacked(b, fieldAttrs, attrs)
}

// Encode serializes s.
func Encode(s *GridSnapshot) []byte {
	var b []byte
	b = appendVarint(b, fieldLevels, uint64(s.Levels))
	b = appendVarint(b, fieldGridSize, uint64(s.GridSize))
	b = appendVarint(b, fieldNumAttrs, uint64(s.NumAttrs))
	for i := range s.Faces {
		b = protowire.AppendTag(b, fieldFace, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeFace(&s.Faces[i]))
	}
	return b
}

// fieldVisitor is called for every field of a message. It returns the number
// of bytes it consumed from b, or a negative protowire error code.
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) int

func walkFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		n = visit(num, typ, b)
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func consumeVarint(typ protowire.Type, b []byte, dst *uint64) int {
	if typ != protowire.VarintType {
		return 0
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func consumePacked(typ protowire.Type, b []byte, dst *[]byte) int {
	if typ != protowire.BytesType {
		return 0
	}
	v, n := protowire.ConsumeBytes(b)
	if n >= 0 {
		*dst = v
	}
	return n
}

func decodeFace(b []byte, numAttrs, gridSize int) (FaceGrids, error) {
	var f FaceGrids
	var handle, numVerts uint64
	var co, no, mask, attrs []byte
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case fieldHandle:
			return consumeVarint(typ, b, &handle)
		case fieldNumVerts:
			return consumeVarint(typ, b, &numVerts)
		case fieldCo:
			return consumePacked(typ, b, &co)
		case fieldNo:
			return consumePacked(typ, b, &no)
		case fieldMask:
			return consumePacked(typ, b, &mask)
		case fieldAttrs:
			return consumePacked(typ, b, &attrs)
		}
		return 0
	})
	if err != nil {
		return f, err
	}
	f.Handle = protowire.DecodeZigZag(handle)
	f.NumVerts = int(numVerts)

	count := f.NumVerts * gridSize * gridSize
	if len(co) != count*12 || len(no) != count*12 || len(mask) != count*4 || len(attrs) != count*numAttrs*4 {
		return f, fmt.Errorf("%w: face %d sample block sizes do not match %d samples", ErrMalformed, f.Handle, count)
	}
	f.Samples = make([]Sample, count)
	coR, noR, maskR := rw.NewReader(co), rw.NewReader(no), rw.NewReader(mask)
	for i := range f.Samples {
		f.Samples[i] = Sample{Co: coR.ReadVec3(), No: noR.ReadVec3(), Mask: maskR.ReadFloat32()}
	}
	if numAttrs > 0 {
		f.Attrs = make([]float32, count*numAttrs)
		rw.NewReader(attrs).ReadFloat32s(f.Attrs)
	}
	return f, nil
}

// Decode parses a snapshot written by Encode. Unknown fields are skipped.
func Decode(data []byte) (*GridSnapshot, error) {
	var levels, gridSize, numAttrs uint64
	var faces [][]byte
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case fieldLevels:
			return consumeVarint(typ, b, &levels)
		case fieldGridSize:
			return consumeVarint(typ, b, &gridSize)
		case fieldNumAttrs:
			return consumeVarint(typ, b, &numAttrs)
		case fieldFace:
			var f []byte
			n := consumePacked(typ, b, &f)
			if n > 0 {
				faces = append(faces, f)
			}
			return n
		}
		return 0
	})
	if err != nil {
		return nil, err
	}

	s := &GridSnapshot{Levels: int(levels), GridSize: int(gridSize), NumAttrs: int(numAttrs)}
	s.Faces = make([]FaceGrids, 0, len(faces))
	for _, fb := range faces {
		f, err := decodeFace(fb, s.NumAttrs, s.GridSize)
		if err != nil {
			return nil, err
		}
		s.Faces = append(s.Faces, f)
	}
	return s, nil
}
