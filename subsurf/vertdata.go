package subsurf

import "github.com/go-gl/mathgl/mgl32"

// rec addresses one sample together with its custom attribute block. All
// arithmetic covers position, mask and attributes; normals are left alone.
type rec struct {
	s *Sample
	a []float32
}

func newScratchRec(numAttrs int) rec {
	r := rec{s: &Sample{}}
	if numAttrs > 0 {
		r.a = make([]float32, numAttrs)
	}
	return r
}

func (r rec) zero() {
	r.s.Co = mgl32.Vec3{}
	r.s.Mask = 0
	clear(r.a)
}

func (r rec) copyFrom(o rec) {
	r.s.Co = o.s.Co
	r.s.Mask = o.s.Mask
	copy(r.a, o.a)
}

func (r rec) add(o rec) {
	r.s.Co = r.s.Co.Add(o.s.Co)
	r.s.Mask += o.s.Mask
	for i := range r.a {
		r.a[i] += o.a[i]
	}
}

func (r rec) sub(o rec) {
	r.s.Co = r.s.Co.Sub(o.s.Co)
	r.s.Mask -= o.s.Mask
	for i := range r.a {
		r.a[i] -= o.a[i]
	}
}

func (r rec) mulN(f float32) {
	r.s.Co = r.s.Co.Mul(f)
	r.s.Mask *= f
	for i := range r.a {
		r.a[i] *= f
	}
}

// lerpTo moves r towards o by t: r += (o - r) * t.
func (r rec) lerpTo(o rec, t float32) {
	r.s.Co = r.s.Co.Add(o.s.Co.Sub(r.s.Co).Mul(t))
	r.s.Mask += (o.s.Mask - r.s.Mask) * t
	for i := range r.a {
		r.a[i] += (o.a[i] - r.a[i]) * t
	}
}

func (r rec) avg4(a, b, c, d rec) {
	r.s.Co = a.s.Co.Add(b.s.Co).Add(c.s.Co).Add(d.s.Co).Mul(0.25)
	r.s.Mask = (a.s.Mask + b.s.Mask + c.s.Mask + d.s.Mask) * 0.25
	for i := range r.a {
		r.a[i] = (a.a[i] + b.a[i] + c.a[i] + d.a[i]) * 0.25
	}
}

// equalData reports whether the record holds exactly d.
func (r rec) equalData(d VertData, useMask bool) bool {
	if r.s.Co != d.Co {
		return false
	}
	if useMask && r.s.Mask != d.Mask {
		return false
	}
	for i := range r.a {
		var v float32
		if d.Attrs != nil {
			v = d.Attrs[i]
		}
		if r.a[i] != v {
			return false
		}
	}
	return true
}

func (r rec) setData(d VertData, useMask bool) {
	r.s.Co = d.Co
	r.s.Mask = 0
	if useMask {
		r.s.Mask = d.Mask
	}
	if d.Attrs != nil {
		copy(r.a, d.Attrs)
	} else {
		clear(r.a)
	}
}

// scratch holds the temporaries one worker needs during evaluation.
type scratch struct {
	q, r rec
}

func newScratch(numAttrs int) *scratch {
	return &scratch{
		q: newScratchRec(numAttrs),
		r: newScratchRec(numAttrs),
	}
}
