package debug_utils

import (
	"image/color"

	"github.com/gorustyt/gosubsurf/common"
)

type Colorb [4]uint8

func (c Colorb) R() uint8 {
	return c[0]
}

func (c Colorb) G() uint8 {
	return c[1]
}

func (c Colorb) B() uint8 {
	return c[2]
}

func (c Colorb) A() uint8 {
	return c[3]
}

func (c Colorb) RGBA() color.RGBA {
	return color.RGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

func unitToByte(v float32) uint8 {
	v = common.Clamp(v, 0, 1)
	return uint8(v*255 + 0.5)
}

// NormalColor maps a unit normal to the usual tangent-space palette, each
// component scaled from [-1, 1] to [0, 255]. A zero normal maps to
// transparent black.
func NormalColor(no common.Vec3) Colorb {
	if no == (common.Vec3{}) {
		return Colorb{}
	}
	return Colorb{
		unitToByte(no[0]*0.5 + 0.5),
		unitToByte(no[1]*0.5 + 0.5),
		unitToByte(no[2]*0.5 + 0.5),
		255,
	}
}
