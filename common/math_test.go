package common

import (
	"math"
	"testing"
)

func assertTrue(t *testing.T, value bool, msg string) {
	if !value {
		t.Error(msg)
	}
}

func TestClamp(t *testing.T) {
	assertTrue(t, Clamp(2, 0, 1) == 1, "Higher than range error")
	assertTrue(t, Clamp(1, 0, 2) == 1, "Within range error")
	assertTrue(t, Clamp(0, 1, 2) == 1, "Lower than range error")
}

func TestSqr(t *testing.T) {
	if Sqr(2) != 4 {
		t.Errorf("Sqr squares a number")
	}
	if Sqr(-4) != 16 {
		t.Errorf("Sqr squares a number")
	}
}

func TestPrevNext(t *testing.T) {
	assertTrue(t, Prev(0, 4) == 3, "Prev wraps to the end")
	assertTrue(t, Prev(2, 4) == 1, "Prev steps back")
	assertTrue(t, Next(3, 4) == 0, "Next wraps to the start")
	assertTrue(t, Next(1, 4) == 2, "Next steps forward")
}

func TestVnormalizeEps(t *testing.T) {
	n := VnormalizeEps(Vec3{3, 0, 4}, 1e-35)
	assertTrue(t, math.Abs(float64(n.Len())-1) < 1e-6, "Normalized vector has unit length")
	z := VnormalizeEps(Vec3{0, 0, 0}, 1e-35)
	assertTrue(t, z == Vec3{}, "Degenerate vector normalizes to zero")
	assertTrue(t, Visfinite(z), "Degenerate vector stays finite")
}

func TestNextPow2(t *testing.T) {
	assertTrue(t, NextPow2(5) == 8, "NextPow2 rounds up")
	assertTrue(t, NextPow2(16) == 16, "NextPow2 keeps powers of two")
}

func TestAssertTrue(t *testing.T) {
	AssertTrue(true, "never fires")
	defer func() {
		assertTrue(t, recover() != nil, "AssertTrue panics on a broken invariant")
	}()
	AssertTrue(false, "edge %d", 3)
}
