package orbveil

import (
	"math"
	"testing"
)

func TestVecMathBasics(t *testing.T) {
	a := [3]float64{1, 2, 3}
	b := [3]float64{4, 5, 6}
	if got := dot(a, b); got != 32 {
		t.Errorf("dot = %v, want 32", got)
	}
	c := cross([3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	if c != [3]float64{0, 0, 1} {
		t.Errorf("cross = %v, want (0,0,1)", c)
	}
	if got := norm([3]float64{3, 4, 0}); got != 5 {
		t.Errorf("norm = %v, want 5", got)
	}
}

func TestUnitZeroVector(t *testing.T) {
	if u := unit([3]float64{0, 0, 0}); u != [3]float64{0, 0, 0} {
		t.Errorf("unit(0) = %v, want (0,0,0)", u)
	}
	u := unit([3]float64{0, 5, 0})
	if math.Abs(u[1]-1) > 1e-12 {
		t.Errorf("unit((0,5,0)) = %v, want (0,1,0)", u)
	}
}

func TestCanonicalDeg(t *testing.T) {
	cases := map[float64]float64{
		370:  10,
		-10:  350,
		0:    0,
		360:  0,
		-370: 350,
	}
	for in, want := range cases {
		if got := canonicalDeg(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("canonicalDeg(%v) = %v, want %v", in, got, want)
		}
	}
}
