package starship

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestCross(t *testing.T) {
	i := []float64{1, 0, 0}
	j := []float64{0, 1, 0}
	k := []float64{0, 0, 1}
	if !vectorsEqual(cross(i, j), k) {
		t.Fatal("i x j != k")
	}
	if !vectorsEqual(cross(j, k), i) {
		t.Fatal("j x k != i")
	}
	if !vectorsEqual(cross([]float64{2, 3, 4}, []float64{5, 6, 7}), []float64{-3, 6, -3}) {
		t.Fatal("cross fail")
	}
}

func TestUnit(t *testing.T) {
	u := unit([]float64{3, 4, 0})
	if !vectorsEqual(u, []float64{0.6, 0.8, 0}) {
		t.Fatalf("unit fail: %+v", u)
	}
	if !vectorsEqual(unit([]float64{0, 0, 0}), []float64{0, 0, 0}) {
		t.Fatal("unit of zero vector must be the zero vector")
	}
	if !floats.EqualWithinAbs(norm(unit([]float64{-12, 5, 3})), 1, 1e-12) {
		t.Fatal("unit vector norm != 1")
	}
}

func TestVectorArithmetic(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{4, 5, 6}
	if !vectorsEqual(add(a, b), []float64{5, 7, 9}) {
		t.Fatal("add fail")
	}
	if !vectorsEqual(sub(b, a), []float64{3, 3, 3}) {
		t.Fatal("sub fail")
	}
	if !vectorsEqual(scale(2, a), []float64{2, 4, 6}) {
		t.Fatal("scale fail")
	}
	if !floats.EqualWithinAbs(dot(a, b), 32, 1e-12) {
		t.Fatal("dot fail")
	}
}

func TestMisc(t *testing.T) {
	if sign(-30) != -1 || sign(12) != 1 {
		t.Fatal("sign fail")
	}
	if clamp(2, 0, 1) != 1 || clamp(-2, 0, 1) != 0 || clamp(0.5, 0, 1) != 0.5 {
		t.Fatal("clamp fail")
	}
	if !floats.EqualWithinAbs(Deg2rad(180), math.Pi, 1e-12) {
		t.Fatal("Deg2rad fail")
	}
	if !floats.EqualWithinAbs(Rad2deg(math.Pi/2), 90, 1e-12) {
		t.Fatal("Rad2deg fail")
	}
}
