package starship

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestHohmannLEO2GEO(t *testing.T) {
	rLEO := EarthRadius + 300e3
	rGEO := 42164e3
	vDep, vArr, tof := Hohmann(rLEO, rGEO, EarthMu)
	if !floats.EqualWithinAbs(vDep, 10151, 25) {
		t.Fatalf("departure speed fail: %f", vDep)
	}
	if !floats.EqualWithinAbs(vArr, 1608, 10) {
		t.Fatalf("arrival speed fail: %f", vArr)
	}
	if !floats.EqualWithinAbs(tof.Hours(), 5.27, 0.05) {
		t.Fatalf("time of flight fail: %s", tof)
	}
}

func TestCOERoundTrip(t *testing.T) {
	want := COE{A: 8000e3, E: 0.1, I: 0.5, Ω: 0.3, ω: 0.2, ν: 1.0}
	R, V := COE2RV(want, EarthMu)
	got := RV2COE(R, V, EarthMu)
	if !floats.EqualWithinAbs(got.A, want.A, 1) {
		t.Fatalf("semi-major axis fail: %f", got.A)
	}
	if !floats.EqualWithinAbs(got.E, want.E, 1e-9) {
		t.Fatalf("eccentricity fail: %f", got.E)
	}
	for name, pair := range map[string][2]float64{
		"inclination": {got.I, want.I},
		"RAAN":        {got.Ω, want.Ω},
		"argPeri":     {got.ω, want.ω},
		"trueAnomaly": {got.ν, want.ν},
	} {
		if !floats.EqualWithinAbs(pair[0], pair[1], 1e-8) {
			t.Fatalf("%s fail: %f != %f", name, pair[0], pair[1])
		}
	}
	if !floats.EqualWithinAbs(want.Apoapsis(), 8800e3, 1) || !floats.EqualWithinAbs(want.Periapsis(), 7200e3, 1) {
		t.Fatal("apsides fail")
	}
}

func TestCoastArcCircular(t *testing.T) {
	// A circular orbit coasts at a constant radius.
	alt := 300e3
	r := EarthRadius + alt
	vCirc := math.Sqrt(EarthMu / r)
	arc := NewCoastArc([]float64{0, 0, alt}, []float64{vCirc, 0, 0}, 120)
	r0 := norm(arc.R)
	arc.Propagate()
	if !floats.EqualWithinAbs(norm(arc.R), r0, 100) {
		t.Fatalf("circular coast radius drifted: %f -> %f", r0, norm(arc.R))
	}
	if !floats.EqualWithinAbs(norm(arc.V), vCirc, 1) {
		t.Fatalf("circular coast speed drifted: %f", norm(arc.V))
	}
}

func TestCoastArcEnergy(t *testing.T) {
	// Specific orbital energy is conserved along any coast.
	arc := NewCoastArc([]float64{0, 0, 200e3}, []float64{6500, 0, 1000}, 300)
	energy := func() float64 { return norm(arc.V)*norm(arc.V)/2 - EarthMu/norm(arc.R) }
	e0 := energy()
	arc.Propagate()
	if !floats.EqualWithinRel(energy(), e0, 1e-6) {
		t.Fatalf("energy drifted: %f -> %f", e0, energy())
	}
}

func TestInsertionDv(t *testing.T) {
	// Already circular: nothing left to do.
	r := EarthRadius + 300e3
	vCirc := math.Sqrt(EarthMu / r)
	R := []float64{r, 0, 0}
	V := []float64{0, vCirc, 0}
	if dv := InsertionDv(R, V, EarthMu); dv > 1 {
		t.Fatalf("circular orbit must need no circularization: %f", dv)
	}
	// Elliptical: the burn at apoapsis is the usual raise-the-periapsis cost.
	V[1] = vCirc * 1.05
	if dv := InsertionDv(R, V, EarthMu); dv <= 1 {
		t.Fatal("elliptical orbit must need a circularization burn")
	}
}

func TestStateVectors(t *testing.T) {
	R, V := StateVectors([]float64{10, 20, 30}, []float64{1, 2, 3})
	if R[2] != 30+EarthRadius || R[0] != 10 || R[1] != 20 {
		t.Fatalf("position lift fail: %+v", R)
	}
	if !vectorsEqual(V, []float64{1, 2, 3}) {
		t.Fatal("velocity must pass through unchanged")
	}
}
