package starship

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func testGuidance(met float64) *DescentGuidance {
	cfg := DefaultConfig()
	return NewDescentGuidance(cfg.Guidance, cfg.Gravity, []float64{0, 0, 0}, met)
}

func TestHoverSlamProfile(t *testing.T) {
	g := testGuidance(0)
	cfg := DefaultConfig().Guidance
	// At the pad the profile clamps to the touchdown speed.
	if !floats.EqualWithinAbs(g.targetDescentSpeed(0), -cfg.TouchdownSpeed, 1e-12) {
		t.Fatalf("pad target speed fail: %f", g.targetDescentSpeed(0))
	}
	// Higher up it follows the constant-deceleration square root.
	grav := DefaultConfig().Gravity
	want := -math.Sqrt(2 * cfg.HoverSlamFraction * grav.g(800) * 800)
	if !floats.EqualWithinAbs(g.targetDescentSpeed(800), want, 1e-9) {
		t.Fatalf("slam profile fail at 800 m: %f want %f", g.targetDescentSpeed(800), want)
	}
	// The commanded magnitude shrinks as altitude does.
	if math.Abs(g.targetDescentSpeed(100)) >= math.Abs(g.targetDescentSpeed(800)) {
		t.Fatal("slam profile must decelerate on the way down")
	}
}

func TestDescentPhaseOrder(t *testing.T) {
	g := testGuidance(0)
	cfg := DefaultConfig()
	v := NewVehicle(cfg.Booster)
	v.Active = true
	v.Velocity = []float64{0, 0, -80}
	// Walk the vehicle down through every threshold: sub-phases must fire
	// in order and never regress.
	alts := []float64{80e3, 50e3, 20e3, 5e3, 800, 80e3}
	want := []DescentPhase{DescentCoast, DescentBoostback, DescentEntry, DescentAero, DescentLandingBurn, DescentLandingBurn}
	for i, alt := range alts {
		v.Position[2] = alt
		g.Update(v, float64(i), 0.05)
		if g.Phase() != want[i] {
			t.Fatalf("at %f m: phase %s, want %s", alt, g.Phase(), want[i])
		}
	}
}

func TestDescentPhaseTimeout(t *testing.T) {
	g := testGuidance(0)
	cfg := DefaultConfig()
	v := NewVehicle(cfg.Booster)
	v.Active = true
	v.Position[2] = 80e3 // parked above every threshold
	g.Update(v, 0, 0.05)
	if g.Phase() != DescentCoast {
		t.Fatalf("expected coast, got %s", g.Phase())
	}
	g.Update(v, cfg.Guidance.PhaseMaxDuration+1, 0.05)
	if g.Phase() != DescentBoostback {
		t.Fatalf("a stuck sub-phase must time out, got %s", g.Phase())
	}
}

func TestGuidanceThrottleBounds(t *testing.T) {
	g := testGuidance(0)
	cfg := DefaultConfig()
	v := NewVehicle(cfg.Booster)
	v.Active = true
	met := 0.0
	for _, alt := range []float64{80e3, 40e3, 20e3, 5e3, 600, 50, 5} {
		v.Position[2] = alt
		v.Velocity = []float64{5, -3, -120}
		g.Update(v, met, 0.05)
		met += 0.05
		if v.Throttle < 0 || v.Throttle > 1 {
			t.Fatalf("throttle escaped [0,1] at %f m: %f", alt, v.Throttle)
		}
	}
}

func TestGuidanceRetarget(t *testing.T) {
	g := testGuidance(0)
	g.Retarget([]float64{0, 0, 130})
	if !vectorsEqual(g.target, []float64{0, 0, 130}) {
		t.Fatalf("retarget fail: %+v", g.target)
	}
	// Retargeting must not disturb the sub-phase.
	if g.Phase() != DescentCoast {
		t.Fatalf("retarget must not change the sub-phase: %s", g.Phase())
	}
	g.MarkTouchdown()
	if g.Phase() != DescentTouchdown {
		t.Fatal("touchdown mark fail")
	}
}

func TestGuidanceControlSplit(t *testing.T) {
	cfg := DefaultConfig()
	g := testGuidance(0)
	v := NewVehicle(cfg.Booster)
	v.Active = true
	// High up and far off target: fins steer, gimbal centered.
	v.Position = []float64{4000, 0, cfg.Guidance.EntryAltitude - 1000}
	v.Velocity = []float64{0, 0, -200}
	g.Update(v, 0, 0.05)
	if v.FinDeflect[0] == 0 {
		t.Fatal("fins must steer above the handover altitude")
	}
	if v.Gimbal[0] != 0 || v.Gimbal[1] != 0 {
		t.Fatalf("gimbal must stay centered above the handover altitude: %+v", v.Gimbal)
	}
	// Low: gimbal takes over.
	v.Position = []float64{300, 0, cfg.Guidance.LandingAltitude - 200}
	g.Update(v, 1, 0.05)
	if v.Gimbal[0] == 0 {
		t.Fatal("gimbal must steer near the ground")
	}
	if v.FinDeflect[0] != 0 || v.FinDeflect[1] != 0 {
		t.Fatalf("fins must center near the ground: %+v", v.FinDeflect)
	}
}
