package starship

import (
	"math/rand"
	"testing"

	"github.com/gonum/floats"
)

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Wind.Speed = 0
	cfg.Wind.GustSigma = 0
	return cfg
}

func TestThrustRequiresPropellant(t *testing.T) {
	cfg := quietConfig()
	fm := NewForceModel(cfg, rand.New(rand.NewSource(1)))
	v := NewVehicle(cfg.Booster)
	v.Active = true
	v.Throttle = 1
	if fm.Thrust(v) <= 0 {
		t.Fatal("full tanks and full throttle must produce thrust")
	}
	v.Propellant = 0
	if fm.Thrust(v) != 0 {
		t.Fatal("thrust must be exactly zero on empty tanks")
	}
	if fm.MassFlow(v) != 0 {
		t.Fatal("no propellant, no flow")
	}
	v.Propellant = v.Capacity
	v.Throttle = 0
	if fm.Thrust(v) != 0 {
		t.Fatal("thrust must be exactly zero with the throttle closed")
	}
}

func TestIspBlend(t *testing.T) {
	cfg := quietConfig().Booster
	if !floats.EqualWithinAbs(ispAt(cfg, 0), cfg.IspSeaLevel, 1e-12) {
		t.Fatal("sea level Isp fail")
	}
	if !floats.EqualWithinAbs(ispAt(cfg, ispBlendAltitude), cfg.IspVacuum, 1e-12) {
		t.Fatal("vacuum Isp fail")
	}
	if !floats.EqualWithinAbs(ispAt(cfg, 2*ispBlendAltitude), cfg.IspVacuum, 1e-12) {
		t.Fatal("Isp must not keep growing above the blend ceiling")
	}
	mid := ispAt(cfg, ispBlendAltitude/2)
	if mid <= cfg.IspSeaLevel || mid >= cfg.IspVacuum {
		t.Fatalf("mid-altitude Isp outside blend: %f", mid)
	}
}

func TestNetForceGravityOnly(t *testing.T) {
	cfg := quietConfig()
	fm := NewForceModel(cfg, rand.New(rand.NewSource(1)))
	v := NewVehicle(cfg.Booster)
	v.Active = true
	// High, at rest, engines off: gravity is the only force.
	v.Position[2] = 200e3
	f := fm.Net(v, []float64{0, 0, 0})
	want := -v.Mass() * cfg.Gravity.g(200e3)
	if !floats.EqualWithinAbs(f[2], want, 1e-6) || f[0] != 0 || f[1] != 0 {
		t.Fatalf("vacuum force fail: %+v want z=%f", f, want)
	}
}

func TestNetForcePanicsOnInactive(t *testing.T) {
	cfg := quietConfig()
	fm := NewForceModel(cfg, rand.New(rand.NewSource(1)))
	v := NewVehicle(cfg.Booster)
	assertPanic(t, func() { fm.Net(v, []float64{0, 0, 0}) })
}

func TestDragOpposesAirspeed(t *testing.T) {
	cfg := quietConfig()
	fm := NewForceModel(cfg, rand.New(rand.NewSource(1)))
	v := NewVehicle(cfg.Booster)
	v.Active = true
	v.Position[2] = 1000
	v.Velocity = []float64{120, 0, 0}
	f := fm.Net(v, []float64{0, 0, 0})
	if f[0] >= 0 {
		t.Fatalf("drag must oppose motion: fx=%f", f[0])
	}
	if v.MaxQ <= 0 {
		t.Fatal("dynamic pressure peak must be recorded")
	}
}

func TestWindDeterminism(t *testing.T) {
	cfg := DefaultConfig().Wind
	cfg.GustSigma = 2
	cfg.GustProb = 1 // gust every tick
	a := NewWind(cfg, rand.New(rand.NewSource(7)))
	b := NewWind(cfg, rand.New(rand.NewSource(7)))
	for i := 0; i < 50; i++ {
		if !vectorsEqual(a.Current(0.1), b.Current(0.1)) {
			t.Fatal("same seed must replay the same wind")
		}
	}
}

func TestWindReset(t *testing.T) {
	cfg := DefaultConfig().Wind
	cfg.GustSigma = 2
	cfg.GustProb = 1
	w := NewWind(cfg, rand.New(rand.NewSource(7)))
	w.Current(0.1)
	w.Reset()
	if !vectorsEqual(w.gust, []float64{0, 0, 0}) {
		t.Fatal("reset must clear the gust")
	}
}
