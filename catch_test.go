package starship

import (
	"math/rand"
	"testing"
)

func testTower() *Tower {
	cfg := DefaultConfig().Tower
	cfg.NoiseSigma = 0 // deterministic tracking
	return NewTower(cfg, rand.New(rand.NewSource(1)))
}

func TestCatchSuccess(t *testing.T) {
	tw := testTower()
	pos := []float64{0.5, 0, 140}
	vel := []float64{0, 0, -1.5}
	var st CatchStatus
	for i := 0; i < 2000; i++ {
		st = tw.Update(0.05, pos, vel)
		if st.Caught || st.Failed {
			break
		}
		pos[2] += vel[2] * 0.05
	}
	if !st.Caught {
		t.Fatalf("slow aligned booster must be caught: %+v", st)
	}
	if st.Failed {
		t.Fatal("caught and failed are exclusive")
	}
	if st.ArmSpread > armClosedSpread {
		t.Fatalf("arms must be closed on a caught booster: %f", st.ArmSpread)
	}
}

func TestCatchTooFast(t *testing.T) {
	tw := testTower()
	pos := []float64{0, 0, 140}
	vel := []float64{0, 0, -10} // well outside the velocity envelope
	var st CatchStatus
	for i := 0; i < 2000; i++ {
		st = tw.Update(0.05, pos, vel)
		if st.Caught || st.Failed {
			break
		}
		pos[2] += vel[2] * 0.05
	}
	if !st.Failed {
		t.Fatalf("a booster falling at 10 m/s must not be caught: %+v", st)
	}
}

func TestCatchMisaligned(t *testing.T) {
	tw := testTower()
	pos := []float64{50, 0, 140} // horizontally off the catch point
	vel := []float64{0, 0, -3}
	var st CatchStatus
	for i := 0; i < 2000; i++ {
		st = tw.Update(0.05, pos, vel)
		if st.Caught || st.Failed {
			break
		}
		pos[2] += vel[2] * 0.05
	}
	if !st.Failed {
		t.Fatalf("a misaligned booster must not be caught: %+v", st)
	}
}

func TestCatchGroundLoss(t *testing.T) {
	tw := testTower()
	st := tw.Update(0.05, []float64{0, 0, 100}, []float64{0, 0, -2}) // acquire
	st = tw.Update(0.05, []float64{0, 0, 2}, []float64{0, 0, -2})
	if !st.Failed {
		t.Fatalf("a booster at ground altitude must be lost: %+v", st)
	}
}

func TestGroundLossOutsideTrackingRange(t *testing.T) {
	tw := testTower()
	pos := []float64{5000, 0, 0} // at rest on the ground, far from the tower
	vel := []float64{0, 0, 0}
	var st CatchStatus
	for i := 0; i < 100; i++ {
		st = tw.Update(0.05, pos, vel)
		if st.Caught || st.Failed {
			break
		}
	}
	if st.Tracking {
		t.Fatal("a grounded booster 5 km out must not be acquired")
	}
	if !st.Failed {
		t.Fatalf("a grounded booster must be lost even out of tracking: %+v", st)
	}
}

func TestTrackingRange(t *testing.T) {
	tw := testTower()
	st := tw.Update(0.05, []float64{5000, 0, 140}, []float64{0, 0, -1})
	if st.Tracking {
		t.Fatal("booster outside the tracking range must not be acquired")
	}
	st = tw.Update(0.05, []float64{500, 0, 140}, []float64{0, 0, -1})
	if !st.Tracking {
		t.Fatal("booster inside the tracking range must be acquired")
	}
}

func TestCatchOutcomeLatches(t *testing.T) {
	tw := testTower()
	tw.status.Failed = true
	st := tw.Update(0.05, []float64{0, 0, 140}, []float64{0, 0, -1})
	if !st.Failed || st.Caught {
		t.Fatal("a terminal outcome must latch")
	}
	tw.Reset()
	st = tw.Status()
	if st.Failed || st.Tracking || st.ArmSpread != tw.cfg.ArmSpan {
		t.Fatalf("reset must reopen the tower: %+v", st)
	}
}

func TestTrackingNoiseSampledOnce(t *testing.T) {
	cfg := DefaultConfig().Tower
	cfg.NoiseSigma = 0.4
	tw := NewTower(cfg, rand.New(rand.NewSource(3)))
	tw.Update(0.05, []float64{0, 0, 140}, []float64{0, 0, -1})
	first := append([]float64{}, tw.trackErr...)
	if vectorsEqual(first, []float64{0, 0, 0}) {
		t.Fatal("acquisition must sample a tracking offset")
	}
	for i := 0; i < 20; i++ {
		tw.Update(0.05, []float64{0, 0, 140}, []float64{0, 0, -1})
	}
	if !vectorsEqual(tw.trackErr, first) {
		t.Fatal("the tracking offset is sampled once per acquisition, not per tick")
	}
}
