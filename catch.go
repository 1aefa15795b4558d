package starship

import (
	"math"
	"math/rand"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// armClosedSpread is the residual half-spread at which the arms are
// considered fully closed on the booster.
const armClosedSpread = 0.1

// CatchStatus is the tower's report for one tick. Caught and Failed are
// terminal once set.
type CatchStatus struct {
	ArmHeight  float64 // m above the tower base
	ArmSpread  float64 // m, half-spread of the arms
	Tracking   bool
	InPosition bool
	Caught     bool
	Failed     bool
}

// Tower is the recovery tower: it tracks the booster inside its tracking
// range, servoes the catch arms to the booster's height and closes them on
// it. Tracking carries a small fixed offset sampled once per acquisition,
// standing in for sensor noise; the catch itself is a deterministic threshold
// check on alignment and velocity.
type Tower struct {
	cfg    TowerConfig
	status CatchStatus

	trackErr []float64
	noise    *distmv.Normal
	logger   kitlog.Logger
}

// NewTower builds the tower with its arms half-raised and fully open.
func NewTower(cfg TowerConfig, rng *rand.Rand) *Tower {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "tower")
	t := &Tower{cfg: cfg, logger: klog}
	if cfg.NoiseSigma > 0 {
		σ2 := cfg.NoiseSigma * cfg.NoiseSigma
		noise, ok := distmv.NewNormal([]float64{0, 0, 0}, mat64.NewSymDense(3, []float64{σ2, 0, 0, 0, σ2, 0, 0, 0, σ2}), rng)
		if !ok {
			panic("NOK in Gaussian")
		}
		t.noise = noise
	}
	t.Reset()
	return t
}

// Reset reopens the arms and drops any acquisition.
func (t *Tower) Reset() {
	t.status = CatchStatus{ArmHeight: t.cfg.Height / 2, ArmSpread: t.cfg.ArmSpan}
	t.trackErr = []float64{0, 0, 0}
}

// Status returns the last reported status.
func (t *Tower) Status() CatchStatus {
	return t.status
}

// Update advances the catch sequence by dt against the booster's position and
// velocity, and returns the tower status. After a terminal outcome it keeps
// reporting that outcome.
func (t *Tower) Update(dt float64, boosterPos, boosterVel []float64) CatchStatus {
	if t.status.Caught || t.status.Failed {
		return t.status
	}

	base := t.cfg.Position
	hDist := math.Hypot(boosterPos[0]-base[0], boosterPos[1]-base[1])

	// Nearing the ground uncaught is a loss wherever the booster is, in
	// or out of tracking: the outcome must always resolve.
	if boosterPos[2] < base[2]+t.cfg.GroundAltitude {
		t.fail("booster reached ground altitude uncaught")
		return t.status
	}

	if !t.status.Tracking {
		if hDist <= t.cfg.TrackingRange {
			t.status.Tracking = true
			if t.noise != nil {
				// One sample per acquisition, not per tick.
				t.trackErr = t.noise.Rand(nil)
			}
			t.logger.Log("level", "info", "status", "tracking", "range(m)", hDist)
		}
		return t.status
	}

	tracked := add(boosterPos, t.trackErr)
	trackedHDist := math.Hypot(tracked[0]-base[0], tracked[1]-base[1])
	armAbsHeight := base[2] + t.status.ArmHeight

	// Loss condition: sinking past the arms while misaligned.
	if armAbsHeight-boosterPos[2] > 3*t.cfg.HeightTol && trackedHDist > t.cfg.AlignTol {
		t.fail("booster sank below the arms misaligned")
		return t.status
	}

	// Servo the arm height toward the tracked catch point at a bounded rate.
	desired := clamp(tracked[2]-base[2], 0, t.cfg.Height)
	t.status.ArmHeight = stepTowardRate(t.status.ArmHeight, desired, t.cfg.ArmRate*dt)
	t.status.InPosition = math.Abs(t.status.ArmHeight-(tracked[2]-base[2])) < t.cfg.HeightTol

	// Once in position, close the arms at a bounded rate.
	if t.status.InPosition {
		t.status.ArmSpread = math.Max(t.status.ArmSpread-t.cfg.CloseRate*dt, 0)
	}
	if t.status.ArmSpread > armClosedSpread {
		return t.status
	}

	// Arms fully closed: the catch envelope decides.
	aligned := trackedHDist < t.cfg.AlignTol && math.Abs(armAbsHeight-tracked[2]) < t.cfg.HeightTol
	slowV := math.Abs(boosterVel[2]) < t.cfg.MaxVertical
	slowH := math.Hypot(boosterVel[0], boosterVel[1]) < t.cfg.MaxHorizontal
	if aligned && slowV && slowH {
		t.status.Caught = true
		t.logger.Log("level", "notice", "status", "caught", "vZ(m/s)", boosterVel[2])
	} else {
		t.fail("catch envelope violated at arm closure")
	}
	return t.status
}

func (t *Tower) fail(reason string) {
	t.status.Failed = true
	t.logger.Log("level", "critical", "status", "failed", "reason", reason)
}

// stepTowardRate moves cur toward target by at most step without bounds.
func stepTowardRate(cur, target, step float64) float64 {
	if math.Abs(target-cur) <= step {
		return target
	}
	return cur + sign(target-cur)*step
}
