package starship

import "math"

// DescentGuidance is the phase-aware landing control law. Given the vehicle
// state and a landing target it commands throttle, gimbal, fin deflection and
// an angular acceleration, through one PID per control axis. All controllers
// are fully constructed here, once, at sequence entry: no call site ever
// checks for a missing controller.
type DescentGuidance struct {
	cfg     GuidanceConfig
	gravity GravityConfig
	target  []float64

	phase      DescentPhase
	phaseStart float64 // mission elapsed time at sub-phase entry

	vertPID *PID       // vertical speed -> throttle around the phase base
	attPID  *VectorPID // attitude -> angular acceleration
	posPID  *VectorPID // horizontal position -> gimbal or fins
}

// NewDescentGuidance starts a landing sequence against the given target at
// the given mission elapsed time. Controller state always starts zeroed.
func NewDescentGuidance(cfg GuidanceConfig, gravity GravityConfig, target []float64, met float64) *DescentGuidance {
	return &DescentGuidance{
		cfg:        cfg,
		gravity:    gravity,
		target:     []float64{target[0], target[1], target[2]},
		phase:      DescentCoast,
		phaseStart: met,
		vertPID:    NewPID(cfg.VerticalSpeed, -1, 1),
		attPID:     NewVectorPID(cfg.Attitude, 0.5, 2),
		posPID:     NewVectorPID(cfg.Horizontal, 0.3, 2),
	}
}

// Phase returns the current descent sub-phase.
func (g *DescentGuidance) Phase() DescentPhase {
	return g.phase
}

// MarkTouchdown forces the terminal sub-phase once the integrator reports
// ground contact.
func (g *DescentGuidance) MarkTouchdown() {
	g.phase = DescentTouchdown
}

// Retarget moves the landing target without disturbing the sub-phase or the
// controllers. Used when the capture point sits above the ground.
func (g *DescentGuidance) Retarget(target []float64) {
	g.target = []float64{target[0], target[1], target[2]}
}

// phaseForAltitude maps an altitude to the deepest sub-phase it admits.
// Sub-phases only advance in their fixed order.
func (g *DescentGuidance) phaseForAltitude(alt float64) DescentPhase {
	switch {
	case alt < g.cfg.LandingAltitude:
		return DescentLandingBurn
	case alt < g.cfg.DescentAltitude:
		return DescentAero
	case alt < g.cfg.EntryAltitude:
		return DescentEntry
	case alt < g.cfg.BoostbackAltitude:
		return DescentBoostback
	default:
		return DescentCoast
	}
}

func (g *DescentGuidance) setPhase(p DescentPhase, met float64) {
	g.phase = p
	g.phaseStart = met
	// A new guided sub-phase starts with clean controllers.
	g.vertPID.Reset()
	g.attPID.Reset()
	g.posPID.Reset()
}

// advance moves to the next sub-phase on a descending altitude threshold or
// on sub-phase timeout, whichever comes first.
func (g *DescentGuidance) advance(alt, met float64) {
	if g.phase >= DescentTouchdown {
		return
	}
	if next := g.phaseForAltitude(alt); next > g.phase {
		g.setPhase(next, met)
		return
	}
	if met-g.phaseStart > g.cfg.PhaseMaxDuration && g.phase < DescentLandingBurn {
		g.setPhase(g.phase+1, met)
	}
}

// targetDescentSpeed returns the hover-slam vertical speed profile: decelerate
// at a fixed fraction of gravity so the speed nulls out right at the pad,
// clamped to a minimum touchdown speed so the vehicle keeps descending.
func (g *DescentGuidance) targetDescentSpeed(alt float64) float64 {
	slam := math.Sqrt(2 * g.cfg.HoverSlamFraction * g.gravity.g(alt) * math.Max(alt, 0))
	return -math.Max(slam, g.cfg.TouchdownSpeed)
}

// Update computes one tick of landing guidance: it mutates the vehicle's
// throttle, gimbal, and fin deflection, and returns the commanded angular
// acceleration. If the commanded deceleration needs more than full throttle
// the profile is simply unattainable and the vehicle undershoots.
func (g *DescentGuidance) Update(v *Vehicle, met, dt float64) (angAccel []float64) {
	// Altitude above the target, so the speed profile nulls out at the
	// capture point even when it sits above the ground.
	alt := v.Altitude() - g.target[2]
	g.advance(alt, met)

	// Attitude: vertical everywhere except boostback and entry, where the
	// vehicle tracks its retrograde direction so the engines lead.
	targetPitch, targetYaw := 0.0, 0.0
	if g.phase == DescentBoostback || g.phase == DescentEntry {
		retro := scale(-1, v.Velocity)
		if norm(retro) > 1 {
			targetPitch = math.Atan2(math.Hypot(retro[0], retro[1]), retro[2])
			targetYaw = math.Atan2(retro[1], retro[0])
		}
	}
	attCmd := g.attPID.Update([]float64{targetPitch - v.Pitch, targetYaw - v.Yaw}, dt)
	angAccel = []float64{
		attCmd[0] - 1.5*v.AngularVel[0],
		attCmd[1] - 1.5*v.AngularVel[1],
		-1.5 * v.AngularVel[2],
	}

	// Horizontal position: fins steer at altitude, the gimbal takes over
	// for fine control near the ground.
	posErr := []float64{g.target[0] - v.Position[0], g.target[1] - v.Position[1]}
	posCmd := g.posPID.Update(posErr, dt)
	if alt >= g.cfg.DescentAltitude {
		v.SetFinDeflect(posCmd[0], posCmd[1])
		v.SetGimbal(0, 0)
	} else {
		v.SetFinDeflect(0, 0)
		v.SetGimbal(posCmd[0], posCmd[1])
	}

	// Vertical speed: PID around the phase base throttle. The result is
	// always clamped back into [0, 1].
	base := 0.0
	runVert := false
	switch g.phase {
	case DescentEntry:
		base = g.cfg.EntryThrottle
		runVert = true
	case DescentAero:
		base = g.cfg.DescentThrottle
	case DescentLandingBurn:
		base = g.cfg.LandingThrottle
		runVert = true
	}
	if runVert {
		adj := g.vertPID.Update(g.targetDescentSpeed(alt)-v.Velocity[2], dt)
		v.SetThrottle(clamp(base+adj, 0, 1))
	} else {
		v.SetThrottle(base)
	}
	return angAccel
}
