package starship

import (
	"math"
	"math/rand"
	"os"
	"sync"

	kitlog "github.com/go-kit/kit/log"
)

// returnStage enumerates the booster return legs between separation and the
// landing sequence command.
type returnStage uint8

const (
	returnCoast returnStage = iota + 1
	returnFlip
	returnBurn
	returnApproach
)

func (s returnStage) String() string {
	switch s {
	case returnCoast:
		return "coast"
	case returnFlip:
		return "flip"
	case returnBurn:
		return "boostback"
	case returnApproach:
		return "approach"
	}
	panic("cannot stringify unknown return stage")
}

// Simulation drives a full flight of the two-stage stack: it owns both
// vehicles, the force model, the landing guidance and the catch tower, and
// advances them phase by phase on every Update. All randomness flows from a
// single seeded source, so a given configuration always replays the same
// flight. Commands arriving in the wrong phase are logged and dropped.
type Simulation struct {
	cfg Config

	Booster *Vehicle
	Ship    *Vehicle

	forces   *ForceModel
	guidance *DescentGuidance
	tower    *Tower

	phase Phase
	met   float64
	speed float64

	sepTimer   float64
	retStage   returnStage
	retTimer   float64
	shipFlying bool
	shipSECO   bool

	rng      *rand.Rand
	logger   kitlog.Logger
	histChan chan Snapshot
	wg       sync.WaitGroup
}

// NewSimulation assembles a simulation from a configuration and leaves it in
// the pre-launch hold.
func NewSimulation(cfg Config) *Simulation {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "mission")
	rng := rand.New(rand.NewSource(cfg.Sim.Seed))
	s := &Simulation{
		cfg:     cfg,
		Booster: NewVehicle(cfg.Booster),
		Ship:    NewVehicle(cfg.Ship),
		forces:  NewForceModel(cfg, rng),
		tower:   NewTower(cfg.Tower, rng),
		rng:     rng,
		logger:  klog,
	}
	s.Reset()
	return s
}

// NewExportedSimulation also streams every snapshot to the given export
// destination. Call Close once the flight is over to flush it.
func NewExportedSimulation(cfg Config, conf ExportConfig) *Simulation {
	s := NewSimulation(cfg)
	if conf.IsUseless() {
		return s
	}
	s.histChan = make(chan Snapshot, 10)
	s.wg.Add(1)
	go func() {
		StreamStates(conf, s.histChan)
		s.wg.Done()
	}()
	return s
}

// Close stops the telemetry stream and blocks until the export is flushed.
func (s *Simulation) Close() {
	if s.histChan == nil {
		return
	}
	close(s.histChan)
	s.wg.Wait()
	s.histChan = nil
}

// Phase returns the current mission phase.
func (s *Simulation) Phase() Phase {
	return s.phase
}

// MET returns the mission elapsed time in seconds.
func (s *Simulation) MET() float64 {
	return s.met
}

// Speed returns the simulation speed multiplier.
func (s *Simulation) Speed() float64 {
	return s.speed
}

// DescentDetail returns the booster's fine-grained flight leg, or an empty
// string outside the return and landing phases.
func (s *Simulation) DescentDetail() string {
	switch s.phase {
	case BoosterReturn:
		return s.retStage.String()
	case BoosterLanding, MechazillaCatch:
		return s.guidance.Phase().String()
	}
	return ""
}

// rig restacks the vehicles on the pad and zeroes every timer and
// controller. Nothing leaks into the next flight.
func (s *Simulation) rig() {
	s.met = 0
	s.sepTimer = 0
	s.retStage = returnCoast
	s.retTimer = 0
	s.shipFlying = false
	s.shipSECO = false
	s.Booster.ResetState()
	s.Booster.Active = true
	s.Ship.ResetState()
	s.Ship.Position[2] = s.cfg.Ship.StackOffset
	s.Booster.ExtraMass = s.Ship.Mass()
	s.tower.Reset()
	s.forces.Wind.Reset()
	s.guidance = NewDescentGuidance(s.cfg.Guidance, s.cfg.Gravity, s.catchPoint(), 0)
}

// Reset returns the stack to the pad. Valid in any phase.
func (s *Simulation) Reset() {
	s.rig()
	s.phase = Ready
	s.speed = s.cfg.Sim.Speed
	s.logger.Log("level", "notice", "phase", s.phase, "status", "stack on pad")
}

// StartLaunch restacks the vehicles, zeroes the clock and ignites the
// booster. Valid only from the pad hold.
func (s *Simulation) StartLaunch() {
	if s.phase != Ready {
		s.reject("startLaunch")
		return
	}
	s.rig()
	s.phase = Launch
	s.Booster.SetThrottle(1)
	s.logger.Log("level", "notice", "phase", s.phase, "liftoffMass(kg)", s.Booster.Mass()+s.Ship.Mass())
}

// TriggerStageSeparation cuts the engines and starts the separation timer.
// Valid only during ascent.
func (s *Simulation) TriggerStageSeparation() {
	if s.phase != Ascent {
		s.reject("triggerStageSeparation")
		return
	}
	s.phase = StageSeparation
	s.sepTimer = 0
	s.Booster.SetThrottle(0)
	s.logger.Log("level", "notice", "phase", s.phase, "met(s)", s.met)
}

// StartLandingSequence hands the booster to the descent guidance. Valid only
// during the booster return.
func (s *Simulation) StartLandingSequence() {
	if s.phase != BoosterReturn {
		s.reject("startLandingSequence")
		return
	}
	s.phase = BoosterLanding
	s.guidance = NewDescentGuidance(s.cfg.Guidance, s.cfg.Gravity, s.catchPoint(), s.met)
	s.logger.Log("level", "notice", "phase", s.phase, "altitude(m)", s.Booster.Altitude())
}

// StartMechazillaCatch arms the tower. Valid only during the landing sequence.
func (s *Simulation) StartMechazillaCatch() {
	if s.phase != BoosterLanding {
		s.reject("startMechazillaCatch")
		return
	}
	s.phase = MechazillaCatch
	// The capture point sits up the tower where the arms can reach, so the
	// hover-slam nulls out there instead of at the pad.
	t := s.cfg.Tower
	s.guidance.Retarget([]float64{t.Position[0], t.Position[1], t.Position[2] + 0.9*t.Height})
	s.logger.Log("level", "notice", "phase", s.phase, "altitude(m)", s.Booster.Altitude())
}

// SetSimulationSpeed sets the time multiplier applied to every Update. Non
// positive values are dropped.
func (s *Simulation) SetSimulationSpeed(mult float64) {
	if mult <= 0 {
		s.logger.Log("level", "warning", "cmd", "setSimulationSpeed", "value", mult, "status", "ignored")
		return
	}
	s.speed = mult
}

func (s *Simulation) reject(cmd string) {
	s.logger.Log("level", "warning", "cmd", cmd, "phase", s.phase, "status", "ignored")
}

func (s *Simulation) catchPoint() []float64 {
	p := s.cfg.Tower.Position
	return []float64{p[0], p[1], p[2]}
}

// Update advances the simulation by frameDt seconds of wall time scaled by
// the speed multiplier. Scaled time is sub-stepped so no single physics step
// ever exceeds the configured ceiling, whatever the frame rate or speed. It
// always returns a snapshot, and never halts on a flight outcome: the caller
// decides when a run is over.
func (s *Simulation) Update(frameDt float64) Snapshot {
	if frameDt > 0 {
		remaining := frameDt * s.speed
		for remaining > 1e-9 {
			dt := remaining
			if dt > s.cfg.Sim.MaxStep {
				dt = s.cfg.Sim.MaxStep
			}
			s.step(dt)
			remaining -= dt
		}
	}
	snap := Snapshot{
		MET:           s.met,
		Phase:         s.phase,
		DescentDetail: s.DescentDetail(),
		Booster:       snapshotVehicle(s.Booster),
		Ship:          snapshotVehicle(s.Ship),
		Catch:         s.tower.Status(),
		Speed:         s.speed,
	}
	if s.histChan != nil {
		s.histChan <- snap
	}
	return snap
}

func (s *Simulation) step(dt float64) {
	if s.phase == Ready {
		return
	}
	s.met += dt
	if s.phase == MissionComplete {
		return
	}
	wind := s.forces.Wind.Current(dt)
	switch s.phase {
	case Launch, Ascent:
		s.ascentStep(dt, wind)
	case StageSeparation:
		s.separationStep(dt, wind)
	case BoosterReturn:
		s.returnStep(dt, wind)
		s.shipStep(dt, wind)
	case BoosterLanding:
		s.landingStep(dt, wind)
		s.shipStep(dt, wind)
	case MechazillaCatch:
		s.catchStep(dt, wind)
		s.shipStep(dt, wind)
	}
}

// stepVehicle runs one full physics tick for one stage: forces, integration,
// propellant draw, deployables and thermal load.
func (s *Simulation) stepVehicle(v *Vehicle, angAccel, wind []float64, dt float64) (touchdown bool) {
	force := s.forces.Net(v, wind)
	s.drainPropellant(v, dt)
	touchdown = Integrate(v, force, angAccel, dt)
	v.UpdateDeployables(dt)
	v.accumulateHeat(s.forces.Atm.Density(v.Altitude()), dt)
	return touchdown
}

func (s *Simulation) drainPropellant(v *Vehicle, dt float64) {
	used := s.forces.MassFlow(v) * dt
	if used == 0 {
		return
	}
	if used >= v.Propellant {
		v.Propellant = 0
		v.Throttle = 0
		v.logger.Log("level", "critical", "subsys", "prop", "fuel(kg)", 0)
		return
	}
	v.Propellant -= used
}

// programmedPitch is the open-loop ascent pitch-over: vertical off the pad,
// then a linear ramp to the programmed maximum.
func (s *Simulation) programmedPitch(alt float64) float64 {
	p := s.cfg.Phases
	if alt <= p.PitchOverStart {
		return 0
	}
	frac := clamp((alt-p.PitchOverStart)/(p.PitchOverEnd-p.PitchOverStart), 0, 1)
	return p.MaxPitch * frac
}

// steerTo returns the angular acceleration tracking the given attitude, with
// rate damping on all three axes.
func steerTo(v *Vehicle, targetPitch, targetYaw, authority float64) []float64 {
	return []float64{
		clamp(2*(targetPitch-v.Pitch), -authority, authority) - 1.5*v.AngularVel[0],
		clamp(2*(targetYaw-v.Yaw), -authority, authority) - 1.5*v.AngularVel[1],
		-1.5 * v.AngularVel[2],
	}
}

// mirrorShip keeps the mated upper stage rigidly on top of the booster. The
// ship is not integrated before separation.
func (s *Simulation) mirrorShip() {
	b, sh := s.Booster, s.Ship
	up := BodyUpAxis(b.Pitch, b.Yaw, b.Roll)
	sh.Position = add(b.Position, scale(s.cfg.Ship.StackOffset, up))
	sh.Velocity = append([]float64{}, b.Velocity...)
	sh.Pitch, sh.Yaw, sh.Roll = b.Pitch, b.Yaw, b.Roll
}

func (s *Simulation) ascentStep(dt float64, wind []float64) {
	b := s.Booster
	b.SetThrottle(1)
	ang := steerTo(b, s.programmedPitch(b.Altitude()), 0, 0.25)
	s.stepVehicle(b, ang, wind, dt)
	s.mirrorShip()
	if s.phase == Launch && b.Altitude() > s.cfg.Phases.AscentAltitude {
		s.phase = Ascent
		s.logger.Log("level", "notice", "phase", s.phase, "met(s)", s.met)
	}
}

func (s *Simulation) separationStep(dt float64, wind []float64) {
	b := s.Booster
	b.SetThrottle(0)
	s.stepVehicle(b, steerTo(b, b.Pitch, b.Yaw, 0), wind, dt)
	s.mirrorShip()
	s.sepTimer += dt
	if s.sepTimer < s.cfg.Phases.SeparationDuration {
		return
	}
	// Separation impulse along the stack axis: the ship gets a prograde
	// kick, the booster a retrograde one.
	p := s.cfg.Phases
	up := BodyUpAxis(b.Pitch, b.Yaw, b.Roll)
	sh := s.Ship
	sh.Active = true
	b.ExtraMass = 0
	sh.Position = add(b.Position, scale(s.cfg.Ship.StackOffset, up))
	sh.Velocity = add(b.Velocity, scale(p.SepImpulseShip, up))
	b.Velocity = sub(b.Velocity, scale(p.SepImpulseBooster, up))
	s.shipFlying = true
	s.phase = BoosterReturn
	s.retStage = returnCoast
	s.retTimer = 0
	s.logger.Log("level", "notice", "phase", s.phase, "met(s)", s.met, "altitude(m)", b.Altitude())
}

// boostbackAttitude points the engines against the velocity vector, biased
// toward the recovery point so the burn closes the horizontal miss.
func (s *Simulation) boostbackAttitude(v *Vehicle) (pitch, yaw float64) {
	toTower := sub(s.catchPoint(), v.Position)
	dir := add(scale(-1, v.Velocity), []float64{0.6 * toTower[0], 0.6 * toTower[1], 0})
	if norm(dir) < 1 {
		return 0, 0
	}
	d := unit(dir)
	return math.Atan2(math.Hypot(d[0], d[1]), d[2]), math.Atan2(d[1], d[0])
}

// predictedMiss is the horizontal distance between the drag-free ballistic
// impact point and the catch point, used as the boostback cutoff signal.
func (s *Simulation) predictedMiss(v *Vehicle) float64 {
	g := s.cfg.Gravity.g(v.Altitude())
	alt := math.Max(v.Altitude(), 0)
	vz := v.Velocity[2]
	tFall := (vz + math.Sqrt(vz*vz+2*g*alt)) / g
	target := s.catchPoint()
	dx := v.Position[0] + v.Velocity[0]*tFall - target[0]
	dy := v.Position[1] + v.Velocity[1]*tFall - target[1]
	return math.Hypot(dx, dy)
}

func (s *Simulation) setReturnStage(stage returnStage) {
	s.retStage = stage
	s.retTimer = 0
	s.logger.Log("level", "info", "phase", s.phase, "leg", stage, "met(s)", s.met)
}

func (s *Simulation) returnStep(dt float64, wind []float64) {
	b := s.Booster
	p := s.cfg.Phases
	s.retTimer += dt
	var ang []float64
	switch s.retStage {
	case returnCoast:
		b.SetThrottle(0)
		ang = steerTo(b, b.Pitch, b.Yaw, 0)
		if s.retTimer >= p.CoastDuration {
			s.setReturnStage(returnFlip)
		}
	case returnFlip:
		b.SetThrottle(p.FlipThrottle)
		tp, ty := s.boostbackAttitude(b)
		ang = steerTo(b, tp, ty, p.FlipRate)
		if s.retTimer >= p.FlipDuration {
			s.setReturnStage(returnBurn)
		}
	case returnBurn:
		// Closed-loop cutoff: throttle until the ballistic impact point
		// falls within BurnMissRadius of the catch point, keeping a
		// propellant reserve for the landing burn.
		if s.predictedMiss(b) > p.BurnMissRadius && b.Propellant > 0.1*b.Capacity {
			b.SetThrottle(p.BurnThrottle)
		} else {
			b.SetThrottle(0)
		}
		tp, ty := s.boostbackAttitude(b)
		ang = steerTo(b, tp, ty, p.FlipRate)
		if s.retTimer >= p.BurnDuration {
			s.setReturnStage(returnApproach)
		}
	case returnApproach:
		b.SetThrottle(0)
		ang = steerTo(b, 0, 0, p.FlipRate)
	}
	if s.stepVehicle(b, ang, wind, dt) && !b.Landed {
		// Ballistic impact before the landing sequence was commanded.
		b.Landed = true
		b.logger.Log("level", "critical", "subsys", "mission", "status", "booster down", "met(s)", s.met)
	}
}

func (s *Simulation) landingStep(dt float64, wind []float64) {
	b := s.Booster
	ang := s.guidance.Update(b, s.met, dt)
	if s.stepVehicle(b, ang, wind, dt) && !b.Landed {
		b.Landed = true
		s.guidance.MarkTouchdown()
		b.logger.Log("level", "notice", "subsys", "mission", "status", "touchdown",
			"met(s)", s.met, "speed(m/s)", norm(b.Velocity))
	}
}

func (s *Simulation) catchStep(dt float64, wind []float64) {
	s.landingStep(dt, wind)
	b := s.Booster
	status := s.tower.Update(dt, b.Position, b.Velocity)
	if status.Caught {
		b.SetThrottle(0)
		b.Landed = true
		s.phase = MissionComplete
		s.logger.Log("level", "notice", "phase", s.phase, "status", "booster caught", "met(s)", s.met)
	}
}

// shipStep flies the upper stage after separation: full throttle on the
// programmed pitch until the insertion cutoff, ballistic afterwards.
func (s *Simulation) shipStep(dt float64, wind []float64) {
	if !s.shipFlying {
		return
	}
	sh := s.Ship
	if !s.shipSECO {
		sh.SetThrottle(1)
		if sh.Propellant <= 0.05*sh.Capacity {
			s.shipSECO = true
			sh.SetThrottle(0)
			s.logSECO(sh)
		}
	}
	target := s.shipPitch(sh.Altitude())
	if s.stepVehicle(sh, steerTo(sh, target, 0, 0.2), wind, dt) {
		sh.Landed = true
		s.shipFlying = false
	}
}

// shipPitch extends the ascent program past the booster's ceiling, bending
// toward horizontal for insertion.
func (s *Simulation) shipPitch(alt float64) float64 {
	p := s.cfg.Phases
	base := s.programmedPitch(alt)
	if alt <= p.PitchOverEnd {
		return base
	}
	frac := clamp((alt-p.PitchOverEnd)/(150e3-p.PitchOverEnd), 0, 1)
	return p.MaxPitch + (Deg2rad(80)-p.MaxPitch)*frac
}

// logSECO reports the achieved orbit at engine cutoff from a short two-body
// coast of the cutoff state.
func (s *Simulation) logSECO(sh *Vehicle) {
	R, V := StateVectors(sh.Position, sh.Velocity)
	coe := RV2COE(R, V, EarthMu)
	arc := NewCoastArc(sh.Position, sh.Velocity, 60)
	arc.Propagate()
	s.logger.Log("level", "notice", "subsys", "guidance", "status", "SECO", "met(s)", s.met,
		"apoapsis(km)", (coe.Apoapsis()-EarthRadius)/1000,
		"circularizationDv(m/s)", InsertionDv(R, V, EarthMu),
		"coastAltitude(km)", (norm(arc.R)-EarthRadius)/1000)
}
