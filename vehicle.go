package starship

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// Vehicle is the mutable record of one stage. It is created at reset, mutated
// every tick by the force model and integrator while active, and only ever
// deactivated, never removed.
type Vehicle struct {
	Name       string
	DryMass    float64   // kg, constant
	Propellant float64   // kg, in [0, Capacity], non-increasing while thrusting
	Capacity   float64   // kg
	Position   []float64 // m, world frame, index 2 is up
	Velocity   []float64 // m/s
	Pitch      float64   // rad
	Yaw        float64   // rad
	Roll       float64   // rad
	AngularVel []float64 // rad/s
	Accel      []float64 // m/s², last computed, kept for telemetry

	Throttle   float64   // [0, 1]
	Gimbal     []float64 // rad, 2-axis nozzle deflection, clamped to GimbalLimit
	FinDeploy  float64   // [0, 1]
	FinDeflect []float64 // rad, 2-axis grid fin deflection
	LegDeploy  float64   // [0, 1]

	// ExtraMass is the mass of anything riding on this stage, zero once
	// separated.
	ExtraMass float64

	Active bool
	Landed bool

	HeatShieldTemp float64 // K, monotonic thermal load proxy
	MaxQ           float64 // Pa, high watermark
	MaxAccel       float64 // m/s², high watermark

	cfg    VehicleConfig
	logger kitlog.Logger
}

// NewVehicle returns a vehicle at rest on the pad with full tanks.
func NewVehicle(cfg VehicleConfig) *Vehicle {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "vehicle", cfg.Name)
	v := &Vehicle{cfg: cfg, logger: klog}
	v.ResetState()
	return v
}

// ResetState reinitializes every mutable field. No state leaks into the next run.
func (v *Vehicle) ResetState() {
	v.Name = v.cfg.Name
	v.DryMass = v.cfg.DryMass
	v.Propellant = v.cfg.PropellantMass
	v.Capacity = v.cfg.PropellantMass
	v.Position = []float64{0, 0, 0}
	v.Velocity = []float64{0, 0, 0}
	v.Pitch, v.Yaw, v.Roll = 0, 0, 0
	v.AngularVel = []float64{0, 0, 0}
	v.Accel = []float64{0, 0, 0}
	v.Throttle = 0
	v.Gimbal = []float64{0, 0}
	v.FinDeploy = 0
	v.FinDeflect = []float64{0, 0}
	v.LegDeploy = 0
	v.ExtraMass = 0
	v.Active = false
	v.Landed = false
	v.HeatShieldTemp = 288.15
	v.MaxQ = 0
	v.MaxAccel = 0
}

// Mass returns the total mass used for force integration, floored above zero
// so that acceleration = F/m never divides by zero.
func (v *Vehicle) Mass() float64 {
	m := v.DryMass + v.Propellant + v.ExtraMass
	if m < 1 {
		return 1
	}
	return m
}

// Altitude returns the vertical position component.
func (v *Vehicle) Altitude() float64 {
	return v.Position[2]
}

// SetThrottle clamps and applies a throttle command. Without propellant the
// engines cannot light, whatever the command.
func (v *Vehicle) SetThrottle(throttle float64) {
	if v.Propellant <= 0 {
		v.Throttle = 0
		return
	}
	v.Throttle = clamp(throttle, 0, 1)
}

// SetGimbal clamps and applies a 2-axis gimbal command.
func (v *Vehicle) SetGimbal(x, y float64) {
	v.Gimbal[0] = clamp(x, -v.cfg.GimbalLimit, v.cfg.GimbalLimit)
	v.Gimbal[1] = clamp(y, -v.cfg.GimbalLimit, v.cfg.GimbalLimit)
}

// SetFinDeflect clamps and applies a 2-axis grid fin deflection command.
// Fin authority is hardware-limited to ±20 degrees.
func (v *Vehicle) SetFinDeflect(x, y float64) {
	limit := Deg2rad(20)
	v.FinDeflect[0] = clamp(x, -limit, limit)
	v.FinDeflect[1] = clamp(y, -limit, limit)
}

// UpdateDeployables animates the grid fins and landing legs toward their
// commanded state at the configured rates. Deployment is gated by altitude
// windows and reverses if the vehicle climbs back out of the window.
func (v *Vehicle) UpdateDeployables(dt float64) {
	finTarget := 0.0
	if v.Altitude() < v.cfg.FinDeployAlt && v.Velocity[2] < 0 {
		finTarget = 1
	}
	v.FinDeploy = stepToward(v.FinDeploy, finTarget, v.cfg.FinDeployRate*dt)
	legTarget := 0.0
	if v.Altitude() < v.cfg.LegDeployAlt && v.Velocity[2] < 0 {
		legTarget = 1
	}
	v.LegDeploy = stepToward(v.LegDeploy, legTarget, v.cfg.LegDeployRate*dt)
}

// stepToward moves cur toward target by at most step, monotonically.
func stepToward(cur, target, step float64) float64 {
	if cur < target {
		return clamp(cur+step, 0, target)
	}
	if cur > target {
		return clamp(cur-step, target, 1)
	}
	return cur
}

// recordPeaks updates the monotonic performance watermarks.
func (v *Vehicle) recordPeaks(dynamicPressure, accelMag float64) {
	if dynamicPressure > v.MaxQ {
		v.MaxQ = dynamicPressure
	}
	if accelMag > v.MaxAccel {
		v.MaxAccel = accelMag
	}
}

// accumulateHeat applies convective heating, proportional to ρ·|v|³.
// The shield temperature only rises: it is a proxy for total thermal load.
func (v *Vehicle) accumulateHeat(density, dt float64) {
	speed := norm(v.Velocity)
	v.HeatShieldTemp += v.cfg.HeatGain * density * speed * speed * speed * dt
}
