package starship

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

const ispBlendAltitude = 77e3 // m, above this the engines run at vacuum Isp

// Wind is the disturbance model: a constant mean wind plus intermittent,
// exponentially decaying gusts sampled from a seeded Gaussian. It perturbs the
// airspeed used for aerodynamic forces and is never load-bearing for any
// success condition.
type Wind struct {
	mean     []float64
	gust     []float64
	gustProb float64
	noise    *distmv.Normal
	rng      *rand.Rand
}

// NewWind builds the disturbance model. A zero gust sigma disables gusts.
func NewWind(cfg WindConfig, rng *rand.Rand) *Wind {
	θ := Deg2rad(cfg.Direction)
	sθ, cθ := math.Sincos(θ)
	w := &Wind{
		mean:     []float64{cfg.Speed * cθ, cfg.Speed * sθ, 0},
		gust:     []float64{0, 0, 0},
		gustProb: cfg.GustProb,
		rng:      rng,
	}
	if cfg.GustSigma > 0 {
		σ2 := cfg.GustSigma * cfg.GustSigma
		noise, ok := distmv.NewNormal([]float64{0, 0, 0}, mat64.NewSymDense(3, []float64{σ2, 0, 0, 0, σ2, 0, 0, 0, σ2}), rng)
		if !ok {
			panic("NOK in Gaussian")
		}
		w.noise = noise
	}
	return w
}

// Current advances the gust state by dt and returns the wind vector in m/s.
func (w *Wind) Current(dt float64) []float64 {
	if w.noise != nil {
		if w.rng.Float64() < w.gustProb {
			w.gust = w.noise.Rand(nil)
		} else {
			decay := math.Exp(-dt / 2)
			w.gust = scale(decay, w.gust)
		}
	}
	return add(w.mean, w.gust)
}

// Reset clears any active gust.
func (w *Wind) Reset() {
	w.gust = []float64{0, 0, 0}
}

// ForceModel computes the net force on a single vehicle at a single instant.
// It is vehicle-agnostic: every input comes from the vehicle's own fields.
type ForceModel struct {
	Gravity GravityConfig
	Atm     Atmosphere
	Wind    *Wind
}

// NewForceModel assembles the force model from a configuration.
func NewForceModel(cfg Config, rng *rand.Rand) *ForceModel {
	return &ForceModel{Gravity: cfg.Gravity, Atm: NewAtmosphere(), Wind: NewWind(cfg.Wind, rng)}
}

// ispAt interpolates the specific impulse between its sea level and vacuum
// ratings as back-pressure falls off with altitude.
func ispAt(cfg VehicleConfig, altitude float64) float64 {
	frac := clamp(altitude/ispBlendAltitude, 0, 1)
	return cfg.IspSeaLevel + (cfg.IspVacuum-cfg.IspSeaLevel)*frac
}

// Thrust returns the current thrust magnitude in Newtons. It is zero unless
// the throttle is open and propellant remains.
func (fm *ForceModel) Thrust(v *Vehicle) float64 {
	if v.Throttle <= 0 || v.Propellant <= 0 {
		return 0
	}
	correction := ispAt(v.cfg, v.Altitude()) / v.cfg.IspVacuum
	return v.cfg.MaxThrust * v.Throttle * correction
}

// MassFlow returns the propellant consumption in kg/s at the current throttle.
func (fm *ForceModel) MassFlow(v *Vehicle) float64 {
	thrust := fm.Thrust(v)
	if thrust == 0 {
		return 0
	}
	return thrust / (ispAt(v.cfg, v.Altitude()) * 9.80665)
}

// Net sums gravity, thrust, drag, fin lift and wind disturbance into one force
// vector. Requesting forces on an inactive vehicle is a caller bug.
func (fm *ForceModel) Net(v *Vehicle, wind []float64) []float64 {
	if !v.Active {
		panic(fmt.Errorf("force computation requested on inactive vehicle %s", v.Name))
	}
	mass := v.Mass()
	alt := v.Altitude()
	force := []float64{0, 0, -mass * fm.Gravity.g(alt)}

	// Thrust along the body up axis, gimbal deflection entering linearly
	// in the lateral components (small angle).
	if thrust := fm.Thrust(v); thrust > 0 {
		dir := BodyUpAxis(v.Pitch, v.Yaw, v.Roll)
		dir[0] += v.Gimbal[0]
		dir[1] += v.Gimbal[1]
		force = add(force, scale(thrust, dir))
	}

	// Aerodynamics act on the airspeed, not the ground speed.
	airspeed := sub(v.Velocity, wind)
	speed := norm(airspeed)
	ρ := fm.Atm.Density(alt)
	q := 0.5 * ρ * speed * speed
	v.recordPeaks(q, 0)
	if q > 0 && speed > 0 {
		cd := v.cfg.DragCd + v.cfg.FinDragGain*v.FinDeploy
		force = add(force, scale(-q*cd*v.cfg.Area, unit(airspeed)))

		// Deployed fins generate a steering force perpendicular to the
		// airflow, proportional to deflection and dynamic pressure.
		if v.FinDeploy > 0 && (v.FinDeflect[0] != 0 || v.FinDeflect[1] != 0) {
			flow := unit(airspeed)
			e1 := unit(cross(flow, []float64{0, 0, 1}))
			if norm(e1) == 0 {
				e1 = []float64{1, 0, 0}
			}
			e2 := unit(cross(e1, flow))
			lift := q * v.cfg.FinLiftGain * v.cfg.Area * v.FinDeploy
			force = add(force, scale(lift*v.FinDeflect[0], e1))
			force = add(force, scale(lift*v.FinDeflect[1], e2))
		}
	}
	return force
}
