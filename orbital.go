package starship

import (
	"math"
	"time"

	"github.com/ChristopherRabotin/ode"
	"github.com/gonum/floats"
)

const (
	// EarthMu is the gravitational parameter of Earth in m^3/s^2.
	EarthMu = 3.986004418e14
	// EarthRadius is the equatorial radius of Earth in meters.
	EarthRadius = 6378136.3

	eccentricityε = 1e-8
)

// COE holds the classical orbital elements, angles in radians.
type COE struct {
	A    float64 // semi-major axis (m)
	E    float64 // eccentricity
	I    float64 // inclination
	Ω    float64 // right ascension of the ascending node
	ω    float64 // argument of periapsis
	ν    float64 // true anomaly
}

// Apoapsis returns the apoapsis radius.
func (c COE) Apoapsis() float64 {
	return c.A * (1 + c.E)
}

// Periapsis returns the periapsis radius.
func (c COE) Periapsis() float64 {
	return c.A * (1 - c.E)
}

// SemiParameter returns the semi parameter p.
func (c COE) SemiParameter() float64 {
	return c.A * (1 - c.E*c.E)
}

// Period returns the orbital period about a body of parameter μ.
func (c COE) Period(μ float64) time.Duration {
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(c.A, 3)/μ)
	return time.Duration(seconds * float64(time.Second))
}

// StateVectors lifts a pad-relative state into the planet-centered frame
// used by the orbital element conversions. The launch site sits on the
// z axis of that frame.
func StateVectors(position, velocity []float64) (R, V []float64) {
	R = []float64{position[0], position[1], position[2] + EarthRadius}
	V = []float64{velocity[0], velocity[1], velocity[2]}
	return
}

// RV2COE returns the classical orbital elements from the radius and
// velocity vectors, from Vallado's RV2COE.
func RV2COE(R, V []float64, μ float64) COE {
	hVec := cross(R, V)
	n := cross([]float64{0, 0, 1}, hVec)
	v := norm(V)
	r := norm(R)
	ξ := (v*v)/2 - μ/r
	a := -μ / (2 * ξ)
	eVec := make([]float64, 3)
	for i := 0; i < 3; i++ {
		eVec[i] = ((v*v-μ/r)*R[i] - dot(R, V)*V[i]) / μ
	}
	e := norm(eVec)
	i := math.Acos(hVec[2] / norm(hVec))
	ω := math.Acos(dot(n, eVec) / (norm(n) * e))
	if math.IsNaN(ω) {
		ω = 0
	}
	if eVec[2] < 0 {
		ω = 2*math.Pi - ω
	}
	Ω := math.Acos(n[0] / norm(n))
	if math.IsNaN(Ω) {
		Ω = 0
	} else if n[1] < 0 {
		Ω = 2*math.Pi - Ω
	}
	cosν := dot(eVec, R) / (e * r)
	if abscosν := math.Abs(cosν); abscosν > 1 && floats.EqualWithinAbs(abscosν, 1, 1e-12) {
		cosν = sign(cosν)
	}
	ν := math.Acos(cosν)
	if dot(R, V) < 0 {
		ν = 2*math.Pi - ν
	}
	i = math.Mod(i, 2*math.Pi)
	Ω = math.Mod(Ω, 2*math.Pi)
	ω = math.Mod(ω, 2*math.Pi)
	ν = math.Mod(ν, 2*math.Pi)
	return COE{a, e, i, Ω, ω, ν}
}

// COE2RV returns the radius and velocity vectors from the classical
// orbital elements.
func COE2RV(c COE, μ float64) (R, V []float64) {
	p := c.SemiParameter()
	ν := c.ν
	ω := c.ω
	Ω := c.Ω
	if c.E < eccentricityε {
		ω = 0
	}
	sinν, cosν := math.Sincos(ν)
	R = pqw2eci(c.I, ω, Ω, []float64{p * cosν / (1 + c.E*cosν), p * sinν / (1 + c.E*cosν), 0})
	V = pqw2eci(c.I, ω, Ω, []float64{-math.Sqrt(μ/p) * sinν, math.Sqrt(μ/p) * (c.E + cosν), 0})
	return
}

func pqw2eci(i, ω, Ω float64, vec []float64) []float64 {
	return MxV33(R3(-Ω), MxV33(R1(-i), MxV33(R3(-ω), vec)))
}

// Hohmann computes an Hohmann transfer between two circular radii.
// It returns the departure and arrival speeds on the transfer ellipse
// and the time of flight.
func Hohmann(rI, rF, μ float64) (vDeparture, vArrival float64, tof time.Duration) {
	aTransfer := 0.5 * (rI + rF)
	vDeparture = math.Sqrt((2 * μ / rI) - (μ / aTransfer))
	vArrival = math.Sqrt((2 * μ / rF) - (μ / aTransfer))
	tof = time.Duration(math.Pi*math.Sqrt(math.Pow(aTransfer, 3)/μ)) * time.Second
	return
}

// InsertionDv estimates the Δv needed to circularize at the apoapsis of
// the orbit described by R, V.
func InsertionDv(R, V []float64, μ float64) float64 {
	c := RV2COE(R, V, μ)
	rA := c.Apoapsis()
	vApo := math.Sqrt(μ * (2/rA - 1/c.A))
	vCirc := math.Sqrt(μ / rA)
	return math.Abs(vCirc - vApo)
}

// CoastArc propagates an unpowered two-body arc. It is display-only:
// the interactive loop never feeds its states back into a vehicle.
type CoastArc struct {
	R, V     []float64
	μ        float64
	duration float64
	step     float64
}

// NewCoastArc returns a coast arc of the given duration in seconds from
// a pad-relative vehicle state.
func NewCoastArc(position, velocity []float64, duration float64) *CoastArc {
	R, V := StateVectors(position, velocity)
	return &CoastArc{R: R, V: V, μ: EarthMu, duration: duration, step: 1.0}
}

// Propagate runs the arc to completion. Blocking.
func (c *CoastArc) Propagate() {
	ode.NewRK4(0, c.step, c).Solve()
}

// Stop implements the Stop method of ode.Integrable.
func (c *CoastArc) Stop(t float64) bool {
	return t >= c.duration || norm(c.R) <= EarthRadius
}

// GetState returns the state for the integrator.
func (c *CoastArc) GetState() (s []float64) {
	s = make([]float64, 6)
	copy(s[:3], c.R)
	copy(s[3:], c.V)
	return
}

// SetState sets the updated state.
func (c *CoastArc) SetState(t float64, s []float64) {
	copy(c.R, s[:3])
	copy(c.V, s[3:])
}

// Func is the two-body differential equation.
func (c *CoastArc) Func(t float64, s []float64) (sDot []float64) {
	sDot = make([]float64, 6)
	r := math.Sqrt(s[0]*s[0] + s[1]*s[1] + s[2]*s[2])
	r3 := r * r * r
	sDot[0] = s[3]
	sDot[1] = s[4]
	sDot[2] = s[5]
	sDot[3] = -c.μ * s[0] / r3
	sDot[4] = -c.μ * s[1] / r3
	sDot[5] = -c.μ * s[2] / r3
	return
}
