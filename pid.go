package starship

import (
	"fmt"
	"math"
)

// PID is a scalar proportional-integral-derivative controller with integral
// anti-windup and output clamping.
type PID struct {
	Kp, Ki, Kd float64
	Min, Max   float64

	integral  float64
	prevError float64
	primed    bool
}

// NewPID returns a controller with zeroed state.
func NewPID(gains PIDGains, min, max float64) *PID {
	if min > max {
		panic(fmt.Errorf("PID bounds inverted: [%f, %f]", min, max))
	}
	return &PID{Kp: gains.P, Ki: gains.I, Kd: gains.D, Min: min, Max: max}
}

// Reset clears the accumulated integral and the previous error. Call it when
// a new guided sequence begins so nothing leaks across phases.
func (c *PID) Reset() {
	c.integral = 0
	c.prevError = 0
	c.primed = false
}

// Integral returns the accumulated (clamped) integral state.
func (c *PID) Integral() float64 {
	return c.integral
}

// Update advances the controller by dt and returns the clamped output.
// dt must be strictly positive: a non-positive step is a caller bug.
func (c *PID) Update(err, dt float64) float64 {
	if dt <= 0 {
		panic(fmt.Errorf("PID update with dt=%f", dt))
	}
	c.integral = clamp(c.integral+err*dt, c.Min, c.Max)
	var derivative float64
	if c.primed {
		derivative = c.Kd * (err - c.prevError) / dt
	}
	c.prevError = err
	c.primed = true
	return clamp(c.Kp*err+c.Ki*c.integral+derivative, c.Min, c.Max)
}

// VectorPID runs one shared gain set over a 2- or 3-axis error signal with
// magnitude-based clamping: when the combined output exceeds MaxMag the whole
// vector is rescaled, preserving its direction, instead of clamping the
// components independently.
type VectorPID struct {
	Kp, Ki, Kd float64
	MaxMag     float64

	integral  []float64
	prevError []float64
	primed    bool
}

// NewVectorPID returns a vector controller for dim axes (2 or 3).
func NewVectorPID(gains PIDGains, maxMag float64, dim int) *VectorPID {
	if dim != 2 && dim != 3 {
		panic(fmt.Errorf("VectorPID supports 2 or 3 axes, not %d", dim))
	}
	return &VectorPID{Kp: gains.P, Ki: gains.I, Kd: gains.D, MaxMag: maxMag,
		integral: make([]float64, dim), prevError: make([]float64, dim)}
}

// Reset clears the accumulated state.
func (c *VectorPID) Reset() {
	for i := range c.integral {
		c.integral[i] = 0
		c.prevError[i] = 0
	}
	c.primed = false
}

// Update advances the controller by dt and returns the clamped output vector.
// dt must be strictly positive.
func (c *VectorPID) Update(err []float64, dt float64) []float64 {
	if dt <= 0 {
		panic(fmt.Errorf("VectorPID update with dt=%f", dt))
	}
	if len(err) != len(c.integral) {
		panic(fmt.Errorf("VectorPID dimension mismatch: %d != %d", len(err), len(c.integral)))
	}
	out := make([]float64, len(err))
	for i, e := range err {
		c.integral[i] += e * dt
	}
	rescaleToMag(c.integral, c.MaxMag)
	for i, e := range err {
		out[i] = c.Kp*e + c.Ki*c.integral[i]
		if c.primed {
			out[i] += c.Kd * (e - c.prevError[i]) / dt
		}
		c.prevError[i] = e
	}
	c.primed = true
	rescaleToMag(out, c.MaxMag)
	return out
}

// rescaleToMag shrinks v in place so its magnitude does not exceed maxMag.
func rescaleToMag(v []float64, maxMag float64) {
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	if sq <= maxMag*maxMag {
		return
	}
	f := maxMag / math.Sqrt(sq)
	for i := range v {
		v[i] *= f
	}
}
