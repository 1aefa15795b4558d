package starship

// maxIntegrationStep is the hard stability ceiling of a single explicit Euler
// step. Larger frame deltas must be sub-stepped by the caller; anything above
// this injects energy at low frame rates.
const maxIntegrationStep = 0.1

// Integrate advances a vehicle by one semi-implicit Euler step under the given
// net force and angular acceleration. The step is capped at the stability
// ceiling. It reports whether the vehicle hit the ground this step: ground
// contact is an inelastic stop, with the vertical position clamped to zero and
// all rates zeroed.
func Integrate(v *Vehicle, force, angAccel []float64, dt float64) (touchdown bool) {
	if dt <= 0 {
		return false
	}
	if dt > maxIntegrationStep {
		dt = maxIntegrationStep
	}

	accel := scale(1/v.Mass(), force)
	v.Accel = accel
	v.recordPeaks(0, norm(accel))

	// Velocity first, then position: semi-implicit Euler.
	v.Velocity = add(v.Velocity, scale(dt, accel))
	v.Position = add(v.Position, scale(dt, v.Velocity))

	// Small-angle attitude integration. The representation is not
	// re-normalized; rates stay small enough to remain stable over
	// thousands of ticks.
	v.AngularVel = add(v.AngularVel, scale(dt, angAccel))
	v.Pitch += v.AngularVel[0] * dt
	v.Yaw += v.AngularVel[1] * dt
	v.Roll += v.AngularVel[2] * dt

	if v.Position[2] < 0 {
		v.Position[2] = 0
		v.Velocity = []float64{0, 0, 0}
		v.Accel = []float64{0, 0, 0}
		v.AngularVel = []float64{0, 0, 0}
		return true
	}
	return false
}
