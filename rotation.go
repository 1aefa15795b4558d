package starship

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m *mat64.Dense, v []float64) (o []float64) {
	vVec := mat64.NewVector(len(v), v)
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// BodyToWorld returns the rotation matrix from the vehicle body frame to the
// world frame for a 3-2-1 (yaw, pitch, roll) attitude sequence.
func BodyToWorld(pitch, yaw, roll float64) *mat64.Dense {
	var yp, ypr mat64.Dense
	yp.Mul(R3(-yaw), R2(-pitch))
	ypr.Mul(&yp, R1(-roll))
	return &ypr
}

// BodyUpAxis returns the vehicle's thrust axis expressed in the world frame.
// With all angles at zero the axis is world up.
func BodyUpAxis(pitch, yaw, roll float64) []float64 {
	return MxV33(BodyToWorld(pitch, yaw, roll), []float64{0, 0, 1})
}
